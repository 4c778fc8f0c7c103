package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for brickwise-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// MaxRequestBytes bounds request bodies; photo batches arrive as base64.
	MaxRequestBytes int64 `yaml:"max_request_bytes" env:"MAX_REQUEST_BYTES" env-default:"52428800"`

	Vision     VisionConfig     `yaml:"vision"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Matcher    MatcherConfig    `yaml:"matcher"`
}

// VisionConfig selects the multimodal model used for detection.
type VisionConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider    string        `yaml:"provider" env:"VISION_PROVIDER" env-default:"openai"`
	Endpoint    string        `yaml:"endpoint" env:"VISION_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string        `yaml:"model" env:"VISION_MODEL" env-default:"gpt-4o"`
	APIKey      string        `yaml:"-" env:"VISION_API_KEY"` // Secret - not in YAML
	MaxTokens   int           `yaml:"max_tokens" env:"VISION_MAX_TOKENS" env-default:"4096"`
	Temperature float64       `yaml:"temperature" env:"VISION_TEMPERATURE" env-default:"0.1"`
	Timeout     time.Duration `yaml:"timeout" env:"VISION_TIMEOUT" env-default:"90s"`
}

// ClassifierConfig configures the image-to-part classifier.
type ClassifierConfig struct {
	Endpoint string        `yaml:"endpoint" env:"CLASSIFIER_ENDPOINT" env-default:"https://api.brickognize.com/predict/parts/"`
	Timeout  time.Duration `yaml:"timeout" env:"CLASSIFIER_TIMEOUT" env-default:"20s"`
	// Consecutive failures before requests short-circuit, and how long they do.
	BreakerThreshold  int           `yaml:"breaker_threshold" env:"CLASSIFIER_BREAKER_THRESHOLD" env-default:"5"`
	BreakerResetAfter time.Duration `yaml:"breaker_reset_after" env:"CLASSIFIER_BREAKER_RESET_AFTER" env-default:"30s"`
}

// CatalogConfig configures the Rebrickable catalog client.
type CatalogConfig struct {
	BaseURL  string        `yaml:"base_url" env:"REBRICKABLE_BASE_URL" env-default:"https://rebrickable.com/api/v3"`
	APIKey   string        `yaml:"-" env:"REBRICKABLE_API_KEY"` // Secret - not in YAML
	Timeout  time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"15s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CATALOG_CACHE_TTL" env-default:"1h"`
}

// PipelineConfig bounds the identification fan-out.
type PipelineConfig struct {
	MaxConcurrentPhotos        int `yaml:"max_concurrent_photos" env:"PIPELINE_MAX_CONCURRENT_PHOTOS" env-default:"4"`
	MaxConcurrentVerifications int `yaml:"max_concurrent_verifications" env:"PIPELINE_MAX_CONCURRENT_VERIFICATIONS" env-default:"8"`
	MinCropSize                int `yaml:"min_crop_size" env:"PIPELINE_MIN_CROP_SIZE" env-default:"10"`
	JPEGQuality                int `yaml:"jpeg_quality" env:"PIPELINE_JPEG_QUALITY" env-default:"90"`
}

// MatcherConfig tunes set matching.
type MatcherConfig struct {
	MaxPivots                int     `yaml:"max_pivots" env:"MATCHER_MAX_PIVOTS" env-default:"8"`
	MinCandidateSets         int     `yaml:"min_candidate_sets" env:"MATCHER_MIN_CANDIDATE_SETS" env-default:"50"`
	MinSetParts              int     `yaml:"min_set_parts" env:"MATCHER_MIN_SET_PARTS" env-default:"20"`
	MinScore                 float64 `yaml:"min_score" env:"MATCHER_MIN_SCORE" env-default:"10"`
	SparseMinScore           float64 `yaml:"sparse_min_score" env:"MATCHER_SPARSE_MIN_SCORE" env-default:"0"`
	SparseInventoryThreshold int     `yaml:"sparse_inventory_threshold" env:"MATCHER_SPARSE_INVENTORY_THRESHOLD" env-default:"10"`
	MaxResults               int     `yaml:"max_results" env:"MATCHER_MAX_RESULTS" env-default:"50"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (VISION_API_KEY, REBRICKABLE_API_KEY) must come from environment
// variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Local model servers on the host are unreachable as localhost from a container
	cfg.Vision.Endpoint = ResolveEndpointForDocker(cfg.Vision.Endpoint)

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate checks values cleanenv cannot express as defaults.
func (c *Config) validate() error {
	switch strings.ToLower(c.Vision.Provider) {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("vision.provider must be openai or anthropic, got %q", c.Vision.Provider)
	}
	if c.Catalog.APIKey == "" {
		return fmt.Errorf("REBRICKABLE_API_KEY is required")
	}
	if c.Pipeline.MaxConcurrentPhotos < 1 || c.Pipeline.MaxConcurrentVerifications < 1 {
		return fmt.Errorf("pipeline concurrency limits must be at least 1")
	}
	if c.Pipeline.JPEGQuality < 1 || c.Pipeline.JPEGQuality > 100 {
		return fmt.Errorf("pipeline.jpeg_quality must be between 1 and 100")
	}
	if c.Matcher.MaxPivots < 1 || c.Matcher.MaxResults < 1 {
		return fmt.Errorf("matcher.max_pivots and matcher.max_results must be at least 1")
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}
