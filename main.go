package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/catalog"
	"github.com/brickwise/brickwise-engine/pkg/classifier"
	"github.com/brickwise/brickwise-engine/pkg/config"
	"github.com/brickwise/brickwise-engine/pkg/detection"
	"github.com/brickwise/brickwise-engine/pkg/handlers"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/mcp"
	"github.com/brickwise/brickwise-engine/pkg/mcp/tools"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
	"github.com/brickwise/brickwise-engine/pkg/middleware"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("vision_provider", cfg.Vision.Provider),
		zap.String("vision_model", cfg.Vision.Model),
		zap.String("classifier", cfg.Classifier.Endpoint),
		zap.String("catalog", cfg.Catalog.BaseURL),
		zap.Int("max_concurrent_photos", cfg.Pipeline.MaxConcurrentPhotos),
		zap.Int("max_concurrent_verifications", cfg.Pipeline.MaxConcurrentVerifications))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	// Upstream clients
	vision, err := llm.NewVisionClient(&llm.Config{
		Provider:    cfg.Vision.Provider,
		Endpoint:    cfg.Vision.Endpoint,
		Model:       cfg.Vision.Model,
		APIKey:      cfg.Vision.APIKey,
		MaxTokens:   cfg.Vision.MaxTokens,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("create vision client: %w", err)
	}

	classifierClient := classifier.NewClient(classifier.Config{
		Endpoint: cfg.Classifier.Endpoint,
		Timeout:  cfg.Classifier.Timeout,
		CircuitBreaker: llm.CircuitBreakerConfig{
			Threshold:  cfg.Classifier.BreakerThreshold,
			ResetAfter: cfg.Classifier.BreakerResetAfter,
		},
	}, m, logger)

	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		APIKey:   cfg.Catalog.APIKey,
		Timeout:  cfg.Catalog.Timeout,
		CacheTTL: cfg.Catalog.CacheTTL,
	}, m, logger)
	if err != nil {
		return fmt.Errorf("create catalog client: %w", err)
	}

	// Pipeline services
	verifier := services.NewRegionVerifier(classifierClient, catalogClient, services.RegionVerifierConfig{
		MinCropSize: cfg.Pipeline.MinCropSize,
		JPEGQuality: cfg.Pipeline.JPEGQuality,
	}, m, logger)

	identifier := services.NewBatchIdentifier(detection.NewDetector(vision, logger), verifier, services.BatchIdentifierConfig{
		MaxConcurrentPhotos:        cfg.Pipeline.MaxConcurrentPhotos,
		MaxConcurrentVerifications: cfg.Pipeline.MaxConcurrentVerifications,
	}, m, logger)

	matcher := services.NewSetMatcher(catalogClient, services.SetMatcherConfig{
		MaxPivots:                cfg.Matcher.MaxPivots,
		MinCandidateSets:         cfg.Matcher.MinCandidateSets,
		MinSetParts:              cfg.Matcher.MinSetParts,
		MinScore:                 cfg.Matcher.MinScore,
		SparseMinScore:           cfg.Matcher.SparseMinScore,
		SparseInventoryThreshold: cfg.Matcher.SparseInventoryThreshold,
		MaxResults:               cfg.Matcher.MaxResults,
	}, m, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, classifierClient, logger).RegisterRoutes(mux)
	handlers.NewIdentifyHandler(identifier, logger).RegisterRoutes(mux)
	handlers.NewBuildsHandler(matcher, logger).RegisterRoutes(mux)
	handlers.NewInventoryHandler(logger).RegisterRoutes(mux)
	handlers.NewSetsHandler(catalogClient, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer(&tools.ToolDeps{
		Identifier: identifier,
		Matcher:    matcher,
		Sets:       catalogClient,
		Classifier: classifierClient,
		Version:    cfg.Version,
	}, logger.Named("mcp"))
	handlers.NewMCPHandler(mcpServer, logger.Named("mcp")).RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger)(middleware.LimitBody(cfg.MaxRequestBytes)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting brickwise-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
