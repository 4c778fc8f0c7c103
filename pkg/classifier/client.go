// Package classifier is a client for the image-based part classifier service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/logging"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
)

// DefaultEndpoint is the public part prediction endpoint.
const DefaultEndpoint = "https://api.brickognize.com/predict/parts/"

// Match is one candidate part returned for an image query.
type Match struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"img_url"`
	Category string  `json:"category,omitempty"`
	Score    float64 `json:"score"`
}

type predictResponse struct {
	ListingID string  `json:"listing_id"`
	Items     []Match `json:"items"`
}

// Config configures the classifier client.
type Config struct {
	Endpoint       string
	Timeout        time.Duration
	CircuitBreaker llm.CircuitBreakerConfig
}

// Client queries the classifier with a JPEG crop. It makes exactly one HTTP
// call per Classify and never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *llm.CircuitBreaker
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient creates a classifier client.
func NewClient(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    llm.NewCircuitBreaker("part classifier", cfg.CircuitBreaker),
		metrics:    m,
		logger:     logger.Named("classifier"),
	}
}

// Classify submits one JPEG image and returns the candidate parts ordered by
// descending score. An empty slice means the service found no match.
func (c *Client) Classify(ctx context.Context, image []byte) ([]Match, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		c.metrics.IncrementClassifierCircuitOpen()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
	}

	body, contentType, err := buildQuery(image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create classifier request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveClassifierDuration(time.Since(start))
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("read classifier response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, logging.SanitizeBody(respBody))
	}
	// Anything below 500 means the service is up, even if it rejected this crop.
	c.breaker.RecordSuccess()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, logging.SanitizeBody(respBody))
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	matches := parsed.Items
	if matches == nil {
		matches = []Match{}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	c.logger.Debug("Classifier response",
		zap.Int("matches", len(matches)),
		zap.Duration("elapsed", time.Since(start)))

	return matches, nil
}

// CircuitState reports the state of the classifier circuit breaker.
func (c *Client) CircuitState() llm.CircuitState {
	return c.breaker.State()
}

func buildQuery(image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="query_image"; filename="crop.jpg"`)
	header.Set("Content-Type", "image/jpeg")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
