// Package catalog is a read-only client for the Rebrickable parts and sets catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/logging"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

const (
	// DefaultBaseURL is the Rebrickable API v3 root.
	DefaultBaseURL = "https://rebrickable.com/api/v3"
	// SetPageBaseURL is the public page for a set, used when the catalog gives no URL.
	SetPageBaseURL = "https://rebrickable.com/sets/"

	// SearchPageSize is the number of sets returned by SearchSets.
	SearchPageSize = 20
	// listPageSize bounds list endpoints; popular parts appear in hundreds of sets.
	listPageSize = 1000
)

// Endpoint labels used for metrics.
const (
	endpointSetsContaining   = "sets_containing"
	endpointPartColors       = "part_colors"
	endpointPartColorDetails = "part_color_details"
	endpointSearchSets       = "search_sets"
)

// Config configures the catalog client.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultConfig returns the default catalog configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Timeout:  15 * time.Second,
		CacheTTL: time.Hour,
	}
}

// Client queries the catalog. Successful responses are cached; errors are not.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient creates a catalog client.
func NewClient(config Config, m *metrics.Metrics, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("rebrickable API key is required")
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		cache:      cache.New(config.CacheTTL, config.CacheTTL*2),
		metrics:    m,
		logger:     logger.Named("catalog"),
	}, nil
}

type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

type setResult struct {
	models.CatalogSet
	QuantityInSet *int `json:"quantity_in_set"`
	Quantity      *int `json:"quantity"`
}

// SetsContaining returns the sets that use the given part in the given color.
// Sets without a reported quantity count the part once; sets without a URL get
// the public set page.
func (c *Client) SetsContaining(ctx context.Context, partNum string, colorID int) ([]models.SetContainingPart, error) {
	path := fmt.Sprintf("/lego/parts/%s/colors/%d/sets/", url.PathEscape(partNum), colorID)

	var resp page[setResult]
	if err := c.get(ctx, endpointSetsContaining, path, url.Values{"page_size": {fmt.Sprint(listPageSize)}}, &resp); err != nil {
		return nil, err
	}

	sets := make([]models.SetContainingPart, 0, len(resp.Results))
	for _, r := range resp.Results {
		s := models.SetContainingPart{CatalogSet: r.CatalogSet, QuantityInSet: 1}
		for _, q := range []*int{r.QuantityInSet, r.Quantity} {
			if q != nil && *q > 0 {
				s.QuantityInSet = *q
				break
			}
		}
		if s.SetURL == "" {
			s.SetURL = SetURL(s.SetNum)
		}
		sets = append(sets, s)
	}
	return sets, nil
}

// PartColors returns every color the part is produced in.
func (c *Client) PartColors(ctx context.Context, partNum string) ([]models.PartColor, error) {
	path := fmt.Sprintf("/lego/parts/%s/colors/", url.PathEscape(partNum))

	var resp page[models.PartColor]
	if err := c.get(ctx, endpointPartColors, path, url.Values{"page_size": {fmt.Sprint(listPageSize)}}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []models.PartColor{}, nil
	}
	return resp.Results, nil
}

// PartColorDetails returns details, including the catalog image, of one part in one color.
func (c *Client) PartColorDetails(ctx context.Context, partNum string, colorID int) (*models.PartColorDetails, error) {
	path := fmt.Sprintf("/lego/parts/%s/colors/%d/", url.PathEscape(partNum), colorID)

	var details models.PartColorDetails
	if err := c.get(ctx, endpointPartColorDetails, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// SearchSets runs a free-text set search.
func (c *Client) SearchSets(ctx context.Context, query string) ([]models.SetSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrEmptyQuery
	}

	var resp page[models.CatalogSet]
	params := url.Values{"search": {query}, "page_size": {fmt.Sprint(SearchPageSize)}}
	if err := c.get(ctx, endpointSearchSets, "/lego/sets/", params, &resp); err != nil {
		return nil, err
	}

	results := make([]models.SetSearchResult, 0, len(resp.Results))
	for _, s := range resp.Results {
		results = append(results, models.SetSearchResult{
			SetID:      s.SetNum,
			Name:       s.Name,
			SetImgURL:  s.SetImgURL,
			PartsCount: s.NumParts,
			Year:       s.Year,
		})
	}
	return results, nil
}

// SetURL returns the public catalog page of a set.
func SetURL(setNum string) string {
	return SetPageBaseURL + url.PathEscape(setNum)
}

// get performs one GET against the catalog and decodes the JSON body into out.
// A 404 maps to apperrors.ErrNotFound.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	reqURL := c.config.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if cached, found := c.cache.Get(reqURL); found {
		if body, ok := cached.([]byte); ok {
			c.metrics.IncrementCatalogCacheHits()
			return json.Unmarshal(body, out)
		}
	}
	c.metrics.IncrementCatalogCacheMisses()

	// The deadline covers the body read as well as the round trip.
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Authorization", "key "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusError)
		c.logger.Warn("Catalog request failed",
			zap.String("endpoint", endpoint),
			zap.String("url", logging.SanitizeURL(reqURL)),
			zap.String("error", logging.SanitizeError(err)))
		return &requestError{endpoint: endpoint, err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusError)
		return fmt.Errorf("read catalog %s response: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusNotFound)
		return fmt.Errorf("catalog %s %s: %w", endpoint, path, apperrors.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusError)
		return fmt.Errorf("catalog %s returned status %d: %s", endpoint, resp.StatusCode, logging.SanitizeBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusError)
		return fmt.Errorf("decode catalog %s response: %w", endpoint, err)
	}
	c.metrics.RecordCatalogRequest(endpoint, metrics.CatalogStatusOK)

	c.cache.Set(reqURL, body, cache.DefaultExpiration)

	c.logger.Debug("Catalog request completed",
		zap.String("endpoint", endpoint),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}

// requestError is a failed round trip to the catalog. Its message is sanitized
// but the cause stays reachable, so deadlines remain detectable with errors.Is.
type requestError struct {
	endpoint string
	err      error
}

func (e *requestError) Error() string {
	return fmt.Sprintf("catalog %s request: %s", e.endpoint, logging.SanitizeError(e.err))
}

func (e *requestError) Unwrap() error {
	return e.err
}
