// Package metrics provides Prometheus metrics for the identification and matching pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Photo outcome labels.
const (
	PhotoStatusOK     = "ok"
	PhotoStatusFailed = "failed"
)

// Catalog request outcome labels.
const (
	CatalogStatusOK       = "ok"
	CatalogStatusNotFound = "not_found"
	CatalogStatusError    = "error"
)

// Metrics holds all pipeline metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	photosTotal           *prometheus.CounterVec
	detectionsTotal       prometheus.Counter
	verificationsTotal    *prometheus.CounterVec
	visionDuration        prometheus.Histogram
	classifierDuration    prometheus.Histogram
	catalogRequestsTotal  *prometheus.CounterVec
	catalogCacheHits      prometheus.Counter
	catalogCacheMisses    prometheus.Counter
	buildsReturned        prometheus.Histogram
	pivotsQueried         prometheus.Histogram
	classifierCircuitOpen prometheus.Counter
}

// NewMetrics creates the pipeline metrics and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		photosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brickwise_photos_total",
			Help: "Total number of photos processed, by outcome.",
		}, []string{"status"}),
		detectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brickwise_detections_total",
			Help: "Total number of raw detections returned by the vision model.",
		}),
		verificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brickwise_verifications_total",
			Help: "Total number of region verifications, by source tag.",
		}, []string{"source"}),
		visionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brickwise_vision_request_duration_seconds",
			Help:    "Duration of vision model detection requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
		}),
		classifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brickwise_classifier_request_duration_seconds",
			Help:    "Duration of part classifier requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		catalogRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brickwise_catalog_requests_total",
			Help: "Total number of catalog API requests, by endpoint and outcome.",
		}, []string{"endpoint", "status"}),
		catalogCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brickwise_catalog_cache_hits_total",
			Help: "Total number of catalog cache hits.",
		}),
		catalogCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brickwise_catalog_cache_misses_total",
			Help: "Total number of catalog cache misses.",
		}),
		buildsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brickwise_builds_returned",
			Help:    "Number of suggested builds returned per matching request.",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		}),
		pivotsQueried: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brickwise_pivots_queried",
			Help:    "Number of pivot parts queried per matching request.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		classifierCircuitOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brickwise_classifier_circuit_open_total",
			Help: "Total number of classifier calls skipped because the circuit was open.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.photosTotal,
		m.detectionsTotal,
		m.verificationsTotal,
		m.visionDuration,
		m.classifierDuration,
		m.catalogRequestsTotal,
		m.catalogCacheHits,
		m.catalogCacheMisses,
		m.buildsReturned,
		m.pivotsQueried,
		m.classifierCircuitOpen,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
		}
	}

	return m, nil
}

// RecordPhoto counts one processed photo.
func (m *Metrics) RecordPhoto(status string) {
	if m == nil {
		return
	}
	m.photosTotal.WithLabelValues(status).Inc()
}

// RecordDetections adds n raw detections and the vision call duration.
func (m *Metrics) RecordDetections(n int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.detectionsTotal.Add(float64(n))
	m.visionDuration.Observe(elapsed.Seconds())
}

// RecordVerification counts one verified region by its source tag.
func (m *Metrics) RecordVerification(source string) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(source).Inc()
}

// ObserveClassifierDuration records the duration of one classifier call.
func (m *Metrics) ObserveClassifierDuration(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.classifierDuration.Observe(elapsed.Seconds())
}

// IncrementClassifierCircuitOpen counts a classifier call rejected by the circuit breaker.
func (m *Metrics) IncrementClassifierCircuitOpen() {
	if m == nil {
		return
	}
	m.classifierCircuitOpen.Inc()
}

// RecordCatalogRequest counts one catalog API request.
func (m *Metrics) RecordCatalogRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.catalogRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// IncrementCatalogCacheHits increases the catalog cache hit counter by one.
func (m *Metrics) IncrementCatalogCacheHits() {
	if m == nil {
		return
	}
	m.catalogCacheHits.Inc()
}

// IncrementCatalogCacheMisses increases the catalog cache miss counter by one.
func (m *Metrics) IncrementCatalogCacheMisses() {
	if m == nil {
		return
	}
	m.catalogCacheMisses.Inc()
}

// RecordMatch records the size of one matching result and how many pivots it used.
func (m *Metrics) RecordMatch(builds, pivots int) {
	if m == nil {
		return
	}
	m.buildsReturned.Observe(float64(builds))
	m.pivotsQueried.Observe(float64(pivots))
}
