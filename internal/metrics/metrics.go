// Package metrics bundles the Prometheus collectors for the API and the scraper.
package metrics

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookhub/internal/middleware"
)

// Metrics holds collectors registered on a dedicated registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry      *prometheus.Registry
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	ScrapePages   *prometheus.CounterVec
	ScrapeItems   *prometheus.CounterVec
	FetchRetries  prometheus.Counter
	FetchDuration prometheus.Histogram
	LoaderRows    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests served, labeled by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, labeled by method and route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Listing pages processed by the crawler, labeled by outcome.",
		},
		[]string{"status"},
	)
	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_total",
			Help: "Detail pages processed by the crawler, labeled by outcome.",
		},
		[]string{"status"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_fetch_retries_total",
			Help: "Fetch attempts retried after a failure.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Latency of individual fetch attempts.",
			Buckets: prometheus.DefBuckets,
		},
	)
	loaderRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_rows_total",
			Help: "Rows handled by the loader, labeled by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(httpRequests, httpDuration, pages, items, retries, fetchDuration, loaderRows)

	return &Metrics{
		Registry:      registry,
		HTTPRequests:  httpRequests,
		HTTPDuration:  httpDuration,
		ScrapePages:   pages,
		ScrapeItems:   items,
		FetchRetries:  retries,
		FetchDuration: fetchDuration,
		LoaderRows:    loaderRows,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Record implements middleware.RecordSink.
func (m *Metrics) Record(rec middleware.RequestRecord) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(rec.Method, rec.Route, strconv.Itoa(rec.Status)).Inc()
	m.HTTPDuration.WithLabelValues(rec.Method, rec.Route).Observe(rec.Latency.Seconds())
}

func (m *Metrics) IncPage(status string) {
	if m == nil {
		return
	}
	m.ScrapePages.WithLabelValues(status).Inc()
}

func (m *Metrics) IncItem(status string) {
	if m == nil {
		return
	}
	m.ScrapeItems.WithLabelValues(status).Inc()
}

func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) AddLoaded(inserted, skipped int) {
	if m == nil {
		return
	}
	m.LoaderRows.WithLabelValues("inserted").Add(float64(inserted))
	m.LoaderRows.WithLabelValues("skipped").Add(float64(skipped))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
