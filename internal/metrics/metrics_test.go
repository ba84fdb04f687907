package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/internal/middleware"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.IncPage("ok")
	m.IncItem("ok")
	m.IncRetry()
	m.ObserveFetch(time.Second)
	m.AddLoaded(1, 2)
	m.Record(middleware.RequestRecord{})

	s, err := m.Summary()
	require.NoError(t, err)
	assert.Zero(t, s.RequestsTotal)
}

func TestSummaryFoldsHTTPSeries(t *testing.T) {
	m := New()
	m.Record(middleware.RequestRecord{Method: "GET", Route: "/api/v1/books", Status: 200, Latency: 10 * time.Millisecond})
	m.Record(middleware.RequestRecord{Method: "GET", Route: "/api/v1/books", Status: 500, Latency: 30 * time.Millisecond})
	m.Record(middleware.RequestRecord{Method: "POST", Route: "/api/v1/auth/login", Status: 200, Latency: 20 * time.Millisecond})

	s, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, s.RequestsTotal)
	assert.Equal(t, map[string]int{
		"GET /api/v1/books":       2,
		"POST /api/v1/auth/login": 1,
	}, s.ByRoute)
	assert.InDelta(t, 20.0, s.AvgLatencyMs, 0.01)
}

func TestScraperCounters(t *testing.T) {
	m := New()
	m.IncPage("ok")
	m.IncPage("ok")
	m.IncItem("parse_error")
	m.IncRetry()
	m.AddLoaded(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScrapePages.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScrapeItems.WithLabelValues("parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRetries))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LoaderRows.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderRows.WithLabelValues("skipped")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.IncPage("ok")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `scraper_pages_total{status="ok"} 1`))
}
