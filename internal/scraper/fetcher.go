package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"bookhub/internal/metrics"
)

// Getter returns the raw body of a GET request.
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
	Retry     RetryPolicy
}

// Fetcher performs GETs through a colly collector with bounded retries.
type Fetcher struct {
	base    *colly.Collector
	retry   RetryPolicy
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type FetcherOption func(*Fetcher)

// WithTransport replaces the collector's HTTP transport.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *Fetcher) { f.base.WithTransport(rt) }
}

func WithFetchLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

func WithFetchMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func NewFetcher(cfg FetcherConfig, opts ...FetcherOption) *Fetcher {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	// colly fails every status >= 203 on its own; let the 2xx check in once decide.
	c.ParseHTTPErrorResponse = true
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	f := &Fetcher{base: c, retry: cfg.Retry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body of url, or a *FetchError once the retry policy is
// exhausted.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body   []byte
		status int
	)
	attempts, err := f.retry.Do(ctx, func(int) error {
		var err error
		body, status, err = f.once(url)
		return err
	}, func(attempt int, err error) {
		f.metrics.IncRetry()
		f.logger.Debug("fetch retry",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", f.retry.Backoff(attempt)),
			zap.Error(err),
		)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &FetchError{URL: url, Attempts: attempts, StatusCode: status, Err: err}
	}
	return body, nil
}

// once issues a single synchronous request on a clone of the base collector.
// Clones share the transport, so connection reuse is kept.
func (f *Fetcher) once(url string) ([]byte, int, error) {
	c := f.base.Clone()

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Visit(url)
	f.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return nil, status, err
	}
	if status < 200 || status >= 300 {
		return nil, status, fmt.Errorf("%w: %d", errStatus, status)
	}
	return body, status, nil
}
