package scraper

import (
	"go.uber.org/zap"

	"bookhub/internal/metrics"
	"bookhub/pkg/utils"
)

// FromConfig builds a Fetcher and a Crawler over it from the scraper block
// of the application config. Extra options are applied to the crawler.
func FromConfig(cfg utils.ScraperConfig, logger *zap.Logger, m *metrics.Metrics, opts ...CrawlerOption) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	fetcher := NewFetcher(FetcherConfig{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Retry:     RetryPolicy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BackoffBase},
	}, WithFetchLogger(logger), WithFetchMetrics(m))

	base := []CrawlerOption{WithCrawlLogger(logger), WithCrawlMetrics(m)}
	return NewCrawler(CrawlerConfig{
		BaseURL:  cfg.BaseURL,
		MaxPages: cfg.MaxPages,
		Delay:    cfg.Delay,
		Workers:  cfg.Workers,
	}, fetcher, append(base, opts...)...)
}
