package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bookhub/internal/metrics"
	"bookhub/pkg/models"
)

const (
	DefaultMaxPages = 50
	DefaultDelay    = 300 * time.Millisecond
)

type CrawlerConfig struct {
	BaseURL  string
	MaxPages int
	Delay    time.Duration // minimum spacing between detail fetches
	Workers  int
}

// Progress is reported after every listing page that yielded links.
type Progress struct {
	Page      int `json:"page"`
	Links     int `json:"links"`
	Collected int `json:"collected"`
	Skipped   int `json:"skipped"`
}

// Stop reasons reported in Result.
const (
	StopMaxPages   = "max_pages"
	StopEmptyPage  = "empty_page"
	StopFetchError = "fetch_error"
	StopParseError = "parse_error"
	StopCanceled   = "canceled"
)

type Result struct {
	Books      []models.Book
	Pages      int // listing pages fetched successfully
	Skipped    int // detail pages that failed to fetch or parse
	Duplicates int
	StopReason string
}

// Crawler walks catalogue/page-N.html listings and collects book details.
type Crawler struct {
	cfg     CrawlerConfig
	getter  Getter
	logger  *zap.Logger
	metrics *metrics.Metrics
	onPage  func(Progress)
}

type CrawlerOption func(*Crawler)

func WithCrawlLogger(l *zap.Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = l }
}

func WithCrawlMetrics(m *metrics.Metrics) CrawlerOption {
	return func(c *Crawler) { c.metrics = m }
}

// WithProgress registers a callback invoked from the crawl goroutine.
func WithProgress(fn func(Progress)) CrawlerOption {
	return func(c *Crawler) { c.onPage = fn }
}

func NewCrawler(cfg CrawlerConfig, getter Getter, opts ...CrawlerOption) *Crawler {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}

	c := &Crawler{cfg: cfg, getter: getter, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Crawler) catalogueBase() string {
	return c.cfg.BaseURL + "catalogue/"
}

func (c *Crawler) pageURL(page int) string {
	return fmt.Sprintf("%spage-%d.html", c.catalogueBase(), page)
}

// Crawl visits listing pages 1..maxPages (the configured cap when maxPages
// <= 0). A failed listing fetch or an empty listing ends the crawl and the
// books gathered so far are returned without error. Per-item failures are
// logged and skipped. Only cancellation of ctx yields an error, alongside
// the partial result.
func (c *Crawler) Crawl(ctx context.Context, maxPages int) (Result, error) {
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}

	// every link of the crawl is kept; the page cap bounds its size
	visited := make(map[string]struct{})

	limit := rate.Inf
	if c.cfg.Delay > 0 {
		limit = rate.Every(c.cfg.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	res := Result{Books: []models.Book{}, StopReason: StopMaxPages}
	start := time.Now()

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			res.StopReason = StopCanceled
			return res, err
		}

		pageURL := c.pageURL(page)
		body, err := c.getter.Fetch(ctx, pageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.StopReason = StopCanceled
				return res, ctxErr
			}
			c.metrics.IncPage(Classify(err))
			c.logger.Warn("listing fetch failed, stopping crawl",
				zap.Int("page", page), zap.String("url", pageURL), zap.Error(err))
			res.StopReason = StopFetchError
			break
		}

		links, err := ParseListing(body, c.catalogueBase())
		if err != nil {
			c.metrics.IncPage("parse_error")
			c.logger.Warn("listing parse failed, stopping crawl",
				zap.Int("page", page), zap.String("url", pageURL), zap.Error(err))
			res.StopReason = StopParseError
			break
		}
		if len(links) == 0 {
			c.metrics.IncPage("empty")
			c.logger.Info("empty listing, end of catalogue", zap.Int("page", page))
			res.StopReason = StopEmptyPage
			break
		}
		c.metrics.IncPage("ok")
		res.Pages++

		fresh := make([]string, 0, len(links))
		for _, link := range links {
			if _, seen := visited[link]; seen {
				res.Duplicates++
				c.metrics.IncItem("duplicate")
				continue
			}
			visited[link] = struct{}{}
			fresh = append(fresh, link)
		}

		books, skipped, err := c.details(ctx, limiter, fresh)
		res.Books = append(res.Books, books...)
		res.Skipped += skipped
		if err != nil {
			res.StopReason = StopCanceled
			return res, err
		}

		if c.onPage != nil {
			c.onPage(Progress{Page: page, Links: len(links), Collected: len(res.Books), Skipped: res.Skipped})
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("pages", res.Pages),
		zap.Int("books", len(res.Books)),
		zap.Int("skipped", res.Skipped),
		zap.Int("duplicates", res.Duplicates),
		zap.String("stop_reason", res.StopReason),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// details fetches and parses urls with up to cfg.Workers in flight. Output
// keeps the order of urls regardless of completion order.
func (c *Crawler) details(ctx context.Context, limiter *rate.Limiter, urls []string) ([]models.Book, int, error) {
	slots := make([]*models.Book, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, u := range urls {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			body, err := c.getter.Fetch(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.metrics.IncItem(Classify(err))
				c.logger.Warn("detail fetch failed, skipping", zap.String("url", u), zap.Error(err))
				return nil
			}
			book, err := ParseDetail(body, c.cfg.BaseURL, u)
			if err != nil {
				c.metrics.IncItem("parse_error")
				c.logger.Warn("detail parse failed, skipping", zap.String("url", u), zap.Error(err))
				return nil
			}
			c.metrics.IncItem("ok")
			slots[i] = &book
			return nil
		})
	}
	err := g.Wait()

	books := make([]models.Book, 0, len(urls))
	skipped := 0
	for _, b := range slots {
		if b == nil {
			skipped++
			continue
		}
		books = append(books, *b)
	}
	if err != nil {
		// unfinished slots are not failures
		return books, 0, err
	}
	return books, skipped, nil
}
