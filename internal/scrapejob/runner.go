// Package scrapejob runs crawl-and-load in the background, one at a time.
package scrapejob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookhub/internal/books"
	"bookhub/internal/events"
	"bookhub/internal/scraper"
	"bookhub/pkg/models"
)

var (
	ErrBusy   = errors.New("a scrape is already running")
	ErrClosed = errors.New("runner closed")
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Crawler interface {
	Crawl(ctx context.Context, maxPages int) (scraper.Result, error)
}

type Loader interface {
	Load(ctx context.Context, records []models.Book, truncate bool) (books.LoadResult, error)
}

// CrawlerFactory builds a crawler for one job, wired to its progress hook.
type CrawlerFactory func(onPage func(scraper.Progress)) Crawler

type Request struct {
	MaxPages    int
	Truncate    bool
	TriggeredBy string
}

type Job struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	TriggeredBy string     `json:"triggered_by"`
	MaxPages    int        `json:"max_pages"`
	Truncate    bool       `json:"truncate"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Pages       int        `json:"pages"`
	Collected   int        `json:"collected"`
	Inserted    int        `json:"inserted"`
	Skipped     int        `json:"skipped"`
	StopReason  string     `json:"stop_reason,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type Runner struct {
	newCrawler      CrawlerFactory
	loader          Loader
	events          events.Publisher
	logger          *zap.Logger
	defaultMaxPages int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	last    *Job
	running bool
	closed  bool
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

func NewRunner(newCrawler CrawlerFactory, loader Loader, pub events.Publisher, logger *zap.Logger, defaultMaxPages int) *Runner {
	if pub == nil {
		pub = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMaxPages <= 0 {
		defaultMaxPages = scraper.DefaultMaxPages
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		newCrawler:      newCrawler,
		loader:          loader,
		events:          pub,
		logger:          logger,
		defaultMaxPages: defaultMaxPages,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start launches a job and returns its initial snapshot. It fails with
// ErrBusy while another job is running.
func (r *Runner) Start(req Request) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Job{}, ErrClosed
	}
	if r.running {
		return Job{}, ErrBusy
	}
	if req.MaxPages <= 0 {
		req.MaxPages = r.defaultMaxPages
	}

	job := &Job{
		ID:          uuid.NewString(),
		Status:      StatusRunning,
		TriggeredBy: req.TriggeredBy,
		MaxPages:    req.MaxPages,
		Truncate:    req.Truncate,
		StartedAt:   time.Now().UTC(),
	}
	r.last = job
	r.running = true

	r.wg.Add(1)
	go r.run(job.ID, req)

	return *job, nil
}

// Status returns the most recent job, if any.
func (r *Runner) Status() (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Job{}, false
	}
	return *r.last, true
}

// Wait blocks until no job is running.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels a running job and waits for it to stop.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Runner) update(fn func(j *Job)) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.last)
	return *r.last
}

func (r *Runner) run(jobID string, req Request) {
	defer r.wg.Done()

	log := r.logger.With(zap.String("job_id", jobID))
	log.Info("scrape started", zap.Int("max_pages", req.MaxPages), zap.Bool("truncate", req.Truncate))
	r.events.Publish(events.Event{Type: events.TypeScrapeStarted, JobID: jobID, Data: map[string]any{
		"max_pages":    req.MaxPages,
		"truncate":     req.Truncate,
		"triggered_by": req.TriggeredBy,
	}})

	crawler := r.newCrawler(func(p scraper.Progress) {
		r.update(func(j *Job) {
			j.Pages = p.Page
			j.Collected = p.Collected
		})
		r.events.Publish(events.Event{Type: events.TypeScrapePage, JobID: jobID, Data: p})
	})

	res, err := crawler.Crawl(r.ctx, req.MaxPages)
	if err != nil {
		r.fail(log, jobID, res, err)
		return
	}

	var loaded books.LoadResult
	// an empty crawl must not wipe the catalog
	if len(res.Books) > 0 {
		loaded, err = r.loader.Load(r.ctx, res.Books, req.Truncate)
		if err != nil {
			r.fail(log, jobID, res, err)
			return
		}
	} else {
		log.Warn("scrape collected nothing, skipping load", zap.String("stop_reason", res.StopReason))
	}

	job := r.update(func(j *Job) {
		now := time.Now().UTC()
		j.Status = StatusSucceeded
		j.FinishedAt = &now
		j.Pages = res.Pages
		j.Collected = len(res.Books)
		j.StopReason = res.StopReason
		j.Inserted = loaded.Inserted
		j.Skipped = loaded.Skipped
		r.running = false
	})
	log.Info("scrape finished",
		zap.Int("collected", job.Collected),
		zap.Int("inserted", job.Inserted),
		zap.Int("skipped", job.Skipped),
		zap.String("stop_reason", job.StopReason),
	)
	r.events.Publish(events.Event{Type: events.TypeScrapeDone, JobID: jobID, Data: job})
}

func (r *Runner) fail(log *zap.Logger, jobID string, res scraper.Result, err error) {
	job := r.update(func(j *Job) {
		now := time.Now().UTC()
		j.Status = StatusFailed
		j.FinishedAt = &now
		j.Pages = res.Pages
		j.Collected = len(res.Books)
		j.StopReason = res.StopReason
		j.Error = err.Error()
		r.running = false
	})
	log.Error("scrape failed", zap.Error(err))
	r.events.Publish(events.Event{Type: events.TypeScrapeFailed, JobID: jobID, Data: job})
}
