package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"bookhub/internal/books"
	"bookhub/internal/logging"
	"bookhub/internal/metrics"
	"bookhub/internal/scraper"
	"bookhub/internal/warehouse"
	"bookhub/pkg/database"
	"bookhub/pkg/models"
	"bookhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config file")
		out        = flag.String("out", "data/books.csv", "output CSV path (empty to skip)")
		maxPages   = flag.Int("max-pages", 0, "listing pages to crawl, overrides scraper.max_pages")
		load       = flag.Bool("load", false, "also load the results into the database")
		truncate   = flag.Bool("truncate", false, "clear the catalog before loading (with --load)")
	)
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	crawler := scraper.FromConfig(cfg.Scraper, logger, m, scraper.WithProgress(func(p scraper.Progress) {
		logger.Info("page done", zap.Int("page", p.Page), zap.Int("links", p.Links), zap.Int("collected", p.Collected))
	}))

	res, err := crawler.Crawl(ctx, *maxPages)
	if err != nil {
		// keep what we have; an interrupted crawl is still worth saving
		logger.Warn("crawl interrupted", zap.Error(err), zap.Int("collected", len(res.Books)))
	}

	if *out != "" {
		if err := writeCSV(*out, res.Books); err != nil {
			logger.Fatal("write csv failed", zap.String("path", *out), zap.Error(err))
		}
		logger.Info("csv written", zap.String("path", *out), zap.Int("rows", len(res.Books)))
	}

	if *load && len(res.Books) > 0 {
		db := database.MustOpen(database.Config{Path: cfg.DB.Path}, logger)
		defer db.Close()

		loaded, err := books.NewLoader(db, logger, m).Load(context.Background(), res.Books, *truncate)
		if err != nil {
			logger.Fatal("load failed", zap.Error(err))
		}
		fmt.Printf("loaded: inserted=%d skipped=%d\n", loaded.Inserted, loaded.Skipped)
	}

	if cfg.Warehouse.DSN != "" && len(res.Books) > 0 {
		if err := mirror(context.Background(), cfg.Warehouse, res.Books); err != nil {
			logger.Error("warehouse mirror failed", zap.Error(err))
		}
	}

	fmt.Printf("pages=%d books=%d skipped=%d duplicates=%d stop=%s\n",
		res.Pages, len(res.Books), res.Skipped, res.Duplicates, res.StopReason)
}

func writeCSV(path string, items []models.Book) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := books.WriteCSV(f, items); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func mirror(ctx context.Context, cfg utils.WarehouseConfig, items []models.Book) error {
	sink, err := warehouse.New(ctx, warehouse.Config{DSN: cfg.DSN, Table: cfg.Table})
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		return err
	}
	res, err := sink.Write(ctx, items)
	if err != nil {
		return err
	}
	fmt.Printf("warehouse: written=%d ignored=%d\n", res.Written, res.Ignored)
	return nil
}
