package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"bookhub/internal/books"
	"bookhub/internal/logging"
	"bookhub/pkg/database"
	"bookhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config file")
		outPath    = flag.String("out", "data/books_export.csv", "output CSV path")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.DB.Path}, logger)
	defer db.Close()

	items, err := books.NewRepo(db).ListAll(ctx)
	if err != nil {
		logger.Fatal("list books failed", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		logger.Fatal("create output dir failed", zap.Error(err))
	}
	f, err := os.Create(*outPath)
	if err != nil {
		logger.Fatal("create output failed", zap.Error(err))
	}
	if err := books.WriteCSV(f, items); err != nil {
		_ = f.Close()
		logger.Fatal("write csv failed", zap.Error(err))
	}
	if err := f.Close(); err != nil {
		logger.Fatal("close output failed", zap.Error(err))
	}
	logger.Info("exported books", zap.String("path", *outPath), zap.Int("rows", len(items)))
}
