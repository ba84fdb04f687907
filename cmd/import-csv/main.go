package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
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
		csvPath    = flag.String("csv", "data/books.csv", "input CSV path")
		truncate   = flag.Bool("truncate", false, "clear the catalog before loading")
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

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("open csv failed", zap.String("path", *csvPath), zap.Error(err))
	}
	records, err := books.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		logger.Fatal("read csv failed", zap.String("path", *csvPath), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.DB.Path}, logger)
	defer db.Close()

	res, err := books.NewLoader(db, logger, nil).Load(ctx, records, *truncate)
	if err != nil {
		logger.Fatal("load failed", zap.Error(err))
	}
	fmt.Printf("imported %s: inserted=%d skipped=%d\n", *csvPath, res.Inserted, res.Skipped)
}
