package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookhub/internal/auth"
	"bookhub/internal/books"
	"bookhub/internal/events"
	"bookhub/internal/features"
	"bookhub/internal/logging"
	"bookhub/internal/metrics"
	"bookhub/internal/scrapejob"
	"bookhub/internal/scraper"
	"bookhub/internal/server"
	"bookhub/pkg/database"
	"bookhub/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json, toml)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.MustOpen(database.Config{Path: cfg.DB.Path}, logger)
	defer db.Close()

	m := metrics.New()
	hub := events.NewHub(logger)

	loader := books.NewLoader(db, logger, m)
	runner := scrapejob.NewRunner(func(onPage func(scraper.Progress)) scrapejob.Crawler {
		return scraper.FromConfig(cfg.Scraper, logger, m, scraper.WithProgress(onPage))
	}, loader, hub, logger, cfg.Scraper.MaxPages)

	router := server.New(server.Deps{
		DB:      db,
		Logger:  logger,
		Metrics: m,
		Tokens: auth.TokenService{
			Secret:     []byte(cfg.Auth.JWTSecret),
			Issuer:     cfg.Auth.JWTIssuer,
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
		},
		// one encoding session per process
		Encoder: features.NewEncoder(),
		Runner:  runner,
		Hub:     hub,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API server listening", zap.String("addr", cfg.Server.Addr), zap.String("db", cfg.DB.Path))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
	runner.Close()
	hub.Close()
	logger.Info("server stopped")
}
