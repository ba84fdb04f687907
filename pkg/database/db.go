package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type Config struct {
	Path string
}

func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	// WAL lets readers keep going while the loader holds a write
	// transaction; the busy timeout is per connection, so it rides on the DSN.
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// MustOpen opens the database and applies the schema, exiting the process on failure.
func MustOpen(cfg Config, logger *zap.Logger) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		logger.Fatal("failed to open db", zap.String("path", cfg.Path), zap.Error(err))
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		logger.Fatal("db schema failed", zap.Error(err))
	}
	return db
}
