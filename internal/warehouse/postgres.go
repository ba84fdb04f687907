// Package warehouse mirrors scraped books into an optional Postgres table.
package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookhub/pkg/models"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// Sink writes books with INSERT ... ON CONFLICT DO NOTHING on the
// (title, category, price) key, so re-running a scrape is harmless.
type Sink struct {
	pool  pool
	table string
}

type Result struct {
	Written int
	Ignored int
}

func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an existing pool (tests use pgxmock).
func NewWithPool(p pool, table string) (*Sink, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "books"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Sink{pool: p, table: table}, nil
}

func (s *Sink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the mirror table when missing. Category is NOT NULL
// with an empty default so the unique key also covers uncategorized rows.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	rating TEXT NOT NULL DEFAULT '',
	availability TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (title, category, price)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Write inserts books in one transaction and reports how many were new.
func (s *Sink) Write(ctx context.Context, books []models.Book) (Result, error) {
	var res Result
	if len(books) == 0 {
		return res, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin warehouse tx: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (title, price, rating, availability, category, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (title, category, price) DO NOTHING`, s.table)

	for _, b := range books {
		tag, err := tx.Exec(ctx, query, b.Title, b.Price, b.Rating, b.Availability, b.Category, b.ImageURL)
		if err != nil {
			_ = tx.Rollback(ctx)
			return Result{}, fmt.Errorf("insert %q: %w", b.Title, err)
		}
		if tag.RowsAffected() > 0 {
			res.Written++
		} else {
			res.Ignored++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit warehouse tx: %w", err)
	}
	return res, nil
}
