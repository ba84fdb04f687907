package books

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"bookhub/internal/metrics"
	"bookhub/pkg/models"
)

type LoadResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Loader writes scraped or imported books into the store, skipping rows
// whose (title, category, price) already exists.
type Loader struct {
	DB      *sql.DB
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewLoader(db *sql.DB, logger *zap.Logger, m *metrics.Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{DB: db, Logger: logger, Metrics: m}
}

// Load validates the whole batch, then in a single transaction optionally
// empties the table and inserts the records in input order. Later exact
// duplicates within the batch count as skipped. A validation failure
// returns *ValidationError and leaves the store untouched.
func (l *Loader) Load(ctx context.Context, records []models.Book, truncate bool) (LoadResult, error) {
	clean := make([]models.Book, 0, len(records))
	for i, b := range records {
		nb, err := normalize(b)
		if err != nil {
			err.Row = i + 1
			return LoadResult{}, err
		}
		clean = append(clean, nb)
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return LoadResult{}, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if truncate {
		if err := deleteAll(ctx, tx); err != nil {
			return LoadResult{}, err
		}
	}

	var res LoadResult
	for _, b := range clean {
		exists, err := existsByKey(ctx, tx, b.Key())
		if err != nil {
			return LoadResult{}, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := insertBook(ctx, tx, b); err != nil {
			return LoadResult{}, err
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return LoadResult{}, fmt.Errorf("commit load: %w", err)
	}

	l.Metrics.AddLoaded(res.Inserted, res.Skipped)
	l.Logger.Info("books loaded",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Bool("truncate", truncate),
	)
	return res, nil
}

func normalize(b models.Book) (models.Book, *ValidationError) {
	b.ID = 0
	b.Title = strings.TrimSpace(b.Title)
	b.Category = strings.TrimSpace(b.Category)
	b.Rating = strings.TrimSpace(b.Rating)
	if models.RatingValue(b.Rating) == 0 {
		// outside the star vocabulary; reported as "Unknown"
		b.Rating = ""
	}
	b.Availability = strings.TrimSpace(b.Availability)
	b.ImageURL = strings.TrimSpace(b.ImageURL)

	if b.Title == "" {
		return b, &ValidationError{Field: "title", Reason: "is required"}
	}
	if math.IsNaN(b.Price) || math.IsInf(b.Price, 0) {
		return b, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	if b.Price < 0 {
		return b, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return b, nil
}
