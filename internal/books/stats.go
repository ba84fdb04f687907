package books

import (
	"context"
	"fmt"
	"math"

	"bookhub/pkg/models"
)

const unknownLabel = "Unknown"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Overview is safe on an empty table: zero count, zero average and an
// empty (non-nil) rating map.
func (r *Repo) Overview(ctx context.Context) (models.Overview, error) {
	out := models.Overview{RatingDistribution: map[string]int{}}

	var avg float64
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(price), 0) FROM books
	`).Scan(&out.TotalBooks, &avg); err != nil {
		return models.Overview{}, fmt.Errorf("overview totals: %w", err)
	}
	out.AvgPrice = round2(avg)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(rating, ''), ?) AS r, COUNT(*)
		FROM books
		GROUP BY r
	`, unknownLabel)
	if err != nil {
		return models.Overview{}, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rating string
			n      int
		)
		if err := rows.Scan(&rating, &n); err != nil {
			return models.Overview{}, fmt.Errorf("rating distribution scan: %w", err)
		}
		out.RatingDistribution[rating] = n
	}
	if err := rows.Err(); err != nil {
		return models.Overview{}, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// CategoryStats groups by category (empty as "Unknown"), largest first and
// alphabetical among equal counts.
func (r *Repo) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), ?) AS c, COUNT(*) AS n, AVG(price)
		FROM books
		GROUP BY c
		ORDER BY n DESC, c ASC
	`, unknownLabel)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	out := []models.CategoryStat{}
	for rows.Next() {
		var s models.CategoryStat
		if err := rows.Scan(&s.Category, &s.TotalBooks, &s.AvgPrice); err != nil {
			return nil, fmt.Errorf("category stats scan: %w", err)
		}
		s.AvgPrice = round2(s.AvgPrice)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
