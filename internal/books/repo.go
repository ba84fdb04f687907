package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookhub/pkg/models"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const bookColumns = `id, title, price, rating, availability, category, image_url`

const defaultTopRatedLimit = 10

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// SearchQuery filters are case-insensitive substrings, AND'ed when both set.
type SearchQuery struct {
	Title    string
	Category string
}

// PriceRange bounds are inclusive; nil leaves that side open.
type PriceRange struct {
	Min *float64
	Max *float64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(s rowScanner) (models.Book, error) {
	var (
		b            models.Book
		rating       sql.NullString
		availability sql.NullString
		category     sql.NullString
		imageURL     sql.NullString
	)
	if err := s.Scan(&b.ID, &b.Title, &b.Price, &rating, &availability, &category, &imageURL); err != nil {
		return models.Book{}, err
	}
	b.Rating = rating.String
	b.Availability = availability.String
	b.Category = category.String
	b.ImageURL = imageURL.String
	return b, nil
}

func (r *Repo) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ListAll returns every book in ascending id order.
func (r *Repo) ListAll(ctx context.Context) ([]models.Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id ASC`)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Book{}, ErrNotFound
		}
		return models.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (r *Repo) Search(ctx context.Context, q SearchQuery) ([]models.Book, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(q.Title); s != "" {
		where = append(where, `LOWER(title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(s))
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		where = append(where, `LOWER(category) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(s))
	}

	sqlStr := `SELECT ` + bookColumns + ` FROM books`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY id ASC"
	return r.queryBooks(ctx, sqlStr, args...)
}

func (r *Repo) InPriceRange(ctx context.Context, pr PriceRange) ([]models.Book, error) {
	var (
		where []string
		args  []any
	)
	if pr.Min != nil {
		where = append(where, "price >= ?")
		args = append(args, *pr.Min)
	}
	if pr.Max != nil {
		where = append(where, "price <= ?")
		args = append(args, *pr.Max)
	}

	sqlStr := `SELECT ` + bookColumns + ` FROM books`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY price ASC, id ASC"
	return r.queryBooks(ctx, sqlStr, args...)
}

// TopRated returns "Five" books, cheapest first. limit <= 0 means 10.
func (r *Repo) TopRated(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = defaultTopRatedLimit
	}
	return r.queryBooks(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE rating = 'Five'
		ORDER BY price ASC, id ASC
		LIMIT ?
	`, limit)
}

// Categories lists distinct non-empty categories alphabetically.
func (r *Repo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM books
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("categories query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("categories scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Ping reports whether the store answers.
func (r *Repo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

func existsByKey(ctx context.Context, q querier, key models.DedupKey) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `
		SELECT 1 FROM books
		WHERE title = ? AND category IS ? AND price = ?
		LIMIT 1
	`, key.Title, nullString(key.Category), key.Price).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %q: %w", key.Title, err)
	}
	return true, nil
}

func insertBook(ctx context.Context, q querier, b models.Book) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO books (title, price, rating, availability, category, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.Title, b.Price, nullString(b.Rating), nullString(b.Availability), nullString(b.Category), nullString(b.ImageURL))
	if err != nil {
		return 0, fmt.Errorf("insert %q: %w", b.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert id: %w", err)
	}
	return id, nil
}

func deleteAll(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("truncate books: %w", err)
	}
	return nil
}
