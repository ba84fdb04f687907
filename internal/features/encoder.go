// Package features turns stored books into small-integer feature vectors.
package features

import (
	"strings"
	"sync"

	"bookhub/pkg/models"
)

const inStock = "In stock"

// EncodeRating maps One..Five to 1..5; anything else is 0.
func EncodeRating(r string) int {
	return models.RatingValue(r)
}

// EncodeAvailability is 1 when the text mentions "In stock", else 0.
func EncodeAvailability(a string) int {
	if strings.Contains(a, inStock) {
		return 1
	}
	return 0
}

// Encoder owns one category numbering session. Categories are numbered in
// first-seen order starting at 1 and the numbering only grows; an empty
// category is always 0. Safe for concurrent use.
type Encoder struct {
	mu         sync.Mutex
	categories map[string]int
}

func NewEncoder() *Encoder {
	return &Encoder{categories: make(map[string]int)}
}

func (e *Encoder) EncodeCategory(c string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeCategoryLocked(c)
}

func (e *Encoder) encodeCategoryLocked(c string) int {
	if c == "" {
		return 0
	}
	if n, ok := e.categories[c]; ok {
		return n
	}
	n := len(e.categories) + 1
	e.categories[c] = n
	return n
}

// Categories returns a copy of the current numbering.
func (e *Encoder) Categories() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int, len(e.categories))
	for k, v := range e.categories {
		out[k] = v
	}
	return out
}

// Features encodes books in the order given. The batch is encoded under one
// lock so categories first seen in it get consecutive numbers.
func (e *Encoder) Features(books []models.Book) []models.BookFeatures {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.BookFeatures, 0, len(books))
	for _, b := range books {
		out = append(out, models.BookFeatures{
			BookID:              b.ID,
			Price:               b.Price,
			CategoryEncoded:     e.encodeCategoryLocked(b.Category),
			AvailabilityEncoded: EncodeAvailability(b.Availability),
			RatingEncoded:       EncodeRating(b.Rating),
		})
	}
	return out
}

// TrainingRows is Features with the raw values kept alongside.
func (e *Encoder) TrainingRows(books []models.Book) []models.TrainingRow {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.TrainingRow, 0, len(books))
	for _, b := range books {
		out = append(out, models.TrainingRow{
			ID:                  b.ID,
			Title:               b.Title,
			Price:               b.Price,
			Category:            b.Category,
			CategoryEncoded:     e.encodeCategoryLocked(b.Category),
			Availability:        b.Availability,
			AvailabilityEncoded: EncodeAvailability(b.Availability),
			Rating:              b.Rating,
			RatingEncoded:       EncodeRating(b.Rating),
		})
	}
	return out
}
