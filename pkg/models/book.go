package models

// Book is one catalog entry. It is produced by the scraper (ID == 0),
// persisted by the loader and served read-only by the API afterwards.
//
// Only Price is required to be numeric; the remaining text fields may be
// empty, which read paths report as "Unknown" in aggregates.
type Book struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Rating       string  `json:"rating"`
	Availability string  `json:"availability"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"image_url"`
}

// DedupKey is the (title, category, price) triple used to avoid duplicate
// rows at load time.
type DedupKey struct {
	Title    string
	Category string
	Price    float64
}

func (b Book) Key() DedupKey {
	return DedupKey{Title: b.Title, Category: b.Category, Price: b.Price}
}

// RatingWords is the star-rating vocabulary in ascending order.
var RatingWords = [...]string{"One", "Two", "Three", "Four", "Five"}

// RatingValue returns 1-5 for a known rating word and 0 otherwise.
func RatingValue(word string) int {
	for i, w := range RatingWords {
		if w == word {
			return i + 1
		}
	}
	return 0
}
