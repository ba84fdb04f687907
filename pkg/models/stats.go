package models

type Overview struct {
	TotalBooks         int            `json:"total_books"`
	AvgPrice           float64        `json:"avg_price"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

type CategoryStat struct {
	Category   string  `json:"category"`
	TotalBooks int     `json:"total_books"`
	AvgPrice   float64 `json:"avg_price"`
}

// BookFeatures is the compact ML view of a book.
type BookFeatures struct {
	BookID              int64   `json:"book_id"`
	Price               float64 `json:"price"`
	CategoryEncoded     int     `json:"category_encoded"`
	AvailabilityEncoded int     `json:"availability_encoded"`
	RatingEncoded       int     `json:"rating_encoded"`
}

// TrainingRow carries raw values next to their encodings.
type TrainingRow struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Price               float64 `json:"price"`
	Category            string  `json:"category"`
	CategoryEncoded     int     `json:"category_encoded"`
	Availability        string  `json:"availability"`
	AvailabilityEncoded int     `json:"availability_encoded"`
	Rating              string  `json:"rating"`
	RatingEncoded       int     `json:"rating_encoded"`
}
