package books

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookhub/pkg/models"
)

// CSVHeader is the column order of the interchange file.
var CSVHeader = []string{"title", "price", "rating", "availability", "category", "image_url"}

// ReadCSV parses the interchange format. Columns are matched by header
// name, so their order may vary; title and price columns are required.
func ReadCSV(r io.Reader) ([]models.Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"title", "price"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("csv header: missing %q column", col)
		}
	}

	out := []models.Book{}
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		rawPrice := valueAt(header, row, "price")
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			return nil, &ValidationError{Row: line, Field: "price", Reason: fmt.Sprintf("%q is not a number", rawPrice)}
		}

		out = append(out, models.Book{
			Title:        valueAt(header, row, "title"),
			Price:        price,
			Rating:       valueAt(header, row, "rating"),
			Availability: valueAt(header, row, "availability"),
			Category:     valueAt(header, row, "category"),
			ImageURL:     valueAt(header, row, "image_url"),
		})
	}
	return out, nil
}

// WriteCSV writes books with a header row, price as plain decimal text.
func WriteCSV(w io.Writer, books []models.Book) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range books {
		record := []string{
			b.Title,
			strconv.FormatFloat(b.Price, 'f', 2, 64),
			b.Rating,
			b.Availability,
			b.Category,
			b.ImageURL,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		// tolerate a UTF-8 BOM written by spreadsheet tools
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
