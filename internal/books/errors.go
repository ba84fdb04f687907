package books

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("book not found")

// ValidationError rejects a whole load batch before anything is written.
// Row is 1-based within the batch (or the CSV data rows).
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Reason)
}
