package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError is returned once every attempt for a URL has failed.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int // last non-2xx status, 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError marks a detail page missing a mandatory field.
type ParseError struct {
	URL   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s of %s: %v", e.Field, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errMissing = errors.New("missing")
	errStatus  = errors.New("unexpected status")
)

// Classify buckets a fetch failure for metric labels.
func Classify(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return "status"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "connection"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	return "other"
}
