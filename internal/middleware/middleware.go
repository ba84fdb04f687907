// Package middleware holds gin middleware shared by the API server.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// RequestRecord describes one finished HTTP request. The start time is taken
// when the request enters the chain and travels with the record.
type RequestRecord struct {
	RequestID string
	Method    string
	Route     string
	Path      string
	Status    int
	ClientIP  string
	Start     time.Time
	Latency   time.Duration
}

func (r RequestRecord) LatencyMillis() float64 {
	return float64(r.Latency.Microseconds()) / 1000.0
}

// RecordSink receives a RequestRecord after each request.
type RecordSink interface {
	Record(RequestRecord)
}

// Observe assigns a request id and hands a RequestRecord to every sink once
// the handler chain has finished.
func Observe(sinks ...RecordSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec := RequestRecord{
			RequestID: id,
			Method:    c.Request.Method,
			Route:     route,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			ClientIP:  c.ClientIP(),
			Start:     start,
			Latency:   time.Since(start),
		}
		for _, s := range sinks {
			if s != nil {
				s.Record(rec)
			}
		}
	}
}
