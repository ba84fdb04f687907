package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	records []RequestRecord
}

func (c *captureSink) Record(r RequestRecord) { c.records = append(c.records, r) }

func TestObserveRecordsRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &captureSink{}

	r := gin.New()
	r.Use(Observe(sink, nil))
	r.GET("/books/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/7", nil))

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "/books/:id", rec.Route)
	assert.Equal(t, "/books/7", rec.Path)
	assert.Equal(t, http.StatusTeapot, rec.Status)
	assert.NotEmpty(t, rec.RequestID)
	assert.Equal(t, rec.RequestID, w.Header().Get(HeaderRequestID))
	assert.False(t, rec.Start.IsZero())
}

func TestObserveKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &captureSink{}

	r := gin.New()
	r.Use(Observe(sink))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "abc-123", sink.records[0].RequestID)
	assert.Equal(t, "unmatched", sink.records[0].Route)
	assert.Equal(t, http.StatusNotFound, sink.records[0].Status)
}
