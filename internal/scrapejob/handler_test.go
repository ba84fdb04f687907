package scrapejob

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookhub/internal/auth"
	"bookhub/internal/scraper"
	"bookhub/pkg/models"
)

func newTestRouter(t *testing.T, c *fakeCrawler) (*gin.Engine, *Runner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := newRunner(c, &fakeLoader{}, &recorder{})
	t.Cleanup(r.Close)

	allow := func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "user-1"})
		c.Next()
	}
	router := gin.New()
	NewHandler(r, nil).RegisterRoutes(router.Group("/scraping"), allow)
	return router, r
}

func TestTriggerBodies(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
		wantMax  int
	}{
		{name: "no body", wantCode: http.StatusAccepted, wantMax: 50},
		{name: "chunked empty body", chunked: true, wantCode: http.StatusAccepted, wantMax: 50},
		{name: "explicit pages", body: `{"max_pages":3}`, wantCode: http.StatusAccepted, wantMax: 3},
		{name: "chunked explicit pages", body: `{"max_pages":4}`, chunked: true, wantCode: http.StatusAccepted, wantMax: 4},
		{name: "invalid json", body: `{"max_pages":`, wantCode: http.StatusBadRequest},
		{name: "negative pages", body: `{"max_pages":-1}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCrawler{result: scraper.Result{Books: []models.Book{{Title: "a", Price: 1}, {Title: "b", Price: 2}}}}
			router, runner := newTestRouter(t, c)

			req := httptest.NewRequest(http.MethodPost, "/scraping/trigger", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.chunked {
				req.ContentLength = -1
				req.TransferEncoding = []string{"chunked"}
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			runner.Wait()
			if tt.wantCode != http.StatusAccepted {
				_, ok := runner.Status()
				assert.False(t, ok)
				return
			}

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "user-1", resp["triggered_by_user_id"])
			assert.Equal(t, tt.wantMax, c.gotMax)
		})
	}
}

func TestStatusAfterRun(t *testing.T) {
	c := &fakeCrawler{result: scraper.Result{Books: []models.Book{{Title: "a", Price: 1}, {Title: "b", Price: 2}}}}
	router, runner := newTestRouter(t, c)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scraping/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scraping/trigger", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	runner.Wait()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scraping/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var job Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, StatusSucceeded, job.Status)
	assert.Equal(t, "user-1", job.TriggeredBy)
}
