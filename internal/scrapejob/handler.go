package scrapejob

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookhub/internal/auth"
	"bookhub/internal/events"
)

type Handler struct {
	Runner *Runner
	Hub    *events.Hub
}

func NewHandler(runner *Runner, hub *events.Hub) *Handler {
	return &Handler{Runner: runner, Hub: hub}
}

// RegisterRoutes mounts /trigger and /status behind requireAuth; the
// event stream is public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/trigger", requireAuth, h.trigger)
	rg.GET("/status", requireAuth, h.status)
	if h.Hub != nil {
		rg.GET("/events", events.WSHandler(h.Hub))
	}
}

type triggerReq struct {
	MaxPages int  `json:"max_pages"`
	Truncate bool `json:"truncate"`
}

func (h *Handler) trigger(c *gin.Context) {
	var req triggerReq
	// an empty body, chunked or not, means defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.MaxPages < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_pages must be >= 0"})
		return
	}

	var userID string
	if claims := auth.MustGetClaims(c); claims != nil {
		userID = claims.UserID
	}

	job, err := h.Runner.Start(Request{MaxPages: req.MaxPages, Truncate: req.Truncate, TriggeredBy: userID})
	switch {
	case errors.Is(err, ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "scrape already running"})
		return
	case errors.Is(err, ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trigger failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":              "scrape started",
		"job_id":               job.ID,
		"triggered_by_user_id": userID,
		"job":                  job,
	})
}

func (h *Handler) status(c *gin.Context) {
	job, ok := h.Runner.Status()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scrape has run"})
		return
	}
	c.JSON(http.StatusOK, job)
}
