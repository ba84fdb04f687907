// Package server assembles the gin engine for the catalog API.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookhub/internal/auth"
	"bookhub/internal/books"
	"bookhub/internal/events"
	"bookhub/internal/features"
	"bookhub/internal/logging"
	"bookhub/internal/metrics"
	"bookhub/internal/middleware"
	"bookhub/internal/scrapejob"
)

const APIPrefix = "/api/v1"

// Deps are the collaborators built in main. Runner and Hub may be nil, in
// which case the scraping routes are not mounted.
type Deps struct {
	DB      *sql.DB
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Tokens  auth.TokenService
	Encoder *features.Encoder
	Runner  *scrapejob.Runner
	Hub     *events.Hub
}

func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Encoder == nil {
		d.Encoder = features.NewEncoder()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Observe(logging.RequestSink{Logger: d.Logger}, d.Metrics))

	// avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := router.Group(APIPrefix)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/ready", readyHandler(d.DB, d.Hub))

	api.GET("/metrics", func(c *gin.Context) {
		sum, err := d.Metrics.Summary()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "metrics unavailable"})
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	authRepo := auth.NewRepo(d.DB)
	requireAuth := auth.AuthMiddleware(d.Tokens, authRepo)
	auth.NewHandler(authRepo, d.Tokens).RegisterRoutes(api.Group("/auth"))

	api.GET("/users/me", requireAuth, func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
		})
	})

	bookRepo := books.NewRepo(d.DB)
	books.NewHandler(bookRepo).RegisterRoutes(api)
	features.NewHandler(bookRepo, d.Encoder).RegisterRoutes(api.Group("/ml"), requireAuth)

	if d.Runner != nil {
		scrapejob.NewHandler(d.Runner, d.Hub).RegisterRoutes(api.Group("/scraping"), requireAuth)
	}

	return router
}

func readyHandler(db *sql.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var wsClients int
		if hub != nil {
			wsClients = hub.Stats().WSClients
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": wsClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": wsClients,
		})
	}
}
