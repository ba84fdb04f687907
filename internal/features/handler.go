package features

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookhub/pkg/models"
)

// BookLister supplies all stored books in ascending id order.
type BookLister interface {
	ListAll(ctx context.Context) ([]models.Book, error)
}

type Handler struct {
	Books   BookLister
	Encoder *Encoder
}

func NewHandler(books BookLister, enc *Encoder) *Handler {
	return &Handler{Books: books, Encoder: enc}
}

// RegisterRoutes mounts the ML endpoints. requireAuth guards predictions.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.GET("/features", h.features)
	rg.GET("/training-data", h.trainingData)
	rg.GET("/category-encoding", h.categoryEncoding)
	rg.POST("/predictions", requireAuth, h.predictions)
}

func (h *Handler) features(c *gin.Context) {
	books, err := h.Books.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, h.Encoder.Features(books))
}

func (h *Handler) trainingData(c *gin.Context) {
	books, err := h.Books.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, h.Encoder.TrainingRows(books))
}

func (h *Handler) categoryEncoding(c *gin.Context) {
	c.JSON(http.StatusOK, h.Encoder.Categories())
}

// predictions only echoes the payload back; no model runs here.
func (h *Handler) predictions(c *gin.Context) {
	var payload any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "prediction received", "data": payload})
}
