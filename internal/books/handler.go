package books

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes mounts the catalog read endpoints on the API root group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	b := rg.Group("/books")
	b.GET("", h.list)                   // GET /books
	b.GET("/search", h.search)          // GET /books/search?title=&category=
	b.GET("/top-rated", h.topRated)     // GET /books/top-rated?limit=
	b.GET("/price-range", h.priceRange) // GET /books/price-range?min=&max=
	b.GET("/:id", h.getByID)            // GET /books/:id

	rg.GET("/categories", h.categories)

	s := rg.Group("/stats")
	s.GET("/overview", h.overview)
	s.GET("/categories", h.categoryStats)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	b, err := h.Repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) search(c *gin.Context) {
	items, err := h.Repo.Search(c.Request.Context(), SearchQuery{
		Title:    c.Query("title"),
		Category: c.Query("category"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) topRated(c *gin.Context) {
	limit := parseInt(c.Query("limit"), defaultTopRatedLimit)
	items, err := h.Repo.TopRated(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "top rated failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) priceRange(c *gin.Context) {
	var pr PriceRange
	var err error
	if pr.Min, err = parseOptionalFloat(c.Query("min")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min must be a number"})
		return
	}
	if pr.Max, err = parseOptionalFloat(c.Query("max")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a number"})
		return
	}

	items, err := h.Repo.InPriceRange(c.Request.Context(), pr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "price range failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) categories(c *gin.Context) {
	cats, err := h.Repo.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "categories failed"})
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) overview(c *gin.Context) {
	o, err := h.Repo.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) categoryStats(c *gin.Context) {
	stats, err := h.Repo.CategoryStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, strconv.ErrSyntax
	}
	return &v, nil
}
