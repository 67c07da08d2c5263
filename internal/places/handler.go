package places

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tablevote/internal/group"
	"tablevote/internal/llm"
)

// Handler exposes the restaurant lookup surface directly, outside any
// group: ad-hoc search, single-place details and on-demand review
// summaries for the frontend's detail views.
type Handler struct {
	client     *GoogleClient
	summarizer llm.Summarizer
}

func NewHandler(client *GoogleClient, summarizer llm.Summarizer) *Handler {
	return &Handler{client: client, summarizer: summarizer}
}

// --------------------------------------------------
// POST /api/restaurants/search
// --------------------------------------------------
func (h *Handler) SearchRestaurants(c *gin.Context) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Radius    int      `json:"radius"`
		MinPrice  *int     `json:"min_price"`
		MaxPrice  *int     `json:"max_price"`
		Types     []string `json:"types"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	prefs := group.SearchPreferences{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    req.Radius,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		Types:     req.Types,
	}
	if prefs.Radius == 0 {
		prefs.Radius = 1000
	}

	candidates, err := h.client.Search(c.Request.Context(), prefs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if candidates == nil {
		candidates = []group.Candidate{}
	}

	c.JSON(http.StatusOK, candidates)
}

// --------------------------------------------------
// GET /api/restaurants/:place_id
// --------------------------------------------------
func (h *Handler) GetRestaurantDetails(c *gin.Context) {
	candidate, err := h.client.GetDetails(c.Request.Context(), c.Param("place_id"))
	if err != nil {
		if errors.Is(err, group.ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, candidate)
}

// --------------------------------------------------
// POST /api/restaurants/summarize
// --------------------------------------------------
func (h *Handler) SummarizeRestaurant(c *gin.Context) {
	var req struct {
		RestaurantName string         `json:"restaurant_name"`
		Reviews        []group.Review `json:"reviews"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RestaurantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurant_name is required"})
		return
	}
	if len(req.Reviews) < minReviewsForBlurb {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least 5 reviews are required"})
		return
	}
	if h.summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no summary backend configured"})
		return
	}

	summary, err := h.summarizer.Summarize(c.Request.Context(), req.RestaurantName, req.Reviews)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
