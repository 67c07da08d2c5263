package group

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --------------------------------------------------
// POST /api/groups?member_id=...
// --------------------------------------------------
func (h *Handler) CreateGroup(c *gin.Context) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Radius    int      `json:"radius"`
		MinPrice  *int     `json:"min_price"`
		MaxPrice  *int     `json:"max_price"`
		Types     []string `json:"types"`
		GroupName string   `json:"group_name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	prefs := SearchPreferences{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    req.Radius,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		Types:     req.Types,
	}

	result, err := h.service.CreateGroup(
		c.Request.Context(),
		prefs,
		req.GroupName,
		c.GetString("memberID"),
	)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// --------------------------------------------------
// GET /api/groups/:group_id
// --------------------------------------------------
func (h *Handler) GetGroup(c *gin.Context) {
	info, err := h.service.GetGroupInfo(
		c.Request.Context(),
		c.Param("group_id"),
		c.GetString("memberID"),
	)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// --------------------------------------------------
// GET /api/groups/:group_id/candidates?start&limit
// --------------------------------------------------
func (h *Handler) ListCandidates(c *gin.Context) {
	start, err := intQuery(c, "start", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	limit, err := intQuery(c, "limit", DefaultListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	candidates, err := h.service.ListCandidates(
		c.Request.Context(),
		c.Param("group_id"),
		c.GetString("memberID"),
		start,
		limit,
	)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, candidates)
}

// --------------------------------------------------
// POST /api/groups/:group_id/vote?member_id=...
// --------------------------------------------------
func (h *Handler) SubmitVote(c *gin.Context) {
	var req struct {
		CandidateID string    `json:"candidate_id"`
		Value       VoteValue `json:"value"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.service.SubmitVote(
		c.Request.Context(),
		c.Param("group_id"),
		c.GetString("memberID"),
		req.CandidateID,
		req.Value,
	)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --------------------------------------------------
// POST /api/groups/:group_id/finish?member_id=...
// --------------------------------------------------
func (h *Handler) FinishGroup(c *gin.Context) {
	results, err := h.service.FinishGroup(
		c.Request.Context(),
		c.Param("group_id"),
		c.GetString("memberID"),
	)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

// --------------------------------------------------
// GET /api/groups/:group_id/results
// --------------------------------------------------
func (h *Handler) GetResults(c *gin.Context) {
	results, err := h.service.GetResults(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrCandidateNotFound),
		errors.Is(err, ErrResultsNotReady):
		return http.StatusNotFound
	case errors.Is(err, ErrVotingClosed):
		return http.StatusConflict
	case errors.Is(err, ErrNotOrganizer):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
