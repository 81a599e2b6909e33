package matching

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/onboard-api/internal/model"
	"github.com/jwalitptl/onboard-api/internal/service/matching"
	"github.com/jwalitptl/onboard-api/pkg/errors"
)

type Handler struct {
	service *matching.Service
}

func NewHandler(service *matching.Service) *Handler {
	return &Handler{service: service}
}

// MatchSlots scores the organization's availability against the extracted
// preferences and returns the ranked top candidates. An empty list is a
// normal "no availability" outcome, not an error.
func (h *Handler) MatchSlots(c *gin.Context) {
	var req model.MatchSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if req.OrganizationID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "organization_id is required"})
		return
	}

	slots, err := h.service.MatchSlots(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
}

func (h *Handler) CreateAvailability(c *gin.Context) {
	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	record := req.ToRecord()
	if err := h.service.CreateAvailability(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": record})
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid availability ID"})
		return
	}

	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid organization ID"})
		return
	}

	if err := h.service.DeleteAvailability(c.Request.Context(), id, orgID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// InvalidateCache forces the next match for the organization to reload
// availability from the store.
func (h *Handler) InvalidateCache(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid organization ID"})
		return
	}

	h.service.InvalidateExpansion(orgID)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	m := r.Group("/matching")
	{
		m.POST("/slots", h.MatchSlots)
		m.POST("/cache/invalidate", h.InvalidateCache)
	}

	availability := r.Group("/availability")
	{
		availability.POST("", h.CreateAvailability)
		availability.DELETE("/:id", h.DeleteAvailability)
	}
}

func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(appErr.StatusCode(), gin.H{"status": "error", "message": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
}
