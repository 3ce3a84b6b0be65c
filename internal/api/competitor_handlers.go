package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/serp"
)

// ListCompetitors handles GET /api/v1/competitors
func (h *Handler) ListCompetitors(c *gin.Context) {
	competitors, err := h.competitors.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(competitors))
}

// GetCompetitor handles GET /api/v1/competitors/:id
func (h *Handler) GetCompetitor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	competitor, err := h.competitors.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, competitor)
}

// CompetitorRequest is the body of competitor create and update calls.
type CompetitorRequest struct {
	Domain  string         `json:"domain"   binding:"required"`
	OrgType domain.OrgType `json:"org_type" binding:"required"`
	Notes   *string        `json:"notes"`
}

// CreateCompetitor handles POST /api/v1/competitors
func (h *Handler) CreateCompetitor(c *gin.Context) {
	var req CompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !domain.ValidOrgType(req.OrgType) {
		respondBadRequest(c, errors.New("invalid org_type"))
		return
	}

	normalized := serp.Normalize(req.Domain)
	if normalized == "" {
		respondBadRequest(c, errors.New("invalid domain"))
		return
	}

	competitor := &domain.CompetitorDomain{
		Domain:  normalized,
		OrgType: req.OrgType,
		Notes:   req.Notes,
	}

	if err := h.competitors.Create(c.Request.Context(), competitor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, competitor)
}

// UpdateCompetitor handles PUT /api/v1/competitors/:id. Changing the
// org type to School moves the domain into the school set used by
// analysis percentages.
func (h *Handler) UpdateCompetitor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !domain.ValidOrgType(req.OrgType) {
		respondBadRequest(c, errors.New("invalid org_type"))
		return
	}

	normalized := serp.Normalize(req.Domain)
	if normalized == "" {
		respondBadRequest(c, errors.New("invalid domain"))
		return
	}

	competitor := &domain.CompetitorDomain{
		ID:      id,
		Domain:  normalized,
		OrgType: req.OrgType,
		Notes:   req.Notes,
	}

	if err := h.competitors.Update(c.Request.Context(), competitor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, competitor)
}

// DeleteCompetitor handles DELETE /api/v1/competitors/:id
func (h *Handler) DeleteCompetitor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.competitors.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompetitorStats handles GET /api/v1/competitors/:id/stats
func (h *Handler) CompetitorStats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.competitors.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecomputeCompetitiveness handles POST /api/v1/competitors/recompute
func (h *Handler) RecomputeCompetitiveness(c *gin.Context) {
	if err := h.competitors.RecomputeCompetitiveness(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recomputed": true})
}
