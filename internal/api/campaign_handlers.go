package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/serp"
)

// ListCampaigns handles GET /api/v1/campaigns
func (h *Handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListCampaigns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(campaigns))
}

// GetCampaign handles GET /api/v1/campaigns/:id
func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// CreateCampaignRequest is the body of POST /api/v1/campaigns.
type CreateCampaignRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	campaign := &domain.Campaign{
		Name:   strings.TrimSpace(req.Name),
		Status: req.Status,
	}
	if campaign.Name == "" {
		respondBadRequest(c, errors.New("campaign name is empty"))
		return
	}
	if campaign.Status == "" {
		campaign.Status = "enabled"
	}

	if err := h.campaigns.CreateCampaign(c.Request.Context(), campaign); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// ListAdGroups handles GET /api/v1/campaigns/:id/ad-groups
func (h *Handler) ListAdGroups(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	groups, err := h.campaigns.ListAdGroups(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(groups))
}

// CreateAdGroupRequest is the body of POST /api/v1/campaigns/:id/ad-groups.
type CreateAdGroupRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

// CreateAdGroup handles POST /api/v1/campaigns/:id/ad-groups
func (h *Handler) CreateAdGroup(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateAdGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	group := &domain.AdGroup{
		CampaignID: id,
		Name:       strings.TrimSpace(req.Name),
		Status:     req.Status,
	}
	if group.Name == "" {
		respondBadRequest(c, errors.New("ad group name is empty"))
		return
	}
	if group.Status == "" {
		group.Status = "enabled"
	}

	if err := h.campaigns.CreateAdGroup(c.Request.Context(), group); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// GetCampaignSite handles GET /api/v1/campaigns/:id/site
func (h *Handler) GetCampaignSite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	site, err := h.campaigns.GetCampaignSite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if site == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "campaign site not set", Code: "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, site)
}

// SetCampaignSiteRequest is the body of PUT /api/v1/campaigns/:id/site.
type SetCampaignSiteRequest struct {
	SiteURL string `json:"site_url" binding:"required"`
}

// SetCampaignSite handles PUT /api/v1/campaigns/:id/site. The domain is
// normalized from the site URL and used for own-site matching in analyses.
func (h *Handler) SetCampaignSite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SetCampaignSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	normalized := serp.Normalize(req.SiteURL)
	if normalized == "" {
		respondBadRequest(c, errors.New("invalid site url"))
		return
	}

	site := &domain.CampaignSite{
		CampaignID: id,
		SiteURL:    strings.TrimSpace(req.SiteURL),
		Domain:     normalized,
	}

	if err := h.campaigns.SetCampaignSite(c.Request.Context(), site); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, site)
}
