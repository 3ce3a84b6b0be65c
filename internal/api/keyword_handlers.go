package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/processor"
)

// ListKeywords handles GET /api/v1/keywords
func (h *Handler) ListKeywords(c *gin.Context) {
	filter := database.KeywordFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		OnlyNew: c.Query("only_new") == "true",
	}

	var err error
	if filter.CampaignID, err = queryInt64(c, "campaign_id"); err != nil {
		respondBadRequest(c, err)
		return
	}
	if filter.AdGroupID, err = queryInt64(c, "ad_group_id"); err != nil {
		respondBadRequest(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.KeywordStatus(raw)
		if !domain.ValidKeywordStatus(status) {
			respondBadRequest(c, errors.New("invalid status"))
			return
		}
		filter.Status = &status
	}

	keywords, err := h.keywords.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(keywords))
}

// GetKeyword handles GET /api/v1/keywords/:id
func (h *Handler) GetKeyword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	kw, err := h.keywords.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, kw)
}

// CreateKeywordRequest is the body of POST /api/v1/keywords.
type CreateKeywordRequest struct {
	CampaignID    int64    `json:"campaign_id"    binding:"required"`
	AdGroupID     int64    `json:"ad_group_id"    binding:"required"`
	Text          string   `json:"text"           binding:"required"`
	CriterionType string   `json:"criterion_type"`
	MaxCPC        *float64 `json:"max_cpc"`
	Comment       *string  `json:"comment"`
}

// CreateKeyword handles POST /api/v1/keywords
func (h *Handler) CreateKeyword(c *gin.Context) {
	var req CreateKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	kw := &domain.Keyword{
		CampaignID:    req.CampaignID,
		AdGroupID:     req.AdGroupID,
		Text:          strings.TrimSpace(req.Text),
		CriterionType: domain.CriterionType(req.CriterionType),
		Status:        domain.KeywordStatusEnabled,
		MaxCPC:        req.MaxCPC,
		Comment:       req.Comment,
	}
	if kw.Text == "" {
		respondBadRequest(c, errors.New("keyword text is empty"))
		return
	}
	if kw.CriterionType == "" {
		kw.CriterionType = domain.CriterionBroad
	}

	created, err := h.keywords.Create(c.Request.Context(), kw)
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "keyword already exists in ad group",
			Code:  "DUPLICATE",
		})
		return
	}

	c.JSON(http.StatusCreated, kw)
}

// PasteKeywordsRequest is the body of POST /api/v1/keywords/paste.
// Text carries one keyword per line.
type PasteKeywordsRequest struct {
	CampaignID int64  `json:"campaign_id" binding:"required"`
	AdGroupID  int64  `json:"ad_group_id" binding:"required"`
	Text       string `json:"text"        binding:"required"`
}

// PasteKeywordsResponse summarizes a paste import.
type PasteKeywordsResponse struct {
	Total   int              `json:"total"`
	Added   int              `json:"added"`
	Skipped int              `json:"skipped"`
	Items   []domain.Keyword `json:"items"`
}

// PasteKeywords handles POST /api/v1/keywords/paste
func (h *Handler) PasteKeywords(c *gin.Context) {
	var req PasteKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	lines := splitKeywordLines(req.Text)
	if len(lines) == 0 {
		respondBadRequest(c, errors.New("no keywords in pasted text"))
		return
	}

	resp := PasteKeywordsResponse{Total: len(lines), Items: []domain.Keyword{}}

	for _, text := range lines {
		kw := &domain.Keyword{
			CampaignID:    req.CampaignID,
			AdGroupID:     req.AdGroupID,
			Text:          text,
			CriterionType: domain.CriterionBroad,
			Status:        domain.KeywordStatusEnabled,
		}

		created, err := h.keywords.Create(c.Request.Context(), kw)
		if err != nil {
			respondError(c, err)
			return
		}
		if !created {
			resp.Skipped++
			continue
		}
		resp.Added++
		resp.Items = append(resp.Items, *kw)
	}

	h.logger.Info("Keywords pasted",
		logger.Int64("ad_group_id", req.AdGroupID),
		logger.Int("added", resp.Added),
		logger.Int("skipped", resp.Skipped),
	)

	c.JSON(http.StatusOK, resp)
}

// splitKeywordLines splits pasted text into trimmed, deduplicated,
// lowercased keyword lines.
func splitKeywordLines(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// BulkStatusRequest is the body of POST /api/v1/keywords/bulk-status.
type BulkStatusRequest struct {
	IDs    []int64              `json:"ids"    binding:"required,min=1"`
	Status domain.KeywordStatus `json:"status" binding:"required"`
}

// BulkStatus handles POST /api/v1/keywords/bulk-status. Setting status
// Removed moves keywords to the trash.
func (h *Handler) BulkStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !domain.ValidKeywordStatus(req.Status) {
		respondBadRequest(c, errors.New("invalid status"))
		return
	}

	updated, err := h.keywords.SetStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// ListTrash handles GET /api/v1/keywords/trash
func (h *Handler) ListTrash(c *gin.Context) {
	keywords, err := h.keywords.ListTrash(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(keywords))
}

// PurgeTrash handles POST /api/v1/keywords/trash/purge. Hard-deletes
// everything currently in the trash, regardless of age.
func (h *Handler) PurgeTrash(c *gin.Context) {
	purged, err := h.keywords.PurgeTrash(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Trash purged", logger.Int64("purged", purged))

	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// RestoreKeyword handles POST /api/v1/keywords/:id/restore
func (h *Handler) RestoreKeyword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	restored, err := h.keywords.SetStatus(c.Request.Context(), []int64{id}, domain.KeywordStatusEnabled)
	if err != nil {
		respondError(c, err)
		return
	}
	if restored == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "keyword not found", Code: "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": restored})
}

// AcceptBatch handles POST /api/v1/ad-groups/:id/batch/accept
func (h *Handler) AcceptBatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	accepted, err := h.keywords.AcceptNewBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// RejectBatch handles POST /api/v1/ad-groups/:id/batch/reject
func (h *Handler) RejectBatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rejected, err := h.keywords.RejectNewBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rejected": rejected})
}

// IngestKeywordsRequest is the body of POST /api/v1/keywords/ideas.
type IngestKeywordsRequest struct {
	CampaignID int64    `json:"campaign_id" binding:"required"`
	AdGroupID  int64    `json:"ad_group_id" binding:"required"`
	Seeds      []string `json:"seeds"       binding:"required,min=1"`
	BatchColor string   `json:"batch_color"`
	MinVolume  int64    `json:"min_volume"`
}

// IngestKeywords handles POST /api/v1/keywords/ideas
func (h *Handler) IngestKeywords(c *gin.Context) {
	var req IngestKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.ingester.Ingest(c.Request.Context(), processor.IngestParams{
		CampaignID: req.CampaignID,
		AdGroupID:  req.AdGroupID,
		Seeds:      req.Seeds,
		BatchColor: req.BatchColor,
		MinVolume:  req.MinVolume,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
