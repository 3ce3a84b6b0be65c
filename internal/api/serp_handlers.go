package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// ApplySerpRequest is the body of POST /api/v1/serp/apply.
type ApplySerpRequest struct {
	KeywordIDs []int64 `json:"keyword_ids" binding:"required,min=1"`
}

// ApplySerp handles POST /api/v1/serp/apply. A single keyword is analyzed
// synchronously and the result returned in the response. Larger batches run
// in the background; the response carries a task ID the client can poll or
// stream progress for.
func (h *Handler) ApplySerp(c *gin.Context) {
	var req ApplySerpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if len(req.KeywordIDs) == 1 {
		result, err := h.runner.RunSync(c.Request.Context(), req.KeywordIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	taskID, err := h.runner.StartBatch(req.KeywordIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("SERP batch queued",
		logger.String("task_id", taskID),
		logger.Int("keywords", len(req.KeywordIDs)),
	)

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// TaskStatus handles GET /api/v1/serp/tasks/:taskId. Terminal tasks are
// removed from the tracker on read.
func (h *Handler) TaskStatus(c *gin.Context) {
	taskID := c.Param("taskId")

	snap, ok := h.tracker.Consume(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found", Code: "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// KeywordHistory handles GET /api/v1/keywords/:id/history
func (h *Handler) KeywordHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit := 0
	if v, err := queryInt64(c, "limit"); err != nil {
		respondBadRequest(c, err)
		return
	} else if v != nil {
		limit = int(*v)
	}

	analyses, err := h.history.ListByKeyword(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(analyses))
}

// LatestAnalysis handles GET /api/v1/keywords/:id/analysis
func (h *Handler) LatestAnalysis(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	analysis, err := h.history.LatestByKeyword(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no analysis for keyword", Code: "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}
