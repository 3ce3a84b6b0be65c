package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/server"
	"github.com/keywordlock/serp-tracker/internal/sse"
)

// RouteConfig carries route-level settings.
type RouteConfig struct {
	JWTSecret    string
	SSEHeartbeat time.Duration
}

// RegisterRoutes wires the API endpoints onto the router. The /api/v1
// group is JWT-protected when a secret is configured. The SSE stream
// endpoint stays outside the protected group because EventSource clients
// cannot set an Authorization header.
func RegisterRoutes(router *gin.Engine, h *Handler, metricsHandler http.Handler, dbPing func(context.Context) error, cfg RouteConfig) {
	router.GET("/ready", func(c *gin.Context) {
		if err := dbPing(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", gin.WrapH(metricsHandler))

	router.GET("/api/v1/serp/stream/:taskId", sse.Handler(h.broker, h.logger, cfg.SSEHeartbeat))

	v1 := server.ProtectedGroup(router, "/api/v1", cfg.JWTSecret)

	campaigns := v1.Group("/campaigns")
	{
		campaigns.GET("", h.ListCampaigns)
		campaigns.POST("", h.CreateCampaign)
		campaigns.GET("/:id", h.GetCampaign)
		campaigns.GET("/:id/ad-groups", h.ListAdGroups)
		campaigns.POST("/:id/ad-groups", h.CreateAdGroup)
		campaigns.GET("/:id/site", h.GetCampaignSite)
		campaigns.PUT("/:id/site", h.SetCampaignSite)
	}

	adGroups := v1.Group("/ad-groups")
	{
		adGroups.POST("/:id/batch/accept", h.AcceptBatch)
		adGroups.POST("/:id/batch/reject", h.RejectBatch)
	}

	keywords := v1.Group("/keywords")
	{
		keywords.GET("", h.ListKeywords)
		keywords.POST("", h.CreateKeyword)
		keywords.POST("/paste", h.PasteKeywords)
		keywords.POST("/ideas", h.IngestKeywords)
		keywords.POST("/bulk-status", h.BulkStatus)
		keywords.GET("/trash", h.ListTrash)
		keywords.POST("/trash/purge", h.PurgeTrash)
		keywords.GET("/:id", h.GetKeyword)
		keywords.POST("/:id/restore", h.RestoreKeyword)
		keywords.GET("/:id/history", h.KeywordHistory)
		keywords.GET("/:id/analysis", h.LatestAnalysis)
	}

	serpGroup := v1.Group("/serp")
	{
		serpGroup.POST("/apply", h.ApplySerp)
		serpGroup.GET("/tasks/:taskId", h.TaskStatus)
		serpGroup.GET("/locations", h.Locations)
	}

	competitors := v1.Group("/competitors")
	{
		competitors.GET("", h.ListCompetitors)
		competitors.POST("", h.CreateCompetitor)
		competitors.POST("/recompute", h.RecomputeCompetitiveness)
		competitors.GET("/:id", h.GetCompetitor)
		competitors.PUT("/:id", h.UpdateCompetitor)
		competitors.DELETE("/:id", h.DeleteCompetitor)
		competitors.GET("/:id/stats", h.CompetitorStats)
	}

	settingsGroup := v1.Group("/settings")
	{
		settingsGroup.GET("/provider", h.ProviderStatus)
		settingsGroup.POST("/provider", h.SaveCredentials)
		settingsGroup.GET("/balance", h.Balance)
	}
}
