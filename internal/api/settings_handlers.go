package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ProviderStatus handles GET /api/v1/settings/provider
func (h *Handler) ProviderStatus(c *gin.Context) {
	status, err := h.settings.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// SaveCredentialsRequest is the body of POST /api/v1/settings/provider.
type SaveCredentialsRequest struct {
	Login    string `json:"login"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SaveCredentials handles POST /api/v1/settings/provider. Stored
// credentials take effect immediately on the running provider client.
func (h *Handler) SaveCredentials(c *gin.Context) {
	var req SaveCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	login := strings.TrimSpace(req.Login)
	if login == "" {
		respondBadRequest(c, errors.New("login is empty"))
		return
	}

	if err := h.settings.SaveCredentials(c.Request.Context(), login, req.Password); err != nil {
		respondError(c, err)
		return
	}

	h.provider.SetCredentials(login, req.Password)

	status, err := h.settings.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Balance handles GET /api/v1/settings/balance
func (h *Handler) Balance(c *gin.Context) {
	balance, err := h.provider.Balance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// Locations handles GET /api/v1/serp/locations
func (h *Handler) Locations(c *gin.Context) {
	locations, err := h.provider.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(locations))
}
