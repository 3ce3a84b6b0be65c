package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
)

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ListResponse wraps list payloads with a total count.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func listResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var provErr *dataforseo.ProviderError
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, dataforseo.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "provider credentials not configured",
			Code:  "PROVIDER_NOT_CONFIGURED",
		})
	case errors.As(err, &provErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: provErr.Error(), Code: "PROVIDER_ERROR"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL_ERROR"})
	}
}

// respondBadRequest reports a malformed request.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + name,
			Code:  "BAD_REQUEST",
		})
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional numeric query parameter.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &v, nil
}
