// Package dataforseo implements the DataForSEO API client used for SERP
// snapshots, keyword research and account queries.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// Sentinel errors.
var (
	// ErrNotConfigured is returned when no provider credentials are
	// available. Callers must fail fast before any network activity.
	ErrNotConfigured = errors.New("dataforseo credentials not configured")
	// ErrNoData is returned when the provider answers successfully but
	// the task result carries no items.
	ErrNoData = errors.New("dataforseo returned no data")
)

// ProviderError is a non-success status reported by the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("dataforseo error %d: %s", e.StatusCode, e.Message)
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Timeout  time.Duration
	// RequestsPerSecond and Burst bound the outbound request rate.
	RequestsPerSecond int
	Burst             int
}

// Client is a DataForSEO API client. All calls are rate limited and
// authenticated with HTTP basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	configured bool
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewClient creates a new client. Credentials may be empty; calls on an
// unconfigured client return ErrNotConfigured.
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dataforseo.com/v3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rps
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     log,
	}
	c.SetCredentials(cfg.Login, cfg.Password)
	return c
}

// SetCredentials replaces the basic auth credentials.
func (c *Client) SetCredentials(login, password string) {
	if login == "" || password == "" {
		c.configured = false
		c.authHeader = ""
		return
	}
	token := base64.StdEncoding.EncodeToString([]byte(login + ":" + password))
	c.authHeader = "Basic " + token
	c.configured = true
}

// Configured reports whether credentials are set.
func (c *Client) Configured() bool {
	return c.configured
}

// do issues a request and decodes the provider envelope. The returned
// raw slice is the full response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*apiResponse, []byte, error) {
	if !c.configured {
		return nil, nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("dataforseo request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("DataForSEO call",
			logger.String("path", path),
			logger.Int("http_status", resp.StatusCode),
			logger.Duration("duration", time.Since(start)),
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, raw, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
		}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, raw, fmt.Errorf("parse response: %w", err)
	}

	if envelope.StatusCode != statusOK {
		return nil, raw, &ProviderError{
			StatusCode: envelope.StatusCode,
			Message:    envelope.StatusMessage,
		}
	}

	return &envelope, raw, nil
}

// firstTask returns the first task of the envelope, verifying its status.
func firstTask(envelope *apiResponse) (*apiTask, error) {
	if len(envelope.Tasks) == 0 {
		return nil, ErrNoData
	}
	task := &envelope.Tasks[0]
	if task.StatusCode != statusOK {
		return nil, &ProviderError{
			StatusCode: task.StatusCode,
			Message:    task.StatusMessage,
		}
	}
	return task, nil
}

// Balance fetches the current account balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	envelope, _, err := c.do(ctx, http.MethodGet, "/appendix/user_data", nil)
	if err != nil {
		return nil, err
	}

	task, err := firstTask(envelope)
	if err != nil {
		return nil, err
	}
	if len(task.Result) == 0 {
		return nil, ErrNoData
	}

	var result userDataResult
	if err := json.Unmarshal(task.Result[0], &result); err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}

	return &Balance{
		Login:   result.Login,
		Balance: result.Money.Balance,
	}, nil
}

// Locations fetches the supported SERP locations.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	envelope, _, err := c.do(ctx, http.MethodGet, "/serp/google/locations", nil)
	if err != nil {
		return nil, err
	}

	task, err := firstTask(envelope)
	if err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(task.Result))
	for _, raw := range task.Result {
		var loc Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("parse location: %w", err)
		}
		locations = append(locations, loc)
	}

	return locations, nil
}
