package dataforseo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// FetchSerp runs a live SERP fetch for one keyword and returns the
// parsed snapshot together with the raw provider payload.
func (c *Client) FetchSerp(ctx context.Context, req SerpRequest) (*SerpSnapshot, error) {
	if req.Device == "" {
		req.Device = "desktop"
	}

	envelope, raw, err := c.do(ctx, http.MethodPost, "/serp/google/organic/live/advanced", []SerpRequest{req})
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

	var result serpResult
	if err := json.Unmarshal(task.Result[0], &result); err != nil {
		return nil, fmt.Errorf("parse serp result: %w", err)
	}

	return &SerpSnapshot{
		Keyword:  result.Keyword,
		CheckURL: result.CheckURL,
		Items:    result.Items,
		Cost:     task.Cost,
		Raw:      raw,
	}, nil
}
