package dataforseo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// keywordsForKeywordsRequest is the request body for the live keyword
// research endpoint.
type keywordsForKeywordsRequest struct {
	Keywords        []string `json:"keywords"`
	LocationCode    int      `json:"location_code"`
	LanguageCode    string   `json:"language_code"`
	SortBy          string   `json:"sort_by,omitempty"`
	IncludeSerpInfo bool     `json:"include_serp_info"`
}

// KeywordIdeas fetches keyword suggestions with volume metrics for the
// given seed keywords. The provider accepts at most KeywordsLiveLimit
// seeds per call; longer inputs are rejected up front.
func (c *Client) KeywordIdeas(ctx context.Context, seeds []string, locationCode int, languageCode string) (*KeywordIdeasResult, error) {
	if len(seeds) == 0 {
		return &KeywordIdeasResult{}, nil
	}
	if len(seeds) > KeywordsLiveLimit {
		return nil, fmt.Errorf("too many seed keywords: %d (limit %d)", len(seeds), KeywordsLiveLimit)
	}

	req := []keywordsForKeywordsRequest{{
		Keywords:        seeds,
		LocationCode:    locationCode,
		LanguageCode:    languageCode,
		SortBy:          "search_volume",
		IncludeSerpInfo: true,
	}}

	envelope, _, err := c.do(ctx, http.MethodPost, "/keywords_data/google_ads/keywords_for_keywords/live", req)
	if err != nil {
		return nil, err
	}

	task, err := firstTask(envelope)
	if err != nil {
		return nil, err
	}

	ideas := make([]KeywordIdea, 0, len(task.Result))
	for _, raw := range task.Result {
		var idea KeywordIdea
		if err := json.Unmarshal(raw, &idea); err != nil {
			return nil, fmt.Errorf("parse keyword idea: %w", err)
		}
		ideas = append(ideas, idea)
	}

	return &KeywordIdeasResult{Ideas: ideas, Cost: task.Cost}, nil
}

// ComputeTrends derives the three-month and yearly volume change
// percentages from a monthly search history. A percentage is nil when
// the history is too short or the past value is zero.
func ComputeTrends(history []MonthlySearch) (threeMonth, yearly *float64) {
	if len(history) == 0 {
		return nil, nil
	}

	sorted := make([]MonthlySearch, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Month < sorted[j].Month
	})

	current := sorted[len(sorted)-1].SearchVolume

	// Baselines: two months back for the three-month window (current
	// month inclusive), eleven months back for the yearly one.
	threeMonth = percentChange(sorted, current, 3)
	yearly = percentChange(sorted, current, 12)
	return threeMonth, yearly
}

// percentChange compares current against the value stepsBack entries
// from the end of the sorted series.
func percentChange(sorted []MonthlySearch, current int64, stepsBack int) *float64 {
	if len(sorted) < stepsBack {
		return nil
	}
	past := sorted[len(sorted)-stepsBack].SearchVolume
	if past <= 0 {
		return nil
	}
	change := (float64(current) - float64(past)) / float64(past) * 100
	return &change
}
