package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

type fakeIdeaFetcher struct {
	result *dataforseo.KeywordIdeasResult
	err    error

	gotSeeds []string
}

func (f *fakeIdeaFetcher) KeywordIdeas(_ context.Context, seeds []string, _ int, _ string) (*dataforseo.KeywordIdeasResult, error) {
	f.gotSeeds = seeds
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type recordingKeywordStore struct {
	created    []domain.Keyword
	duplicates map[string]bool
	createErr  map[string]error
}

func (r *recordingKeywordStore) GetByIDs(_ context.Context, _ []int64) ([]domain.Keyword, error) {
	return nil, nil
}

func (r *recordingKeywordStore) Create(_ context.Context, kw *domain.Keyword) (bool, error) {
	if err := r.createErr[kw.Text]; err != nil {
		return false, err
	}
	if r.duplicates[kw.Text] {
		return false, nil
	}
	kw.ID = int64(len(r.created) + 1)
	r.created = append(r.created, *kw)
	return true, nil
}

func newTestIngester(store *recordingKeywordStore, camps *fakeCampaignStore, fetch *fakeIdeaFetcher) *VolumeIngester {
	return NewVolumeIngester(store, camps, fetch, nil,
		config.SerpConfig{LocationCode: 2840, LanguageCode: "en"},
		logger.NewNop(),
	)
}

func monthly(volumes ...int64) []dataforseo.MonthlySearch {
	out := make([]dataforseo.MonthlySearch, 0, len(volumes))
	year, month := 2024, 1
	for _, v := range volumes {
		out = append(out, dataforseo.MonthlySearch{Year: year, Month: month, SearchVolume: v})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return out
}

func TestIngestAddsAndSkips(t *testing.T) {
	store := &recordingKeywordStore{duplicates: map[string]bool{"existing keyword": true}}
	camps := &fakeCampaignStore{group: &domain.AdGroup{ID: 20, CampaignID: 10}}
	fetch := &fakeIdeaFetcher{result: &dataforseo.KeywordIdeasResult{
		Cost: 0.05,
		Ideas: []dataforseo.KeywordIdea{
			{Keyword: "piano lessons", SearchVolume: 1000, Competition: "HIGH", CompetitionIndex: 87, LowTopOfPageBid: 1.2, HighTopOfPageBid: 4.5, MonthlySearches: monthly(100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 150)},
			{Keyword: "existing keyword", SearchVolume: 500},
			{Keyword: "rare keyword", SearchVolume: 5},
			{Keyword: "  ", SearchVolume: 10},
		},
	}}

	ing := newTestIngester(store, camps, fetch)

	result, err := ing.Ingest(context.Background(), IngestParams{
		CampaignID: 10,
		AdGroupID:  20,
		Seeds:      []string{"Piano", "piano", "", "lessons"},
		BatchColor: "#ffcc00",
		MinVolume:  10,
	})
	require.NoError(t, err)

	// Seeds are trimmed, lowercased and deduped.
	assert.Equal(t, []string{"piano", "lessons"}, fetch.gotSeeds)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, result.Skipped) // duplicate + below min volume
	assert.Equal(t, 0, result.Failed)
	assert.InDelta(t, 0.05, result.Cost, 1e-9)

	require.Len(t, store.created, 1)
	kw := store.created[0]
	assert.Equal(t, "piano lessons", kw.Text)
	assert.Equal(t, domain.KeywordStatusEnabled, kw.Status)
	assert.True(t, kw.IsNew)
	require.NotNil(t, kw.BatchColor)
	assert.Equal(t, "#ffcc00", *kw.BatchColor)
	require.NotNil(t, kw.Competition)
	assert.Equal(t, domain.CompetitionHigh, *kw.Competition)
	require.NotNil(t, kw.AvgMonthlySearches)
	assert.Equal(t, int64(1000), *kw.AvgMonthlySearches)
	require.NotNil(t, kw.ThreeMonthChange)
	require.NotNil(t, kw.YearlyChange)
}

func TestIngestAdGroupMismatch(t *testing.T) {
	camps := &fakeCampaignStore{group: &domain.AdGroup{ID: 20, CampaignID: 99}}
	ing := newTestIngester(&recordingKeywordStore{}, camps, &fakeIdeaFetcher{})

	_, err := ing.Ingest(context.Background(), IngestParams{CampaignID: 10, AdGroupID: 20, Seeds: []string{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestIngestNoSeeds(t *testing.T) {
	ing := newTestIngester(&recordingKeywordStore{}, &fakeCampaignStore{}, &fakeIdeaFetcher{})

	_, err := ing.Ingest(context.Background(), IngestParams{Seeds: []string{"  ", ""}})
	require.Error(t, err)
}

func TestIngestCreateErrorsCounted(t *testing.T) {
	store := &recordingKeywordStore{createErr: map[string]error{"broken": errors.New("insert failed")}}
	camps := &fakeCampaignStore{group: &domain.AdGroup{ID: 20, CampaignID: 10}}
	fetch := &fakeIdeaFetcher{result: &dataforseo.KeywordIdeasResult{
		Ideas: []dataforseo.KeywordIdea{
			{Keyword: "broken", SearchVolume: 100},
			{Keyword: "fine", SearchVolume: 100},
		},
	}}

	ing := newTestIngester(store, camps, fetch)

	result, err := ing.Ingest(context.Background(), IngestParams{CampaignID: 10, AdGroupID: 20, Seeds: []string{"seed"}})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "insert failed")
}

func TestDeriveIntent(t *testing.T) {
	tests := []struct {
		text      string
		serpTypes []string
		want      *domain.IntentType
	}{
		{"buy piano online", nil, intentPtr(domain.IntentTransactional)},
		{"enroll in music school", nil, intentPtr(domain.IntentTransactional)},
		{"piano lessons price", nil, intentPtr(domain.IntentCommercial)},
		{"best tutors near me", nil, intentPtr(domain.IntentCommercial)},
		{"school portal login", nil, intentPtr(domain.IntentNavigational)},
		{"how pianos work", nil, nil},
		// SERP blocks win over wordlists.
		{"how pianos work", []string{"organic", "shopping"}, intentPtr(domain.IntentCommercial)},
		{"enroll in music school", []string{"paid", "organic"}, intentPtr(domain.IntentCommercial)},
		{"piano store hours", []string{"local_pack"}, intentPtr(domain.IntentCommercial)},
		{"how pianos work", []string{"organic", "people_also_ask"}, nil},
	}

	for _, tt := range tests {
		got := DeriveIntent(tt.text, tt.serpTypes)
		if tt.want == nil {
			assert.Nil(t, got, tt.text)
			continue
		}
		require.NotNil(t, got, tt.text)
		assert.Equal(t, *tt.want, *got, tt.text)
	}
}
