package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/progress"
	"github.com/keywordlock/serp-tracker/internal/serp"
	"github.com/keywordlock/serp-tracker/internal/sse"
	"github.com/keywordlock/serp-tracker/internal/telemetry"
)

type fakeKeywordStore struct {
	byID map[int64]domain.Keyword
}

func (f *fakeKeywordStore) GetByIDs(_ context.Context, ids []int64) ([]domain.Keyword, error) {
	var out []domain.Keyword
	for _, id := range ids {
		if kw, ok := f.byID[id]; ok {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (f *fakeKeywordStore) Create(_ context.Context, _ *domain.Keyword) (bool, error) {
	return false, errors.New("not used")
}

type fakeCampaignStore struct {
	site  *domain.CampaignSite
	group *domain.AdGroup
}

func (f *fakeCampaignStore) GetAdGroup(_ context.Context, id int64) (*domain.AdGroup, error) {
	if f.group == nil || f.group.ID != id {
		return nil, errors.New("ad group not found")
	}
	return f.group, nil
}

func (f *fakeCampaignStore) GetCampaignSite(_ context.Context, _ int64) (*domain.CampaignSite, error) {
	return f.site, nil
}

type fakeCompetitorStore struct {
	mu         sync.Mutex
	schools    []string
	ensured    map[string]int64
	nextID     int64
	recomputed int
}

func (f *fakeCompetitorStore) SchoolDomains(_ context.Context) ([]string, error) {
	return f.schools, nil
}

func (f *fakeCompetitorStore) EnsureDomain(_ context.Context, d string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensured == nil {
		f.ensured = make(map[string]int64)
	}
	if id, ok := f.ensured[d]; ok {
		return id, nil
	}
	f.nextID++
	f.ensured[d] = f.nextID
	return f.nextID, nil
}

func (f *fakeCompetitorStore) RecomputeCompetitiveness(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed++
	return nil
}

type savedAnalysis struct {
	analysis    *domain.SerpAnalysis
	appearances []domain.CompetitorAppearance
}

type fakeAnalysisStore struct {
	mu    sync.Mutex
	saved []savedAnalysis
	err   error
}

func (f *fakeAnalysisStore) SaveAnalysis(_ context.Context, a *domain.SerpAnalysis, apps []domain.CompetitorAppearance) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, savedAnalysis{analysis: a, appearances: apps})
	return nil
}

type fakeFetcher struct {
	snapshots map[string]*dataforseo.SerpSnapshot
	errs      map[string]error
}

func (f *fakeFetcher) FetchSerp(_ context.Context, req dataforseo.SerpRequest) (*dataforseo.SerpSnapshot, error) {
	if err, ok := f.errs[req.Keyword]; ok {
		return nil, err
	}
	if snap, ok := f.snapshots[req.Keyword]; ok {
		return snap, nil
	}
	return nil, dataforseo.ErrNoData
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e sse.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []sse.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []sse.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testSnapshot(keyword string) *dataforseo.SerpSnapshot {
	return &dataforseo.SerpSnapshot{
		Keyword: keyword,
		Cost:    0.002,
		Items: []dataforseo.SerpItem{
			{Type: "paid", RankAbsolute: 1, Domain: "ads.example.com"},
			{Type: "organic", RankAbsolute: 2, Domain: "ourschool.com", URL: "https://ourschool.com/a"},
			{Type: "organic", RankAbsolute: 3, Domain: "rivalschool.com", URL: "https://rivalschool.com/b"},
			{Type: "local_pack", RankAbsolute: 4, Domain: ""},
		},
	}
}

func newTestRunner(kwStore *fakeKeywordStore, camps *fakeCampaignStore, comps *fakeCompetitorStore, hist *fakeAnalysisStore, fetch *fakeFetcher, pub sse.Publisher) (*SerpBatchRunner, *progress.Tracker) {
	tracker := progress.NewTracker(time.Hour, nil)
	runner := NewSerpBatchRunner(
		kwStore, camps, comps, hist, fetch,
		serp.NewAnalyzer(nil), tracker, pub, nil,
		config.SerpConfig{LocationCode: 2840, LanguageCode: "en", Device: "desktop", Depth: 20},
		logger.NewNop(),
	)
	return runner, tracker
}

func TestRunSyncSingleKeyword(t *testing.T) {
	kwStore := &fakeKeywordStore{byID: map[int64]domain.Keyword{
		1: {ID: 1, CampaignID: 10, AdGroupID: 20, Text: "math tutors", Status: domain.KeywordStatusEnabled},
	}}
	camps := &fakeCampaignStore{site: &domain.CampaignSite{CampaignID: 10, Domain: "ourschool.com"}}
	comps := &fakeCompetitorStore{schools: []string{"rivalschool.com"}}
	hist := &fakeAnalysisStore{}
	fetch := &fakeFetcher{snapshots: map[string]*dataforseo.SerpSnapshot{
		"math tutors": testSnapshot("math tutors"),
	}}

	runner, _ := newTestRunner(kwStore, camps, comps, hist, fetch, nil)

	result, err := runner.RunSync(context.Background(), []int64{1})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.InDelta(t, 0.002, result.Cost, 1e-9)

	require.Len(t, hist.saved, 1)
	saved := hist.saved[0]
	assert.Equal(t, int64(1), saved.analysis.KeywordID)
	assert.True(t, saved.analysis.HasAds)
	assert.True(t, saved.analysis.HasGoogleMaps)
	assert.True(t, saved.analysis.HasOurSite)
	require.NotNil(t, saved.analysis.OurPosition)
	assert.Equal(t, 1, *saved.analysis.OurPosition)
	require.NotNil(t, saved.analysis.OurActualPosition)
	assert.Equal(t, 2, *saved.analysis.OurActualPosition)
	// One tracked competitor among two organic results.
	assert.InDelta(t, 50.0, saved.analysis.SchoolPercentage, 1e-9)

	// Paid and organic competitor appearances, our own site excluded.
	domains := make(map[string]bool)
	for _, app := range saved.appearances {
		assert.NotZero(t, app.CompetitorID)
	}
	for d := range comps.ensured {
		domains[d] = true
	}
	assert.True(t, domains["rivalschool.com"])
	assert.True(t, domains["ads.example.com"])
	assert.False(t, domains["ourschool.com"])

	assert.Equal(t, 1, comps.recomputed)
}

func TestRunSyncSkipsMissingKeywords(t *testing.T) {
	kwStore := &fakeKeywordStore{byID: map[int64]domain.Keyword{
		1: {ID: 1, CampaignID: 10, Text: "present", Status: domain.KeywordStatusEnabled},
	}}
	camps := &fakeCampaignStore{}
	comps := &fakeCompetitorStore{}
	hist := &fakeAnalysisStore{}
	fetch := &fakeFetcher{snapshots: map[string]*dataforseo.SerpSnapshot{
		"present": testSnapshot("present"),
	}}

	runner, _ := newTestRunner(kwStore, camps, comps, hist, fetch, nil)

	result, err := runner.RunSync(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Succeeded)
}

func TestRunSyncErrorCap(t *testing.T) {
	byID := make(map[int64]domain.Keyword)
	fetchErrs := make(map[string]error)
	var ids []int64
	for i := int64(1); i <= 12; i++ {
		text := fmt.Sprintf("keyword %d", i)
		byID[i] = domain.Keyword{ID: i, CampaignID: 10, Text: text}
		fetchErrs[text] = &dataforseo.ProviderError{StatusCode: 40501, Message: "invalid field"}
		ids = append(ids, i)
	}

	runner, _ := newTestRunner(
		&fakeKeywordStore{byID: byID},
		&fakeCampaignStore{},
		&fakeCompetitorStore{},
		&fakeAnalysisStore{},
		&fakeFetcher{errs: fetchErrs},
		nil,
	)

	result, err := runner.RunSync(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Failed)
	assert.Len(t, result.Errors, 10)
	assert.Equal(t, 2, result.ErrorsOmitted)
	assert.Equal(t, 0, result.Succeeded)
}

func TestRunSyncEmptyBatch(t *testing.T) {
	runner, _ := newTestRunner(
		&fakeKeywordStore{}, &fakeCampaignStore{}, &fakeCompetitorStore{},
		&fakeAnalysisStore{}, &fakeFetcher{}, nil,
	)

	_, err := runner.RunSync(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestStartBatchPublishesTerminalEvent(t *testing.T) {
	kwStore := &fakeKeywordStore{byID: map[int64]domain.Keyword{
		1: {ID: 1, CampaignID: 10, Text: "alpha"},
		2: {ID: 2, CampaignID: 10, Text: "beta"},
	}}
	fetch := &fakeFetcher{snapshots: map[string]*dataforseo.SerpSnapshot{
		"alpha": testSnapshot("alpha"),
		"beta":  testSnapshot("beta"),
	}}
	pub := &capturingPublisher{}

	runner, tracker := newTestRunner(kwStore, &fakeCampaignStore{}, &fakeCompetitorStore{}, &fakeAnalysisStore{}, fetch, pub)

	taskID, err := runner.StartBatch([]int64{1, 2})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	// Wait for the background worker to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, ok := tracker.Get(taskID)
		if ok && snap.Terminal() {
			assert.Equal(t, progress.StatusComplete, snap.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("batch did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	completes := pub.byType(sse.EventTypeComplete)
	require.Len(t, completes, 1)
	assert.Equal(t, taskID, completes[0].TaskID)
	assert.NotEmpty(t, pub.byType(sse.EventTypeProgress))
}

func TestStartBatchPartialFailure(t *testing.T) {
	kwStore := &fakeKeywordStore{byID: map[int64]domain.Keyword{
		1: {ID: 1, CampaignID: 10, Text: "alpha"},
		2: {ID: 2, CampaignID: 10, Text: "beta"},
		3: {ID: 3, CampaignID: 10, Text: "gamma"},
	}}
	fetch := &fakeFetcher{
		snapshots: map[string]*dataforseo.SerpSnapshot{
			"alpha": testSnapshot("alpha"),
			"gamma": testSnapshot("gamma"),
		},
		errs: map[string]error{
			"beta": &dataforseo.ProviderError{StatusCode: 50000, Message: "internal error"},
		},
	}
	hist := &fakeAnalysisStore{}
	pub := &capturingPublisher{}
	tracker := progress.NewTracker(time.Hour, nil)

	runner := NewSerpBatchRunner(
		kwStore, &fakeCampaignStore{}, &fakeCompetitorStore{}, hist, fetch,
		serp.NewAnalyzer(nil), tracker, pub, telemetry.NewProvider(),
		config.SerpConfig{LocationCode: 2840, LanguageCode: "en", Device: "desktop", Depth: 20},
		logger.NewNop(),
	)

	taskID, err := runner.StartBatch([]int64{1, 2, 3})
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, ok := tracker.Get(taskID)
		if ok && snap.Terminal() {
			assert.Equal(t, progress.StatusComplete, snap.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("batch did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Surviving keywords are persisted despite the failure in between.
	require.Len(t, hist.saved, 2)
	assert.Equal(t, int64(1), hist.saved[0].analysis.KeywordID)
	assert.Equal(t, int64(3), hist.saved[1].analysis.KeywordID)

	completes := pub.byType(sse.EventTypeComplete)
	require.Len(t, completes, 1)
	result, ok := completes[0].Data.(sse.ProgressData).Result.(*BatchResult)
	require.True(t, ok)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, int64(2), result.Errors[0].KeywordID)

	// The failed keyword still emits its post-processing update.
	var currents []int
	for _, ev := range pub.byType(sse.EventTypeProgress) {
		data, ok := ev.Data.(sse.ProgressData)
		require.True(t, ok)
		currents = append(currents, data.Current)
	}
	assert.Equal(t, []int{0, 1, 1, 2, 2, 3}, currents)
}

func TestRunSyncPersistenceFailureCounted(t *testing.T) {
	kwStore := &fakeKeywordStore{byID: map[int64]domain.Keyword{
		1: {ID: 1, CampaignID: 10, Text: "alpha"},
	}}
	fetch := &fakeFetcher{snapshots: map[string]*dataforseo.SerpSnapshot{
		"alpha": testSnapshot("alpha"),
	}}
	hist := &fakeAnalysisStore{err: errors.New("db down")}

	runner, _ := newTestRunner(kwStore, &fakeCampaignStore{}, &fakeCompetitorStore{}, hist, fetch, nil)

	result, err := runner.RunSync(context.Background(), []int64{1})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "db down")
}
