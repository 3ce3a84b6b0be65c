// Package processor orchestrates SERP analysis batches and keyword
// volume ingestion against the DataForSEO provider.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/progress"
	"github.com/keywordlock/serp-tracker/internal/serp"
	"github.com/keywordlock/serp-tracker/internal/sse"
	"github.com/keywordlock/serp-tracker/internal/telemetry"
)

// maxReportedErrors caps the per-keyword errors carried in a batch
// result. Errors beyond the cap are still counted, just not listed.
const maxReportedErrors = 10

// ErrEmptyBatch is returned when a batch is started with no keywords.
var ErrEmptyBatch = errors.New("no keywords to process")

// KeywordStore is the keyword persistence used by the processor.
type KeywordStore interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Keyword, error)
	Create(ctx context.Context, kw *domain.Keyword) (bool, error)
}

// CampaignStore resolves campaign sites and ad groups.
type CampaignStore interface {
	GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error)
	GetCampaignSite(ctx context.Context, campaignID int64) (*domain.CampaignSite, error)
}

// CompetitorStore is the competitor registry used during analysis.
type CompetitorStore interface {
	SchoolDomains(ctx context.Context) ([]string, error)
	EnsureDomain(ctx context.Context, normalizedDomain string) (int64, error)
	RecomputeCompetitiveness(ctx context.Context) error
}

// AnalysisStore persists completed analyses.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, analysis *domain.SerpAnalysis, appearances []domain.CompetitorAppearance) error
}

// SerpFetcher fetches live SERP snapshots.
type SerpFetcher interface {
	FetchSerp(ctx context.Context, req dataforseo.SerpRequest) (*dataforseo.SerpSnapshot, error)
}

// BatchError describes one failed keyword within a batch.
type BatchError struct {
	KeywordID int64  `json:"keyword_id"`
	Keyword   string `json:"keyword"`
	Message   string `json:"message"`
}

// BatchResult summarizes a completed SERP analysis batch.
type BatchResult struct {
	TaskID    string  `json:"task_id,omitempty"`
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
	Cost      float64 `json:"cost"`
	// Errors holds at most maxReportedErrors entries; ErrorsOmitted
	// counts the rest.
	Errors        []BatchError `json:"errors,omitempty"`
	ErrorsOmitted int          `json:"errors_omitted,omitempty"`
}

func (r *BatchResult) addError(kw *domain.Keyword, err error) {
	r.Failed++
	if len(r.Errors) >= maxReportedErrors {
		r.ErrorsOmitted++
		return
	}
	r.Errors = append(r.Errors, BatchError{
		KeywordID: kw.ID,
		Keyword:   kw.Text,
		Message:   err.Error(),
	})
}

// SerpBatchRunner runs SERP analysis batches, one keyword at a time.
type SerpBatchRunner struct {
	keywords    KeywordStore
	campaigns   CampaignStore
	competitors CompetitorStore
	history     AnalysisStore
	client      SerpFetcher
	analyzer    *serp.Analyzer
	tracker     *progress.Tracker
	publisher   sse.Publisher
	telemetry   *telemetry.Provider
	cfg         config.SerpConfig
	logger      logger.Logger

	// slot bounds background batch execution to one at a time.
	slot chan struct{}
}

// NewSerpBatchRunner creates a batch runner. publisher and telemetry
// may be nil.
func NewSerpBatchRunner(
	keywords KeywordStore,
	campaigns CampaignStore,
	competitors CompetitorStore,
	history AnalysisStore,
	client SerpFetcher,
	analyzer *serp.Analyzer,
	tracker *progress.Tracker,
	publisher sse.Publisher,
	tel *telemetry.Provider,
	cfg config.SerpConfig,
	log logger.Logger,
) *SerpBatchRunner {
	return &SerpBatchRunner{
		keywords:    keywords,
		campaigns:   campaigns,
		competitors: competitors,
		history:     history,
		client:      client,
		analyzer:    analyzer,
		tracker:     tracker,
		publisher:   publisher,
		telemetry:   tel,
		cfg:         cfg,
		logger:      log,
		slot:        make(chan struct{}, 1),
	}
}

// RunSync processes a batch in the caller's context and returns the
// result directly. Used for single-keyword requests.
func (r *SerpBatchRunner) RunSync(ctx context.Context, keywordIDs []int64) (*BatchResult, error) {
	if len(keywordIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	return r.runBatch(ctx, "", keywordIDs)
}

// StartBatch registers a task and processes the batch on the single
// background worker. Returns the task ID for progress polling and SSE.
func (r *SerpBatchRunner) StartBatch(keywordIDs []int64) (string, error) {
	if len(keywordIDs) == 0 {
		return "", ErrEmptyBatch
	}

	taskID := uuid.NewString()
	r.tracker.Start(taskID, len(keywordIDs))

	go func() {
		r.slot <- struct{}{}
		defer func() { <-r.slot }()

		// The batch outlives the HTTP request that started it.
		if _, err := r.runBatch(context.Background(), taskID, keywordIDs); err != nil {
			r.logger.Error("Batch failed",
				logger.String("task_id", taskID),
				logger.Error(err),
			)
		}
	}()

	return taskID, nil
}

func (r *SerpBatchRunner) runBatch(ctx context.Context, taskID string, keywordIDs []int64) (*BatchResult, error) {
	started := time.Now()

	if r.telemetry != nil {
		var span trace.Span
		ctx, span = r.telemetry.StartSpan(ctx, "serp.run_batch",
			attribute.String("batch.task_id", taskID),
			attribute.Int("batch.size", len(keywordIDs)),
		)
		defer span.End()
	}

	keywords, err := r.keywords.GetByIDs(ctx, keywordIDs)
	if err != nil {
		err = fmt.Errorf("load keywords: %w", err)
		r.finishError(ctx, taskID, err)
		return nil, err
	}

	tracked, err := r.competitors.SchoolDomains(ctx)
	if err != nil {
		err = fmt.Errorf("load school domains: %w", err)
		r.finishError(ctx, taskID, err)
		return nil, err
	}

	result := &BatchResult{
		TaskID:  taskID,
		Total:   len(keywordIDs),
		Skipped: len(keywordIDs) - len(keywords),
	}

	// Campaign site lookups are memoized per batch.
	sites := make(map[int64]string)

	for i := range keywords {
		kw := &keywords[i]

		if err := ctx.Err(); err != nil {
			r.finishError(ctx, taskID, err)
			return nil, fmt.Errorf("batch cancelled: %w", err)
		}

		r.reportProgress(ctx, taskID, i, result.Total, kw.Text)

		ourDomain, ok := sites[kw.CampaignID]
		if !ok {
			site, err := r.campaigns.GetCampaignSite(ctx, kw.CampaignID)
			if err != nil {
				result.addError(kw, fmt.Errorf("resolve campaign site: %w", err))
				result.Processed++
				// Failed keywords still advance the progress counter.
				r.reportProgress(ctx, taskID, i+1, result.Total, kw.Text)
				continue
			}
			if site != nil {
				ourDomain = serp.Normalize(site.Domain)
			}
			sites[kw.CampaignID] = ourDomain
		}

		analysis, err := r.processKeyword(ctx, kw, ourDomain, tracked)
		result.Processed++
		if err != nil {
			result.addError(kw, err)
			if r.telemetry != nil {
				r.telemetry.RecordKeywordProcessed(false)
			}
			r.logger.Warn("Keyword analysis failed",
				logger.Int64("keyword_id", kw.ID),
				logger.String("keyword", kw.Text),
				logger.Error(err),
			)
			r.reportProgress(ctx, taskID, i+1, result.Total, kw.Text)
			continue
		}

		result.Succeeded++
		result.Cost += analysis.Cost
		if r.telemetry != nil {
			r.telemetry.RecordKeywordProcessed(true)
		}

		r.reportProgress(ctx, taskID, i+1, result.Total, kw.Text)
	}

	if err := r.competitors.RecomputeCompetitiveness(ctx); err != nil {
		r.logger.Warn("Competitiveness recompute failed", logger.Error(err))
	}

	if r.telemetry != nil {
		r.telemetry.RecordBatch(len(keywords), time.Since(started))
		r.telemetry.RecordProviderCost(result.Cost)
	}

	r.logger.Info("Batch complete",
		logger.String("task_id", taskID),
		logger.Int("total", result.Total),
		logger.Int("succeeded", result.Succeeded),
		logger.Int("failed", result.Failed),
		logger.Int("skipped", result.Skipped),
		logger.Float64("cost", result.Cost),
		logger.Duration("duration", time.Since(started)),
	)

	if taskID != "" {
		r.tracker.Complete(taskID, result)
		if r.publisher != nil {
			if err := r.publisher.Publish(ctx, sse.NewCompleteEvent(taskID, result.Total, result)); err != nil {
				r.logger.Debug("Publish complete event failed", logger.Error(err))
			}
		}
	}

	return result, nil
}

// processKeyword fetches, analyzes and persists one keyword.
func (r *SerpBatchRunner) processKeyword(ctx context.Context, kw *domain.Keyword, ourDomain string, tracked []string) (*domain.SerpAnalysis, error) {
	if r.telemetry != nil {
		var span trace.Span
		ctx, span = r.telemetry.StartSpan(ctx, "serp.process_keyword",
			attribute.Int64("keyword.id", kw.ID),
			attribute.String("keyword.text", kw.Text),
		)
		defer span.End()
	}

	fetchStart := time.Now()
	snap, err := r.client.FetchSerp(ctx, dataforseo.SerpRequest{
		Keyword:      kw.Text,
		LocationCode: r.cfg.LocationCode,
		LanguageCode: r.cfg.LanguageCode,
		Device:       r.cfg.Device,
		Depth:        r.cfg.Depth,
	})
	r.recordFetch(ctx, err, time.Since(fetchStart))
	if err != nil {
		return nil, fmt.Errorf("fetch serp: %w", err)
	}

	items := make([]serp.RawItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, serp.RawItem{
			Type:         it.Type,
			RankGroup:    it.RankGroup,
			RankAbsolute: it.RankAbsolute,
			Domain:       it.Domain,
			Title:        it.Title,
			URL:          it.URL,
			Description:  it.Description,
			SubItemCount: len(it.Items),
		})
	}

	analysis := r.analyzer.Analyze(items, ourDomain, tracked)
	if analysis == nil {
		return nil, fmt.Errorf("no serp items for %q: %w", kw.Text, dataforseo.ErrNoData)
	}

	intent := analysis.Intent
	record := &domain.SerpAnalysis{
		KeywordID:    kw.ID,
		KeywordText:  kw.Text,
		CampaignID:   kw.CampaignID,
		AnalysisDate: time.Now().UTC(),

		TotalItems:   analysis.TotalItems,
		OrganicCount: analysis.OrganicCount,
		PaidCount:    analysis.PaidCount,
		MapsCount:    analysis.MapsCount,

		HasAds:        analysis.HasAds,
		HasGoogleMaps: analysis.HasGoogleMaps,
		HasOurSite:    analysis.HasOurSite,
		IntentType:    &intent,

		OurPosition:       analysis.OurPosition,
		OurActualPosition: analysis.OurActualPosition,
		SchoolPercentage:  analysis.SchoolPercentage,

		Cost: snap.Cost,

		OrganicItems: analysis.OrganicItems,
		PaidItems:    analysis.PaidItems,
		MapsItems:    analysis.MapsItems,

		RawPayload: snap.Raw,
	}

	appearances, err := r.resolveAppearances(ctx, analysis.Appearances)
	if err != nil {
		return nil, err
	}

	if err := r.history.SaveAnalysis(ctx, record, appearances); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	return record, nil
}

// resolveAppearances registers unseen competitor domains and maps the
// candidates onto persisted appearance rows.
func (r *SerpBatchRunner) resolveAppearances(ctx context.Context, candidates []serp.AppearanceCandidate) ([]domain.CompetitorAppearance, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	appearances := make([]domain.CompetitorAppearance, 0, len(candidates))
	ids := make(map[string]int64, len(candidates))

	for _, cand := range candidates {
		id, ok := ids[cand.Domain]
		if !ok {
			var err error
			id, err = r.competitors.EnsureDomain(ctx, cand.Domain)
			if err != nil {
				return nil, fmt.Errorf("register competitor %q: %w", cand.Domain, err)
			}
			ids[cand.Domain] = id
		}

		appearances = append(appearances, domain.CompetitorAppearance{
			CompetitorID: id,
			Position:     cand.Position,
			Category:     cand.Category,
			URL:          cand.URL,
			Title:        cand.Title,
		})
	}

	return appearances, nil
}

func (r *SerpBatchRunner) reportProgress(ctx context.Context, taskID string, current, total int, keyword string) {
	if taskID == "" {
		return
	}
	r.tracker.Update(taskID, current, keyword)
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, sse.NewProgressEvent(taskID, current, total, keyword)); err != nil {
			r.logger.Debug("Publish progress event failed", logger.Error(err))
		}
	}
}

func (r *SerpBatchRunner) finishError(ctx context.Context, taskID string, err error) {
	if taskID == "" {
		return
	}
	r.tracker.Fail(taskID, err.Error())
	if r.publisher != nil {
		if perr := r.publisher.Publish(ctx, sse.NewErrorEvent(taskID, err.Error())); perr != nil {
			r.logger.Debug("Publish error event failed", logger.Error(perr))
		}
	}
}

func (r *SerpBatchRunner) recordFetch(ctx context.Context, err error, d time.Duration) {
	if r.telemetry == nil {
		return
	}
	outcome := "ok"
	var provErr *dataforseo.ProviderError
	switch {
	case err == nil:
	case errors.As(err, &provErr):
		outcome = "provider_error"
	default:
		outcome = "network_error"
	}
	r.telemetry.RecordSerpFetch(ctx, outcome, d)
}
