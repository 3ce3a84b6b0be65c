package processor

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/telemetry"
)

// IdeaFetcher fetches keyword suggestions with volume metrics.
type IdeaFetcher interface {
	KeywordIdeas(ctx context.Context, seeds []string, locationCode int, languageCode string) (*dataforseo.KeywordIdeasResult, error)
}

// IngestParams describes one volume ingestion request.
type IngestParams struct {
	CampaignID int64
	AdGroupID  int64
	Seeds      []string
	// BatchColor marks the inserted keywords for review.
	BatchColor string
	// MinVolume drops ideas below this monthly search volume.
	MinVolume int64
}

// IngestResult summarizes a volume ingestion run.
type IngestResult struct {
	Total   int     `json:"total"`
	Added   int     `json:"added"`
	Skipped int     `json:"skipped"`
	Failed  int     `json:"failed"`
	Cost    float64 `json:"cost"`
	// Errors holds at most maxReportedErrors entries.
	Errors        []string `json:"errors,omitempty"`
	ErrorsOmitted int      `json:"errors_omitted,omitempty"`
}

func (r *IngestResult) addError(keyword string, err error) {
	r.Failed++
	if len(r.Errors) >= maxReportedErrors {
		r.ErrorsOmitted++
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", keyword, err))
}

// VolumeIngester turns seed keywords into stored keyword rows with
// volume metrics from the provider.
type VolumeIngester struct {
	keywords  KeywordStore
	campaigns CampaignStore
	client    IdeaFetcher
	telemetry *telemetry.Provider
	cfg       config.SerpConfig
	logger    logger.Logger
}

// NewVolumeIngester creates a volume ingester. telemetry may be nil.
func NewVolumeIngester(
	keywords KeywordStore,
	campaigns CampaignStore,
	client IdeaFetcher,
	tel *telemetry.Provider,
	cfg config.SerpConfig,
	log logger.Logger,
) *VolumeIngester {
	return &VolumeIngester{
		keywords:  keywords,
		campaigns: campaigns,
		client:    client,
		telemetry: tel,
		cfg:       cfg,
		logger:    log,
	}
}

// Ingest fetches keyword ideas for the seeds and inserts them under the
// ad group. Duplicates within the ad group are skipped, not errors.
func (v *VolumeIngester) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	seeds := normalizeSeeds(params.Seeds)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed keywords given")
	}

	if v.telemetry != nil {
		var span trace.Span
		ctx, span = v.telemetry.StartSpan(ctx, "volume.ingest",
			attribute.Int64("ad_group.id", params.AdGroupID),
			attribute.Int("seed.count", len(seeds)),
		)
		defer span.End()
	}

	group, err := v.campaigns.GetAdGroup(ctx, params.AdGroupID)
	if err != nil {
		return nil, fmt.Errorf("resolve ad group: %w", err)
	}
	if group.CampaignID != params.CampaignID {
		return nil, fmt.Errorf("ad group %d does not belong to campaign %d", params.AdGroupID, params.CampaignID)
	}

	ideas, err := v.client.KeywordIdeas(ctx, seeds, v.cfg.LocationCode, v.cfg.LanguageCode)
	if err != nil {
		return nil, fmt.Errorf("fetch keyword ideas: %w", err)
	}

	result := &IngestResult{Cost: ideas.Cost}

	var batchColor *string
	if params.BatchColor != "" {
		batchColor = &params.BatchColor
	}

	for _, idea := range ideas.Ideas {
		text := strings.TrimSpace(idea.Keyword)
		if text == "" {
			continue
		}
		result.Total++

		if idea.SearchVolume < params.MinVolume {
			result.Skipped++
			continue
		}

		kw := buildKeyword(params, idea, text, batchColor)

		created, err := v.keywords.Create(ctx, kw)
		if err != nil {
			result.addError(text, err)
			continue
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Added++
	}

	if v.telemetry != nil {
		v.telemetry.RecordIngestion(result.Added, result.Skipped, result.Failed)
		v.telemetry.RecordProviderCost(result.Cost)
	}

	v.logger.Info("Volume ingestion complete",
		logger.Int64("ad_group_id", params.AdGroupID),
		logger.Int("seeds", len(seeds)),
		logger.Int("total", result.Total),
		logger.Int("added", result.Added),
		logger.Int("skipped", result.Skipped),
		logger.Int("failed", result.Failed),
		logger.Float64("cost", result.Cost),
	)

	return result, nil
}

// buildKeyword maps one provider idea onto a keyword row.
func buildKeyword(params IngestParams, idea dataforseo.KeywordIdea, text string, batchColor *string) *domain.Keyword {
	volume := idea.SearchVolume
	competition := domain.ParseCompetition(idea.Competition)
	three, yearly := dataforseo.ComputeTrends(idea.MonthlySearches)

	kw := &domain.Keyword{
		CampaignID:         params.CampaignID,
		AdGroupID:          params.AdGroupID,
		Text:               text,
		CriterionType:      domain.CriterionBroad,
		Status:             domain.KeywordStatusEnabled,
		AvgMonthlySearches: &volume,
		Competition:        &competition,
		ThreeMonthChange:   three,
		YearlyChange:       yearly,
		IntentType:         DeriveIntent(text, idea.SerpItemTypes),
		IsNew:              true,
		BatchColor:         batchColor,
	}

	if idea.CompetitionIndex > 0 {
		pct := idea.CompetitionIndex
		kw.CompetitionPercent = &pct
	}
	if idea.LowTopOfPageBid > 0 {
		low := idea.LowTopOfPageBid
		kw.LowTopOfPageBid = &low
	}
	if idea.HighTopOfPageBid > 0 {
		high := idea.HighTopOfPageBid
		kw.HighTopOfPageBid = &high
	}

	return kw
}

// normalizeSeeds trims, lowercases and dedupes seed keywords.
func normalizeSeeds(seeds []string) []string {
	seen := make(map[string]struct{}, len(seeds))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
