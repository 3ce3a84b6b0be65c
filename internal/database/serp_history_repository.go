package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

const analysisColumns = `
	id, keyword_id, keyword_text, campaign_id, analysis_date,
	total_items, organic_count, paid_count, maps_count,
	has_ads, has_google_maps, has_our_site, intent_type,
	our_position, our_actual_position, school_percentage, cost,
	organic_items, paid_items, maps_items, created_at`

// SerpHistoryRepository handles the SERP analysis history and the
// transactional persistence of a completed analysis.
type SerpHistoryRepository struct {
	db *sqlx.DB
}

// NewSerpHistoryRepository creates a new SERP history repository.
func NewSerpHistoryRepository(db *sqlx.DB) *SerpHistoryRepository {
	return &SerpHistoryRepository{db: db}
}

// SaveAnalysis persists one completed analysis atomically: the history
// row, the keyword's classification fields and the competitor
// appearance rows commit or roll back together. Appearance entries must
// already reference resolved competitor IDs.
func (r *SerpHistoryRepository) SaveAnalysis(ctx context.Context, analysis *domain.SerpAnalysis, appearances []domain.CompetitorAppearance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := insertAnalysisTx(ctx, tx, analysis); err != nil {
		return err
	}

	if err := updateSerpFieldsTx(ctx, tx, analysis); err != nil {
		return err
	}

	for i := range appearances {
		appearances[i].AnalysisID = analysis.ID
		if err := insertAppearanceTx(ctx, tx, &appearances[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}
	return nil
}

func insertAnalysisTx(ctx context.Context, tx *sqlx.Tx, a *domain.SerpAnalysis) error {
	query := `
		INSERT INTO serp_analysis_history (
			keyword_id, keyword_text, campaign_id, analysis_date,
			total_items, organic_count, paid_count, maps_count,
			has_ads, has_google_maps, has_our_site, intent_type,
			our_position, our_actual_position, school_percentage, cost,
			organic_items, paid_items, maps_items, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at
	`

	rawPayload := a.RawPayload
	if len(rawPayload) == 0 {
		rawPayload = nil
	}

	err := tx.QueryRowContext(ctx, query,
		a.KeywordID, a.KeywordText, a.CampaignID, a.AnalysisDate,
		a.TotalItems, a.OrganicCount, a.PaidCount, a.MapsCount,
		a.HasAds, a.HasGoogleMaps, a.HasOurSite, a.IntentType,
		a.OurPosition, a.OurActualPosition, a.SchoolPercentage, a.Cost,
		a.OrganicItems, a.PaidItems, a.MapsItems, rawPayload,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert serp analysis: %w", err)
	}
	return nil
}

func insertAppearanceTx(ctx context.Context, tx *sqlx.Tx, app *domain.CompetitorAppearance) error {
	query := `
		INSERT INTO competitor_appearances (analysis_id, competitor_id, position, category, url, title)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := tx.QueryRowContext(ctx, query,
		app.AnalysisID, app.CompetitorID, app.Position, app.Category, app.URL, app.Title,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert competitor appearance: %w", err)
	}
	return nil
}

// ListByKeyword returns the analysis history for a keyword, newest first.
func (r *SerpHistoryRepository) ListByKeyword(ctx context.Context, keywordID int64, limit int) ([]domain.SerpAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}

	var history []domain.SerpAnalysis
	query := `SELECT ` + analysisColumns + `
		FROM serp_analysis_history
		WHERE keyword_id = $1
		ORDER BY id DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &history, query, keywordID, limit); err != nil {
		return nil, fmt.Errorf("failed to list serp history: %w", err)
	}
	return history, nil
}

// LatestByKeyword returns the most recent analysis for a keyword, or
// nil when the keyword has never been analyzed.
func (r *SerpHistoryRepository) LatestByKeyword(ctx context.Context, keywordID int64) (*domain.SerpAnalysis, error) {
	history, err := r.ListByKeyword(ctx, keywordID, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}
