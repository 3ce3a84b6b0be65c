package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

// keywordColumns is the column list shared by keyword queries.
const keywordColumns = `
	id, campaign_id, ad_group_id, text, criterion_type, status, max_cpc, comment,
	avg_monthly_searches, competition, competition_percent,
	low_top_of_page_bid, high_top_of_page_bid, three_month_change, yearly_change,
	has_ads, has_school_sites, has_google_maps, has_our_site, intent_type,
	our_position, our_actual_position, last_serp_check,
	is_new, batch_color, created_at, updated_at`

// KeywordRepository handles database operations for keywords.
type KeywordRepository struct {
	db *sqlx.DB
}

// NewKeywordRepository creates a new keyword repository.
func NewKeywordRepository(db *sqlx.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

// KeywordFilter narrows List results.
type KeywordFilter struct {
	CampaignID *int64
	AdGroupID  *int64
	Status     *domain.KeywordStatus
	Search     string
	OnlyNew    bool
}

// List returns keywords matching the filter. Removed keywords are
// excluded unless the filter asks for them explicitly.
func (r *KeywordRepository) List(ctx context.Context, filter KeywordFilter) ([]domain.Keyword, error) {
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	} else {
		args = append(args, domain.KeywordStatusRemoved)
		query += fmt.Sprintf(" AND status <> $%d", len(args))
	}
	if filter.CampaignID != nil {
		args = append(args, *filter.CampaignID)
		query += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	if filter.AdGroupID != nil {
		args = append(args, *filter.AdGroupID)
		query += fmt.Sprintf(" AND ad_group_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND text ILIKE $%d", len(args))
	}
	if filter.OnlyNew {
		query += " AND is_new"
	}
	query += " ORDER BY text"

	var keywords []domain.Keyword
	if err := r.db.SelectContext(ctx, &keywords, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}

// GetByID retrieves a single keyword.
func (r *KeywordRepository) GetByID(ctx context.Context, id int64) (*domain.Keyword, error) {
	var kw domain.Keyword
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE id = $1`

	if err := r.db.GetContext(ctx, &kw, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("keyword %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}
	return &kw, nil
}

// GetByIDs retrieves the keywords with the given IDs, in the order the
// IDs were given. IDs without a matching row are silently absent from
// the result.
func (r *KeywordRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Keyword, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+keywordColumns+` FROM keywords WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.db.Rebind(query)

	var keywords []domain.Keyword
	if err := r.db.SelectContext(ctx, &keywords, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	return orderByRequest(ids, keywords), nil
}

// orderByRequest rearranges rows into the ID order the caller asked
// for. IN queries return rows in storage order, which must not leak
// into batch processing order.
func orderByRequest(ids []int64, keywords []domain.Keyword) []domain.Keyword {
	byID := make(map[int64]domain.Keyword, len(keywords))
	for _, kw := range keywords {
		byID[kw.ID] = kw
	}

	ordered := make([]domain.Keyword, 0, len(keywords))
	for _, id := range ids {
		if kw, ok := byID[id]; ok {
			ordered = append(ordered, kw)
		}
	}
	return ordered
}

// Create inserts a new keyword. Returns false without error when a
// keyword with the same text already exists in the ad group.
func (r *KeywordRepository) Create(ctx context.Context, kw *domain.Keyword) (bool, error) {
	query := `
		INSERT INTO keywords (
			campaign_id, ad_group_id, text, criterion_type, status, max_cpc, comment,
			avg_monthly_searches, competition, competition_percent,
			low_top_of_page_bid, high_top_of_page_bid, three_month_change, yearly_change,
			intent_type, is_new, batch_color
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (ad_group_id, text) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		kw.CampaignID, kw.AdGroupID, kw.Text, kw.CriterionType, kw.Status,
		kw.MaxCPC, kw.Comment,
		kw.AvgMonthlySearches, kw.Competition, kw.CompetitionPercent,
		kw.LowTopOfPageBid, kw.HighTopOfPageBid, kw.ThreeMonthChange, kw.YearlyChange,
		kw.IntentType, kw.IsNew, kw.BatchColor,
	).Scan(&kw.ID, &kw.CreatedAt, &kw.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Duplicate within the ad group, skipped.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create keyword: %w", err)
	}
	return true, nil
}

// Update modifies the editable fields of a keyword.
func (r *KeywordRepository) Update(ctx context.Context, kw *domain.Keyword) error {
	query := `
		UPDATE keywords
		SET text = $2, criterion_type = $3, status = $4, max_cpc = $5,
		    comment = $6, updated_at = now()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		kw.ID, kw.Text, kw.CriterionType, kw.Status, kw.MaxCPC, kw.Comment)
	if err != nil {
		return fmt.Errorf("failed to update keyword: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("keyword %d: %w", kw.ID, ErrNotFound)
	}
	return nil
}

// SetStatus applies a status to the given keywords.
func (r *KeywordRepository) SetStatus(ctx context.Context, ids []int64, status domain.KeywordStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`UPDATE keywords SET status = ?, updated_at = now() WHERE id IN (?)`, status, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.db.Rebind(query)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to set keyword status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListTrash returns soft-deleted keywords.
func (r *KeywordRepository) ListTrash(ctx context.Context) ([]domain.Keyword, error) {
	var keywords []domain.Keyword
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE status = $1 ORDER BY updated_at DESC`

	if err := r.db.SelectContext(ctx, &keywords, query, domain.KeywordStatusRemoved); err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	return keywords, nil
}

// PurgeTrash hard-deletes keywords removed before the cutoff.
func (r *KeywordRepository) PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM keywords WHERE status = $1 AND updated_at < $2`,
		domain.KeywordStatusRemoved, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge trash: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AcceptNewBatch clears the new-batch marking for an ad group, keeping
// the keywords.
func (r *KeywordRepository) AcceptNewBatch(ctx context.Context, adGroupID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE keywords SET is_new = FALSE, batch_color = NULL, updated_at = now()
		 WHERE ad_group_id = $1 AND is_new`, adGroupID)
	if err != nil {
		return 0, fmt.Errorf("failed to accept batch: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RejectNewBatch deletes the still-marked keywords of an ad group.
func (r *KeywordRepository) RejectNewBatch(ctx context.Context, adGroupID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM keywords WHERE ad_group_id = $1 AND is_new`, adGroupID)
	if err != nil {
		return 0, fmt.Errorf("failed to reject batch: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// updateSerpFieldsTx writes the latest analysis outcome onto the
// keyword row inside an existing transaction.
func updateSerpFieldsTx(ctx context.Context, tx *sqlx.Tx, analysis *domain.SerpAnalysis) error {
	query := `
		UPDATE keywords
		SET has_ads = $2, has_school_sites = $3, has_google_maps = $4, has_our_site = $5,
		    intent_type = $6, our_position = $7, our_actual_position = $8,
		    last_serp_check = $9, updated_at = now()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query,
		analysis.KeywordID,
		analysis.HasAds,
		analysis.SchoolPercentage > 0,
		analysis.HasGoogleMaps,
		analysis.HasOurSite,
		analysis.IntentType,
		analysis.OurPosition,
		analysis.OurActualPosition,
		analysis.AnalysisDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update keyword serp fields: %w", err)
	}
	return nil
}
