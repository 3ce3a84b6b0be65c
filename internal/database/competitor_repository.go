package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

const competitorColumns = `
	id, domain, org_type, competitiveness, last_seen_at, notes, is_new, created_at, updated_at`

// CompetitorRepository handles competitor domains, their appearances
// and the derived competitiveness scores.
type CompetitorRepository struct {
	db *sqlx.DB
}

// NewCompetitorRepository creates a new competitor repository.
func NewCompetitorRepository(db *sqlx.DB) *CompetitorRepository {
	return &CompetitorRepository{db: db}
}

// List returns all competitor domains ordered by competitiveness.
func (r *CompetitorRepository) List(ctx context.Context) ([]domain.CompetitorDomain, error) {
	var competitors []domain.CompetitorDomain
	query := `SELECT ` + competitorColumns + ` FROM competitor_domains ORDER BY competitiveness DESC, domain`

	if err := r.db.SelectContext(ctx, &competitors, query); err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	return competitors, nil
}

// GetByID retrieves a competitor by ID.
func (r *CompetitorRepository) GetByID(ctx context.Context, id int64) (*domain.CompetitorDomain, error) {
	var competitor domain.CompetitorDomain
	query := `SELECT ` + competitorColumns + ` FROM competitor_domains WHERE id = $1`

	if err := r.db.GetContext(ctx, &competitor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("competitor %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return &competitor, nil
}

// Create inserts a competitor domain.
func (r *CompetitorRepository) Create(ctx context.Context, c *domain.CompetitorDomain) error {
	query := `
		INSERT INTO competitor_domains (domain, org_type, notes, is_new)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, c.Domain, c.OrgType, c.Notes, c.IsNew).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return nil
}

// Update modifies a competitor's classification and notes.
func (r *CompetitorRepository) Update(ctx context.Context, c *domain.CompetitorDomain) error {
	query := `
		UPDATE competitor_domains
		SET org_type = $2, notes = $3, is_new = $4, updated_at = now()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, c.ID, c.OrgType, c.Notes, c.IsNew)
	if err != nil {
		return fmt.Errorf("failed to update competitor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("competitor %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a competitor and its appearance history.
func (r *CompetitorRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM competitor_domains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete competitor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("competitor %d: %w", id, ErrNotFound)
	}
	return nil
}

// EnsureDomain returns the competitor ID for a normalized domain,
// auto-registering unseen domains as new with the default org type.
func (r *CompetitorRepository) EnsureDomain(ctx context.Context, normalizedDomain string) (int64, error) {
	query := `
		INSERT INTO competitor_domains (domain, org_type, is_new)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (domain) DO UPDATE SET updated_at = now()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, normalizedDomain, domain.OrgTypeNotSchool).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure competitor domain: %w", err)
	}
	return id, nil
}

// SchoolDomains returns the domains counted into school percentages.
func (r *CompetitorRepository) SchoolDomains(ctx context.Context) ([]string, error) {
	var domains []string
	query := `SELECT domain FROM competitor_domains WHERE org_type = $1`

	if err := r.db.SelectContext(ctx, &domains, query, domain.OrgTypeSchool); err != nil {
		return nil, fmt.Errorf("failed to list school domains: %w", err)
	}
	return domains, nil
}

// RecomputeCompetitiveness recalculates the derived fields for every
// competitor in one set-based statement. Competitiveness counts the
// distinct keywords on whose latest analysis the competitor appears;
// last_seen_at is the most recent appearance over the full history.
// The operation is idempotent.
func (r *CompetitorRepository) RecomputeCompetitiveness(ctx context.Context) error {
	query := `
		UPDATE competitor_domains cd
		SET competitiveness = COALESCE((
			SELECT COUNT(DISTINCT sa.keyword_id)
			FROM competitor_appearances ca
			JOIN serp_analysis_history sa ON sa.id = ca.analysis_id
			WHERE ca.competitor_id = cd.id
			  AND sa.id IN (
				SELECT MAX(id) FROM serp_analysis_history GROUP BY keyword_id
			  )
		), 0),
		last_seen_at = (
			SELECT MAX(sa.analysis_date)
			FROM competitor_appearances ca
			JOIN serp_analysis_history sa ON sa.id = ca.analysis_id
			WHERE ca.competitor_id = cd.id
		),
		updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to recompute competitiveness: %w", err)
	}
	return nil
}

// CompetitorStats aggregates appearance counts for one competitor.
type CompetitorStats struct {
	CompetitorID    int64   `db:"competitor_id"    json:"competitor_id"`
	Domain          string  `db:"domain"           json:"domain"`
	Appearances     int     `db:"appearances"      json:"appearances"`
	OrganicCount    int     `db:"organic_count"    json:"organic_count"`
	PaidCount       int     `db:"paid_count"       json:"paid_count"`
	AvgPosition     float64 `db:"avg_position"     json:"avg_position"`
	DistinctQueries int     `db:"distinct_queries" json:"distinct_queries"`
}

// Stats returns appearance statistics for a competitor over the full
// analysis history.
func (r *CompetitorRepository) Stats(ctx context.Context, id int64) (*CompetitorStats, error) {
	var stats CompetitorStats
	query := `
		SELECT
			cd.id AS competitor_id,
			cd.domain,
			COUNT(ca.id) AS appearances,
			SUM(CASE WHEN ca.category = 'organic' THEN 1 ELSE 0 END) AS organic_count,
			SUM(CASE WHEN ca.category = 'paid' THEN 1 ELSE 0 END) AS paid_count,
			COALESCE(AVG(CASE WHEN ca.category = 'organic' THEN ca.position END), 0) AS avg_position,
			COUNT(DISTINCT sa.keyword_id) AS distinct_queries
		FROM competitor_domains cd
		LEFT JOIN competitor_appearances ca ON ca.competitor_id = cd.id
		LEFT JOIN serp_analysis_history sa ON sa.id = ca.analysis_id
		WHERE cd.id = $1
		GROUP BY cd.id, cd.domain
	`

	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("competitor %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get competitor stats: %w", err)
	}
	return &stats, nil
}
