package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

// CampaignRepository handles campaigns, ad groups and campaign sites.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// ListCampaigns returns all campaigns.
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	query := `SELECT id, name, status, created_at, updated_at FROM campaigns ORDER BY name`

	if err := r.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// GetCampaign retrieves a campaign by ID.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	var campaign domain.Campaign
	query := `SELECT id, name, status, created_at, updated_at FROM campaigns WHERE id = $1`

	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("campaign %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

// CreateCampaign inserts a campaign.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	query := `INSERT INTO campaigns (name, status) VALUES ($1, $2) RETURNING id, created_at, updated_at`

	if c.Status == "" {
		c.Status = "Enabled"
	}
	if err := r.db.QueryRowContext(ctx, query, c.Name, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// ListAdGroups returns the ad groups of a campaign.
func (r *CampaignRepository) ListAdGroups(ctx context.Context, campaignID int64) ([]domain.AdGroup, error) {
	var groups []domain.AdGroup
	query := `SELECT id, campaign_id, name, status, created_at, updated_at
		FROM ad_groups WHERE campaign_id = $1 ORDER BY name`

	if err := r.db.SelectContext(ctx, &groups, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list ad groups: %w", err)
	}
	return groups, nil
}

// GetAdGroup retrieves an ad group by ID.
func (r *CampaignRepository) GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error) {
	var group domain.AdGroup
	query := `SELECT id, campaign_id, name, status, created_at, updated_at FROM ad_groups WHERE id = $1`

	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ad group %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ad group: %w", err)
	}
	return &group, nil
}

// CreateAdGroup inserts an ad group.
func (r *CampaignRepository) CreateAdGroup(ctx context.Context, g *domain.AdGroup) error {
	query := `INSERT INTO ad_groups (campaign_id, name, status)
		VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`

	if g.Status == "" {
		g.Status = "Enabled"
	}
	if err := r.db.QueryRowContext(ctx, query, g.CampaignID, g.Name, g.Status).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create ad group: %w", err)
	}
	return nil
}

// GetCampaignSite returns the site bound to a campaign, or nil when the
// campaign has no site configured.
func (r *CampaignRepository) GetCampaignSite(ctx context.Context, campaignID int64) (*domain.CampaignSite, error) {
	var site domain.CampaignSite
	query := `SELECT id, campaign_id, site_url, domain, created_at, updated_at
		FROM campaign_sites WHERE campaign_id = $1`

	if err := r.db.GetContext(ctx, &site, query, campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign site: %w", err)
	}
	return &site, nil
}

// SetCampaignSite creates or replaces the site bound to a campaign.
func (r *CampaignRepository) SetCampaignSite(ctx context.Context, site *domain.CampaignSite) error {
	query := `
		INSERT INTO campaign_sites (campaign_id, site_url, domain)
		VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id) DO UPDATE
		SET site_url = EXCLUDED.site_url, domain = EXCLUDED.domain, updated_at = now()
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowContext(ctx, query, site.CampaignID, site.SiteURL, site.Domain).
		Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set campaign site: %w", err)
	}
	return nil
}
