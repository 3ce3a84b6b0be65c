package domain

import "time"

// Campaign represents an advertising campaign grouping ad groups and keywords.
type Campaign struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AdGroup represents an ad group within a campaign.
type AdGroup struct {
	ID         int64     `db:"id"          json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	Name       string    `db:"name"        json:"name"`
	Status     string    `db:"status"      json:"status"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

// CampaignSite binds a campaign to the operator's own site.
// SERP analyses for the campaign's keywords match organic results
// against Domain.
type CampaignSite struct {
	ID         int64     `db:"id"          json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	SiteURL    string    `db:"site_url"    json:"site_url"`
	Domain     string    `db:"domain"      json:"domain"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
