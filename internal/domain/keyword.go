// Package domain defines the core types shared across the service.
package domain

import "time"

// KeywordStatus is the lifecycle status of a keyword.
type KeywordStatus string

// Keyword status constants.
const (
	KeywordStatusEnabled KeywordStatus = "Enabled"
	KeywordStatusPaused  KeywordStatus = "Paused"
	KeywordStatusRemoved KeywordStatus = "Removed"
)

// CriterionType is the match type of a keyword.
type CriterionType string

// Criterion type constants.
const (
	CriterionPhrase CriterionType = "Phrase"
	CriterionBroad  CriterionType = "Broad"
	CriterionExact  CriterionType = "Exact"
)

// Competition is the advertiser competition bucket reported by the
// keyword volume provider.
type Competition string

// Competition constants.
const (
	CompetitionHigh        Competition = "HIGH"
	CompetitionMedium      Competition = "MEDIUM"
	CompetitionLow         Competition = "LOW"
	CompetitionUnspecified Competition = "UNSPECIFIED"
)

// IntentType is the search intent derived for a keyword.
type IntentType string

// Intent type constants.
const (
	IntentCommercial    IntentType = "commercial"
	IntentInformational IntentType = "informational"
	IntentTransactional IntentType = "transactional"
	IntentNavigational  IntentType = "navigational"
)

// Keyword represents a tracked keyword under an ad group.
type Keyword struct {
	ID            int64         `db:"id"              json:"id"`
	CampaignID    int64         `db:"campaign_id"     json:"campaign_id"`
	AdGroupID     int64         `db:"ad_group_id"     json:"ad_group_id"`
	Text          string        `db:"text"            json:"text"`
	CriterionType CriterionType `db:"criterion_type"  json:"criterion_type"`
	Status        KeywordStatus `db:"status"          json:"status"`
	MaxCPC        *float64      `db:"max_cpc"         json:"max_cpc,omitempty"`
	Comment       *string       `db:"comment"         json:"comment,omitempty"`

	// Volume metrics from the keyword research provider.
	AvgMonthlySearches *int64       `db:"avg_monthly_searches" json:"avg_monthly_searches,omitempty"`
	Competition        *Competition `db:"competition"          json:"competition,omitempty"`
	CompetitionPercent *float64     `db:"competition_percent"  json:"competition_percent,omitempty"`
	LowTopOfPageBid    *float64     `db:"low_top_of_page_bid"  json:"low_top_of_page_bid,omitempty"`
	HighTopOfPageBid   *float64     `db:"high_top_of_page_bid" json:"high_top_of_page_bid,omitempty"`
	ThreeMonthChange   *float64     `db:"three_month_change"   json:"three_month_change,omitempty"`
	YearlyChange       *float64     `db:"yearly_change"        json:"yearly_change,omitempty"`

	// SERP classification fields, updated by the latest analysis.
	HasAds            bool        `db:"has_ads"             json:"has_ads"`
	HasSchoolSites    bool        `db:"has_school_sites"    json:"has_school_sites"`
	HasGoogleMaps     bool        `db:"has_google_maps"     json:"has_google_maps"`
	HasOurSite        bool        `db:"has_our_site"        json:"has_our_site"`
	IntentType        *IntentType `db:"intent_type"         json:"intent_type,omitempty"`
	OurPosition       *int        `db:"our_position"        json:"our_position,omitempty"`
	OurActualPosition *int        `db:"our_actual_position" json:"our_actual_position,omitempty"`
	LastSerpCheck     *time.Time  `db:"last_serp_check"     json:"last_serp_check,omitempty"`

	// Batch highlighting for newly imported keywords.
	IsNew      bool    `db:"is_new"      json:"is_new"`
	BatchColor *string `db:"batch_color" json:"batch_color,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the keyword participates in SERP tracking.
func (k *Keyword) IsActive() bool {
	return k.Status == KeywordStatusEnabled
}

// ValidKeywordStatus reports whether s is a known keyword status.
func ValidKeywordStatus(s KeywordStatus) bool {
	switch s {
	case KeywordStatusEnabled, KeywordStatusPaused, KeywordStatusRemoved:
		return true
	}
	return false
}

// ParseCompetition maps a raw provider competition string to the enum,
// falling back to UNSPECIFIED for unknown values.
func ParseCompetition(raw string) Competition {
	switch Competition(raw) {
	case CompetitionHigh, CompetitionMedium, CompetitionLow:
		return Competition(raw)
	}
	return CompetitionUnspecified
}
