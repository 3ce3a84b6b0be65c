package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SerpItemCategory is the coarse bucket a SERP item is classified into.
type SerpItemCategory string

// SERP item category constants.
const (
	SerpItemOrganic      SerpItemCategory = "organic"
	SerpItemPaid         SerpItemCategory = "paid"
	SerpItemMaps         SerpItemCategory = "maps"
	SerpItemUnclassified SerpItemCategory = "unclassified"
)

// SerpItem is a single classified result from a SERP snapshot.
// Position is the organic-only counter (1-based, organic items only);
// RankAbsolute is the provider's absolute rank across all item types.
type SerpItem struct {
	Category     SerpItemCategory `json:"category"`
	Position     int              `json:"position,omitempty"`
	RankGroup    int              `json:"rank_group,omitempty"`
	RankAbsolute int              `json:"rank_absolute,omitempty"`
	Domain       string           `json:"domain,omitempty"`
	Title        string           `json:"title,omitempty"`
	URL          string           `json:"url,omitempty"`
	Description  string           `json:"description,omitempty"`
	// ItemCount carries the number of sub-entries for container items
	// such as a maps pack.
	ItemCount int `json:"item_count,omitempty"`
}

// SerpItems is a JSON-encoded item list stored in a single column.
type SerpItems []SerpItem

// Value implements driver.Valuer.
func (s SerpItems) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal serp items: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (s *SerpItems) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("scan serp items: unexpected type %T", src)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal serp items: %w", err)
	}
	return nil
}

// SerpAnalysis is an immutable record of one SERP fetch for a keyword.
// Exactly one record is written per successful fetch.
type SerpAnalysis struct {
	ID           int64     `db:"id"            json:"id"`
	KeywordID    int64     `db:"keyword_id"    json:"keyword_id"`
	KeywordText  string    `db:"keyword_text"  json:"keyword_text"`
	CampaignID   int64     `db:"campaign_id"   json:"campaign_id"`
	AnalysisDate time.Time `db:"analysis_date" json:"analysis_date"`

	TotalItems   int `db:"total_items"   json:"total_items"`
	OrganicCount int `db:"organic_count" json:"organic_count"`
	PaidCount    int `db:"paid_count"    json:"paid_count"`
	MapsCount    int `db:"maps_count"    json:"maps_count"`

	HasAds        bool        `db:"has_ads"         json:"has_ads"`
	HasGoogleMaps bool        `db:"has_google_maps" json:"has_google_maps"`
	HasOurSite    bool        `db:"has_our_site"    json:"has_our_site"`
	IntentType    *IntentType `db:"intent_type"     json:"intent_type,omitempty"`

	// Our-site positions. OurPosition counts organic items only;
	// OurActualPosition is the provider's absolute rank.
	OurPosition       *int `db:"our_position"        json:"our_position,omitempty"`
	OurActualPosition *int `db:"our_actual_position" json:"our_actual_position,omitempty"`

	// SchoolPercentage is the share of organic results held by tracked
	// competitor domains, 0-100.
	SchoolPercentage float64 `db:"school_percentage" json:"school_percentage"`

	Cost float64 `db:"cost" json:"cost"`

	OrganicItems SerpItems `db:"organic_items" json:"organic_items"`
	PaidItems    SerpItems `db:"paid_items"    json:"paid_items"`
	MapsItems    SerpItems `db:"maps_items"    json:"maps_items"`

	// RawPayload keeps the upstream response for audit.
	RawPayload []byte `db:"raw_payload" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
