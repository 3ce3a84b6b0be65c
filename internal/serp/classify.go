package serp

import (
	"github.com/keywordlock/serp-tracker/internal/domain"
)

// RawItem is one upstream SERP result before classification.
type RawItem struct {
	Type         string
	RankGroup    int
	RankAbsolute int
	Domain       string
	Title        string
	URL          string
	Description  string
	// SubItemCount is the number of entries inside a container item
	// such as a maps pack.
	SubItemCount int
}

// categoryByType maps upstream item type strings to categories.
// Unknown types classify as unclassified; they are skipped by the
// analyzer but never treated as errors.
var categoryByType = map[string]domain.SerpItemCategory{
	"organic": domain.SerpItemOrganic,

	"paid":           domain.SerpItemPaid,
	"ad":             domain.SerpItemPaid,
	"ads":            domain.SerpItemPaid,
	"shopping":       domain.SerpItemPaid,
	"google_flights": domain.SerpItemPaid,
	"google_hotels":  domain.SerpItemPaid,

	"local_pack":  domain.SerpItemMaps,
	"map":         domain.SerpItemMaps,
	"maps":        domain.SerpItemMaps,
	"google_maps": domain.SerpItemMaps,
}

// Categorize returns the category for an upstream item type string.
func Categorize(itemType string) domain.SerpItemCategory {
	if cat, ok := categoryByType[itemType]; ok {
		return cat
	}
	return domain.SerpItemUnclassified
}

// classifyItem converts a raw item into a classified SerpItem.
// Position is filled in later by the analyzer for organic items.
func classifyItem(raw RawItem) domain.SerpItem {
	return domain.SerpItem{
		Category:     Categorize(raw.Type),
		RankGroup:    raw.RankGroup,
		RankAbsolute: raw.RankAbsolute,
		Domain:       Normalize(raw.Domain),
		Title:        raw.Title,
		URL:          raw.URL,
		Description:  raw.Description,
		ItemCount:    raw.SubItemCount,
	}
}
