package serp

import (
	"testing"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		itemType string
		want     domain.SerpItemCategory
	}{
		{"organic", domain.SerpItemOrganic},
		{"paid", domain.SerpItemPaid},
		{"ad", domain.SerpItemPaid},
		{"ads", domain.SerpItemPaid},
		{"shopping", domain.SerpItemPaid},
		{"google_flights", domain.SerpItemPaid},
		{"google_hotels", domain.SerpItemPaid},
		{"local_pack", domain.SerpItemMaps},
		{"map", domain.SerpItemMaps},
		{"maps", domain.SerpItemMaps},
		{"google_maps", domain.SerpItemMaps},
		{"featured_snippet", domain.SerpItemUnclassified},
		{"people_also_ask", domain.SerpItemUnclassified},
		{"", domain.SerpItemUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.itemType, func(t *testing.T) {
			if got := Categorize(tt.itemType); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.itemType, got, tt.want)
			}
		})
	}
}

func TestClassifyItemNormalizesDomain(t *testing.T) {
	item := classifyItem(RawItem{
		Type:         "organic",
		RankAbsolute: 3,
		Domain:       "WWW.Example.com",
		URL:          "https://www.example.com/page",
	})

	if item.Domain != "example.com" {
		t.Errorf("classified domain = %q, want %q", item.Domain, "example.com")
	}
	if item.Category != domain.SerpItemOrganic {
		t.Errorf("category = %q, want organic", item.Category)
	}
	if item.RankAbsolute != 3 {
		t.Errorf("rank_absolute = %d, want 3", item.RankAbsolute)
	}
}
