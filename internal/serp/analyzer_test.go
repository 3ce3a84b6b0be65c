package serp

import (
	"testing"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

func TestAnalyzeEmptyItemsReturnsNil(t *testing.T) {
	a := NewAnalyzer(nil)

	if got := a.Analyze(nil, "example.com", nil); got != nil {
		t.Errorf("Analyze(nil items) = %+v, want nil", got)
	}
	if got := a.Analyze([]RawItem{}, "example.com", nil); got != nil {
		t.Errorf("Analyze(empty items) = %+v, want nil", got)
	}
}

func TestAnalyzeOrganicPositionSkipsNonOrganic(t *testing.T) {
	// Our site is the third item overall but only the second organic one.
	items := []RawItem{
		{Type: "paid", RankAbsolute: 1, Domain: "ads.example.net"},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com"},
		{Type: "organic", RankAbsolute: 3, Domain: "oursite.com"},
	}

	a := NewAnalyzer(nil)
	res := a.Analyze(items, "oursite.com", nil)
	if res == nil {
		t.Fatal("Analyze returned nil")
	}

	if !res.HasOurSite {
		t.Error("HasOurSite = false, want true")
	}
	if res.OurPosition == nil || *res.OurPosition != 2 {
		t.Errorf("OurPosition = %v, want 2", res.OurPosition)
	}
	if res.OurActualPosition == nil || *res.OurActualPosition != 3 {
		t.Errorf("OurActualPosition = %v, want 3", res.OurActualPosition)
	}
}

func TestAnalyzeFirstMatchWins(t *testing.T) {
	items := []RawItem{
		{Type: "organic", RankAbsolute: 1, Domain: "oursite.com"},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com"},
		{Type: "organic", RankAbsolute: 3, Domain: "blog.oursite.com"},
	}

	a := NewAnalyzer(nil)
	res := a.Analyze(items, "oursite.com", nil)
	if res == nil {
		t.Fatal("Analyze returned nil")
	}

	if res.OurPosition == nil || *res.OurPosition != 1 {
		t.Errorf("OurPosition = %v, want 1 (first match must win)", res.OurPosition)
	}
	if res.OurActualPosition == nil || *res.OurActualPosition != 1 {
		t.Errorf("OurActualPosition = %v, want 1", res.OurActualPosition)
	}
}

func TestAnalyzeIntentFromAds(t *testing.T) {
	a := NewAnalyzer(nil)

	withAds := a.Analyze([]RawItem{
		{Type: "paid", RankAbsolute: 1, Domain: "ads.example.net"},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com"},
	}, "", nil)
	if withAds.Intent != domain.IntentCommercial {
		t.Errorf("intent with ads = %q, want commercial", withAds.Intent)
	}
	if !withAds.HasAds {
		t.Error("HasAds = false, want true")
	}

	// Maps presence alone must not make intent commercial.
	noAds := a.Analyze([]RawItem{
		{Type: "local_pack", RankAbsolute: 1, SubItemCount: 3},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com"},
	}, "", nil)
	if noAds.Intent != domain.IntentInformational {
		t.Errorf("intent without ads = %q, want informational", noAds.Intent)
	}
	if !noAds.HasGoogleMaps {
		t.Error("HasGoogleMaps = false, want true")
	}
}

func TestAnalyzeSchoolPercentage(t *testing.T) {
	items := []RawItem{
		{Type: "organic", RankAbsolute: 1, Domain: "school-a.com"},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com"},
		{Type: "organic", RankAbsolute: 3, Domain: "school-b.com"},
		{Type: "organic", RankAbsolute: 4, Domain: "other.org"},
		{Type: "paid", RankAbsolute: 5, Domain: "school-a.com"},
	}

	a := NewAnalyzer(nil)
	res := a.Analyze(items, "", []string{"school-a.com", "school-b.com"})
	if res == nil {
		t.Fatal("Analyze returned nil")
	}

	// 2 of 4 organic results are tracked; the paid sighting must not count.
	if res.SchoolPercentage != 50 {
		t.Errorf("SchoolPercentage = %v, want 50", res.SchoolPercentage)
	}
}

func TestAnalyzeCounts(t *testing.T) {
	items := []RawItem{
		{Type: "paid", RankAbsolute: 1, Domain: "a.com"},
		{Type: "organic", RankAbsolute: 2, Domain: "b.com"},
		{Type: "local_pack", RankAbsolute: 3, SubItemCount: 3},
		{Type: "organic", RankAbsolute: 4, Domain: "c.com"},
		{Type: "featured_snippet", RankAbsolute: 5, Domain: "d.com"},
	}

	a := NewAnalyzer(nil)
	res := a.Analyze(items, "", nil)
	if res == nil {
		t.Fatal("Analyze returned nil")
	}

	if res.TotalItems != 5 {
		t.Errorf("TotalItems = %d, want 5", res.TotalItems)
	}
	if res.OrganicCount != 2 {
		t.Errorf("OrganicCount = %d, want 2", res.OrganicCount)
	}
	if res.PaidCount != 1 {
		t.Errorf("PaidCount = %d, want 1", res.PaidCount)
	}
	if res.MapsCount != 1 {
		t.Errorf("MapsCount = %d, want 1", res.MapsCount)
	}
}

func TestAnalyzeAppearances(t *testing.T) {
	items := []RawItem{
		{Type: "organic", RankAbsolute: 1, Domain: "oursite.com", URL: "https://oursite.com"},
		{Type: "organic", RankAbsolute: 2, Domain: "rival.com", URL: "https://rival.com", Title: "Rival"},
		{Type: "paid", RankAbsolute: 3, Domain: "sponsor.com", URL: "https://sponsor.com"},
		{Type: "paid", RankAbsolute: 4, Domain: "oursite.com", URL: "https://oursite.com/ad"},
	}

	a := NewAnalyzer(nil)
	res := a.Analyze(items, "oursite.com", nil)
	if res == nil {
		t.Fatal("Analyze returned nil")
	}

	// Our own domain never produces appearance candidates.
	if len(res.Appearances) != 2 {
		t.Fatalf("appearances = %d, want 2", len(res.Appearances))
	}

	organic := res.Appearances[0]
	if organic.Domain != "rival.com" || organic.Category != domain.SerpItemOrganic || organic.Position != 2 {
		t.Errorf("unexpected organic appearance: %+v", organic)
	}

	paid := res.Appearances[1]
	if paid.Domain != "sponsor.com" || paid.Category != domain.SerpItemPaid {
		t.Errorf("unexpected paid appearance: %+v", paid)
	}
}
