package serp

import (
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

// AppearanceCandidate is a competitor domain sighting extracted from an
// analysis, before it is resolved against the competitor registry.
type AppearanceCandidate struct {
	Domain   string
	Position int
	Category domain.SerpItemCategory
	URL      string
	Title    string
}

// Analysis is the outcome of classifying one SERP snapshot.
type Analysis struct {
	TotalItems   int
	OrganicCount int
	PaidCount    int
	MapsCount    int

	HasAds        bool
	HasGoogleMaps bool
	HasOurSite    bool
	Intent        domain.IntentType

	// OurPosition counts organic items only; OurActualPosition is the
	// provider's absolute rank. Both nil when our site is absent.
	OurPosition       *int
	OurActualPosition *int

	// SchoolPercentage is the share of organic results held by tracked
	// competitor domains, 0-100.
	SchoolPercentage float64

	OrganicItems domain.SerpItems
	PaidItems    domain.SerpItems
	MapsItems    domain.SerpItems

	Appearances []AppearanceCandidate
}

// Analyzer classifies SERP snapshots.
type Analyzer struct {
	logger logger.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(log logger.Logger) *Analyzer {
	return &Analyzer{logger: log}
}

// Analyze classifies the given SERP items against the campaign's own
// domain and the set of tracked competitor domains. Returns nil when
// items is empty: an empty snapshot means no data, not a zeroed result.
//
// Our-site detection is first-match-wins over organic items in SERP
// order; later matches never overwrite the recorded positions.
func (a *Analyzer) Analyze(items []RawItem, ourDomain string, tracked []string) *Analysis {
	if len(items) == 0 {
		return nil
	}

	res := &Analysis{TotalItems: len(items)}

	organicPos := 0
	trackedOrganic := 0

	for _, raw := range items {
		item := classifyItem(raw)

		switch item.Category {
		case domain.SerpItemOrganic:
			organicPos++
			item.Position = organicPos
			res.OrganicCount++
			res.OrganicItems = append(res.OrganicItems, item)

			if ourDomain != "" && IsSameSite(item.Domain, ourDomain) {
				res.HasOurSite = true
				if res.OurPosition == nil {
					pos := organicPos
					abs := item.RankAbsolute
					res.OurPosition = &pos
					res.OurActualPosition = &abs
				}
				continue
			}

			if matchesAny(item.Domain, tracked) {
				trackedOrganic++
			}
			if item.Domain != "" {
				res.Appearances = append(res.Appearances, AppearanceCandidate{
					Domain:   item.Domain,
					Position: organicPos,
					Category: domain.SerpItemOrganic,
					URL:      item.URL,
					Title:    item.Title,
				})
			}

		case domain.SerpItemPaid:
			res.PaidCount++
			res.HasAds = true
			res.PaidItems = append(res.PaidItems, item)

			if item.Domain != "" && (ourDomain == "" || !IsSameSite(item.Domain, ourDomain)) {
				res.Appearances = append(res.Appearances, AppearanceCandidate{
					Domain:   item.Domain,
					Position: item.RankAbsolute,
					Category: domain.SerpItemPaid,
					URL:      item.URL,
					Title:    item.Title,
				})
			}

		case domain.SerpItemMaps:
			res.MapsCount++
			res.HasGoogleMaps = true
			res.MapsItems = append(res.MapsItems, item)

		default:
			if a.logger != nil {
				a.logger.Debug("Unclassified SERP item type",
					logger.String("type", raw.Type),
					logger.Int("rank_absolute", raw.RankAbsolute),
				)
			}
		}
	}

	if res.OrganicCount > 0 {
		res.SchoolPercentage = float64(trackedOrganic) / float64(res.OrganicCount) * 100
	}

	// Intent derives purely from ad presence.
	if res.HasAds {
		res.Intent = domain.IntentCommercial
	} else {
		res.Intent = domain.IntentInformational
	}

	return res
}

// matchesAny reports whether d matches any of the tracked domains.
func matchesAny(d string, tracked []string) bool {
	for _, t := range tracked {
		if IsSameSite(d, t) {
			return true
		}
	}
	return false
}
