package processor

import (
	"strings"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

// Wordlists for the initial intent guess at ingestion time. The SERP
// analysis overwrites the intent once live results are available.
var (
	transactionalTerms = []string{
		"buy", "order", "enroll", "enrol", "register", "sign up", "apply", "book",
	}
	commercialTerms = []string{
		"price", "prices", "cost", "costs", "cheap", "affordable", "best",
		"top", "review", "reviews", "compare", "vs", "near me", "tuition", "fees",
	}
	navigationalTerms = []string{
		"login", "log in", "portal", "www.", ".com", ".edu", ".org",
	}
)

// Commercially loaded SERP blocks. A SERP showing shopping results,
// ads or a local pack signals purchase intent regardless of wording.
var commercialSerpTypes = map[string]bool{
	"shopping":   true,
	"paid":       true,
	"local_pack": true,
	"maps":       true,
}

// DeriveIntent guesses the search intent of a keyword. SERP block
// types win over wordlists when available. Returns nil when nothing
// matches so the field stays unset until a SERP analysis fills it.
func DeriveIntent(text string, serpItemTypes []string) *domain.IntentType {
	for _, st := range serpItemTypes {
		if commercialSerpTypes[st] {
			return intentPtr(domain.IntentCommercial)
		}
	}

	lowered := strings.ToLower(text)

	if containsAny(lowered, transactionalTerms) {
		return intentPtr(domain.IntentTransactional)
	}
	if containsAny(lowered, navigationalTerms) {
		return intentPtr(domain.IntentNavigational)
	}
	if containsAny(lowered, commercialTerms) {
		return intentPtr(domain.IntentCommercial)
	}
	return nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func intentPtr(i domain.IntentType) *domain.IntentType {
	return &i
}
