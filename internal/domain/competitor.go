package domain

import "time"

// OrgType categorizes a competitor domain.
type OrgType string

// Organization type constants. The string values are the external forms
// used at the storage and API boundaries.
const (
	OrgTypeSchool    OrgType = "School"
	OrgTypeTutorBase OrgType = "TutorBase"
	OrgTypeNotSchool OrgType = "NotSchool"
	OrgTypePartner   OrgType = "Partner"
)

// CompetitorDomain is a tracked competitor site observed in SERP results.
// Competitiveness is derived: the number of distinct keywords on whose
// latest analysis the domain appears.
type CompetitorDomain struct {
	ID              int64      `db:"id"              json:"id"`
	Domain          string     `db:"domain"          json:"domain"`
	OrgType         OrgType    `db:"org_type"        json:"org_type"`
	Competitiveness int        `db:"competitiveness" json:"competitiveness"`
	LastSeenAt      *time.Time `db:"last_seen_at"    json:"last_seen_at,omitempty"`
	Notes           *string    `db:"notes"           json:"notes,omitempty"`
	IsNew           bool       `db:"is_new"          json:"is_new"`
	CreatedAt       time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"      json:"updated_at"`
}

// CompetitorAppearance records a competitor domain occurring in one analysis.
// Appearance rows are immutable and retained for the full history.
type CompetitorAppearance struct {
	ID           int64            `db:"id"            json:"id"`
	AnalysisID   int64            `db:"analysis_id"   json:"analysis_id"`
	CompetitorID int64            `db:"competitor_id" json:"competitor_id"`
	Position     int              `db:"position"      json:"position"`
	Category     SerpItemCategory `db:"category"      json:"category"`
	URL          string           `db:"url"           json:"url"`
	Title        string           `db:"title"         json:"title"`
	CreatedAt    time.Time        `db:"created_at"    json:"created_at"`
}

// ValidOrgType reports whether t is a known organization type.
func ValidOrgType(t OrgType) bool {
	switch t {
	case OrgTypeSchool, OrgTypeTutorBase, OrgTypeNotSchool, OrgTypePartner:
		return true
	}
	return false
}
