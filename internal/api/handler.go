// Package api implements the HTTP API of the SERP tracker service.
package api

import (
	"context"
	"time"

	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/processor"
	"github.com/keywordlock/serp-tracker/internal/progress"
	"github.com/keywordlock/serp-tracker/internal/settings"
	"github.com/keywordlock/serp-tracker/internal/sse"
)

// KeywordStore is the keyword persistence surface used by the API.
type KeywordStore interface {
	List(ctx context.Context, filter database.KeywordFilter) ([]domain.Keyword, error)
	GetByID(ctx context.Context, id int64) (*domain.Keyword, error)
	Create(ctx context.Context, kw *domain.Keyword) (bool, error)
	Update(ctx context.Context, kw *domain.Keyword) error
	SetStatus(ctx context.Context, ids []int64, status domain.KeywordStatus) (int64, error)
	ListTrash(ctx context.Context) ([]domain.Keyword, error)
	PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error)
	AcceptNewBatch(ctx context.Context, adGroupID int64) (int64, error)
	RejectNewBatch(ctx context.Context, adGroupID int64) (int64, error)
}

// CampaignStore is the campaign persistence surface used by the API.
type CampaignStore interface {
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	ListAdGroups(ctx context.Context, campaignID int64) ([]domain.AdGroup, error)
	GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error)
	CreateAdGroup(ctx context.Context, g *domain.AdGroup) error
	GetCampaignSite(ctx context.Context, campaignID int64) (*domain.CampaignSite, error)
	SetCampaignSite(ctx context.Context, site *domain.CampaignSite) error
}

// CompetitorStore is the competitor persistence surface used by the API.
type CompetitorStore interface {
	List(ctx context.Context) ([]domain.CompetitorDomain, error)
	GetByID(ctx context.Context, id int64) (*domain.CompetitorDomain, error)
	Create(ctx context.Context, c *domain.CompetitorDomain) error
	Update(ctx context.Context, c *domain.CompetitorDomain) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, id int64) (*database.CompetitorStats, error)
	RecomputeCompetitiveness(ctx context.Context) error
}

// HistoryStore reads persisted SERP analyses.
type HistoryStore interface {
	ListByKeyword(ctx context.Context, keywordID int64, limit int) ([]domain.SerpAnalysis, error)
	LatestByKeyword(ctx context.Context, keywordID int64) (*domain.SerpAnalysis, error)
}

// BatchRunner runs SERP analysis batches.
type BatchRunner interface {
	RunSync(ctx context.Context, keywordIDs []int64) (*processor.BatchResult, error)
	StartBatch(keywordIDs []int64) (string, error)
}

// Ingester runs keyword volume ingestion.
type Ingester interface {
	Ingest(ctx context.Context, params processor.IngestParams) (*processor.IngestResult, error)
}

// SettingsService manages provider credentials.
type SettingsService interface {
	Status(ctx context.Context) (*settings.Status, error)
	SaveCredentials(ctx context.Context, login, password string) error
}

// ProviderClient is the account-level provider surface used by the API.
type ProviderClient interface {
	Balance(ctx context.Context) (*dataforseo.Balance, error)
	Locations(ctx context.Context) ([]dataforseo.Location, error)
	Configured() bool
	SetCredentials(login, password string)
}

// Handler handles HTTP requests for the SERP tracker API.
type Handler struct {
	keywords    KeywordStore
	campaigns   CampaignStore
	competitors CompetitorStore
	history     HistoryStore
	runner      BatchRunner
	ingester    Ingester
	settings    SettingsService
	provider    ProviderClient
	tracker     *progress.Tracker
	broker      sse.Subscriber
	logger      logger.Logger
}

// HandlerDeps bundles the dependencies of the API handler.
type HandlerDeps struct {
	Keywords    KeywordStore
	Campaigns   CampaignStore
	Competitors CompetitorStore
	History     HistoryStore
	Runner      BatchRunner
	Ingester    Ingester
	Settings    SettingsService
	Provider    ProviderClient
	Tracker     *progress.Tracker
	Broker      sse.Subscriber
	Logger      logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		keywords:    deps.Keywords,
		campaigns:   deps.Campaigns,
		competitors: deps.Competitors,
		history:     deps.History,
		runner:      deps.Runner,
		ingester:    deps.Ingester,
		settings:    deps.Settings,
		provider:    deps.Provider,
		tracker:     deps.Tracker,
		broker:      deps.Broker,
		logger:      deps.Logger,
	}
}
