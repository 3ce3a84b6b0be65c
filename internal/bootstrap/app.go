package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/api"
	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/dataforseo"
	"github.com/keywordlock/serp-tracker/internal/jobs"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/processor"
	"github.com/keywordlock/serp-tracker/internal/progress"
	"github.com/keywordlock/serp-tracker/internal/secrets"
	"github.com/keywordlock/serp-tracker/internal/serp"
	"github.com/keywordlock/serp-tracker/internal/server"
	"github.com/keywordlock/serp-tracker/internal/settings"
	"github.com/keywordlock/serp-tracker/internal/sse"
	"github.com/keywordlock/serp-tracker/internal/telemetry"
)

const (
	defaultServicePort     = 8080
	defaultSSEHeartbeat    = 15 * time.Second
	credentialsLoadTimeout = 10 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// AppComponents holds all components needed to run the service.
type AppComponents struct {
	DB           *sqlx.DB
	Server       *server.Server
	Broker       sse.Broker
	Tracker      *progress.Tracker
	RetentionJob *jobs.RetentionJob
	Telemetry    *telemetry.Provider
	Config       *config.Config
}

// RunGaugeRefresh keeps the active-task and SSE-client gauges current.
func (a *AppComponents) RunGaugeRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Telemetry.SetActiveTasks(a.Tracker.Count())
			a.Telemetry.SetSSEClients(a.Broker.ClientCount())
		case <-ctx.Done():
			return
		}
	}
}

// NewAppComponents wires the whole service: database, provider client,
// batch processor, SSE broker, telemetry and the HTTP server.
func NewAppComponents(cfg *config.Config, log logger.Logger) (*AppComponents, error) {
	dbComps, err := SetupDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	cipher := setupCipher(cfg, log)
	settingsService := settings.NewService(
		dbComps.SettingsRepo, cipher,
		cfg.Provider.Login, cfg.Provider.Password,
		log,
	)

	provider := setupProvider(cfg, settingsService, log)
	tel := telemetry.NewProvider()
	tracker := progress.NewTracker(cfg.Tasks.TTL, log)
	broker := sse.NewBroker(log)
	analyzer := serp.NewAnalyzer(log)

	runner := processor.NewSerpBatchRunner(
		dbComps.KeywordRepo,
		dbComps.CampaignRepo,
		dbComps.CompetitorRepo,
		dbComps.SerpHistoryRepo,
		provider,
		analyzer,
		tracker,
		broker,
		tel,
		cfg.Serp,
		log,
	)

	ingester := processor.NewVolumeIngester(
		dbComps.KeywordRepo,
		dbComps.CampaignRepo,
		provider,
		tel,
		cfg.Serp,
		log,
	)

	retention := jobs.NewRetentionJob(dbComps.KeywordRepo, cfg.Retention, log)

	handler := api.NewHandler(api.HandlerDeps{
		Keywords:    dbComps.KeywordRepo,
		Campaigns:   dbComps.CampaignRepo,
		Competitors: dbComps.CompetitorRepo,
		History:     dbComps.SerpHistoryRepo,
		Runner:      runner,
		Ingester:    ingester,
		Settings:    settingsService,
		Provider:    provider,
		Tracker:     tracker,
		Broker:      broker,
		Logger:      log,
	})

	serverCfg := &server.Config{
		Port:            cfg.Service.Port,
		Debug:           cfg.Service.Debug,
		ShutdownTimeout: defaultShutdownTimeout,
		ServiceName:     cfg.Service.Name,
		ServiceVersion:  cfg.Service.Version,
	}

	db := dbComps.DB
	srv := server.New(serverCfg, log, func(router *gin.Engine) {
		server.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, map[string]server.HealthChecker{
			"database": server.DatabaseHealthChecker(func() error {
				ctx, cancel := context.WithTimeout(context.Background(), database.DefaultPingTimeout)
				defer cancel()
				return db.PingContext(ctx)
			}),
			"provider": server.ProviderHealthChecker(provider.Configured),
		})

		api.RegisterRoutes(router, handler, tel.Handler(),
			func(ctx context.Context) error { return db.PingContext(ctx) },
			api.RouteConfig{
				JWTSecret:    cfg.Auth.JWTSecret,
				SSEHeartbeat: defaultSSEHeartbeat,
			},
		)
	})

	return &AppComponents{
		DB:           db,
		Server:       srv,
		Broker:       broker,
		Tracker:      tracker,
		RetentionJob: retention,
		Telemetry:    tel,
		Config:       cfg,
	}, nil
}

// setupCipher builds the settings cipher. A missing key disables saving
// credentials through the API but the service still runs.
func setupCipher(cfg *config.Config, log logger.Logger) *secrets.Cipher {
	cipher, err := secrets.New(cfg.Secrets.EncryptionKey)
	if err != nil {
		log.Warn("Settings encryption unavailable", logger.Error(err))
		return nil
	}
	return cipher
}

// setupProvider builds the DataForSEO client. Config credentials win;
// otherwise stored settings are tried. An unconfigured client still
// serves requests and returns typed errors.
func setupProvider(cfg *config.Config, settingsService *settings.Service, log logger.Logger) *dataforseo.Client {
	client := dataforseo.NewClient(dataforseo.Config{
		BaseURL:           cfg.Provider.BaseURL,
		Login:             cfg.Provider.Login,
		Password:          cfg.Provider.Password,
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, log)

	if client.Configured() {
		return client
	}

	ctx, cancel := context.WithTimeout(context.Background(), credentialsLoadTimeout)
	defer cancel()

	login, password, err := settingsService.Credentials(ctx)
	if err != nil {
		log.Warn("Failed to load stored provider credentials", logger.Error(err))
		return client
	}
	if login != "" && password != "" {
		client.SetCredentials(login, password)
		log.Info("Provider credentials loaded from settings")
	} else {
		log.Warn("Provider credentials not configured")
	}
	return client
}
