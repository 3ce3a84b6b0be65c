package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

// DatabaseComponents holds database connection and repositories.
type DatabaseComponents struct {
	DB              *sqlx.DB
	KeywordRepo     *database.KeywordRepository
	CampaignRepo    *database.CampaignRepository
	CompetitorRepo  *database.CompetitorRepository
	SerpHistoryRepo *database.SerpHistoryRepository
	SettingsRepo    *database.SettingsRepository
}

// SetupDatabase creates the database connection, runs migrations when
// enabled, and builds the repositories.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*DatabaseComponents, error) {
	dbConfig := database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	log.Info("Connecting to PostgreSQL database",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.DBName),
	)

	if cfg.Database.Migrate {
		if err := database.RunMigrations(dbConfig); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("Database migrations applied")
	}

	db, err := database.NewPostgresConnection(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connected successfully")

	return &DatabaseComponents{
		DB:              db,
		KeywordRepo:     database.NewKeywordRepository(db),
		CampaignRepo:    database.NewCampaignRepository(db),
		CompetitorRepo:  database.NewCompetitorRepository(db),
		SerpHistoryRepo: database.NewSerpHistoryRepository(db),
		SettingsRepo:    database.NewSettingsRepository(db),
	}, nil
}
