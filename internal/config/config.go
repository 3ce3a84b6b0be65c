package config

import (
	"time"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName       = "serp-tracker"
	defaultServiceVersion    = "1.0.0"
	defaultServicePort       = 8080
	defaultDBHost            = "localhost"
	defaultDBPort            = 5432
	defaultDBUser            = "postgres"
	defaultDBName            = "serp_tracker"
	defaultDBSSLMode         = "disable"
	defaultDBMaxConns        = 25
	defaultDBMaxIdleConns    = 5
	defaultProviderBaseURL   = "https://api.dataforseo.com/v3"
	defaultProviderTimeout   = 90 * time.Second
	defaultProviderRPS       = 5
	defaultSerpLocationCode  = 2840
	defaultSerpLanguageCode  = "en"
	defaultSerpDevice        = "desktop"
	defaultSerpDepth         = 20
	defaultTaskTTL           = 30 * time.Minute
	defaultTaskSweepInterval = 5 * time.Minute
	defaultTrashTTLDays      = 30
	defaultTrashSweep        = 12 * time.Hour
)

// Config holds all configuration for the SERP tracker service.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Provider  ProviderConfig  `yaml:"provider"`
	Serp      SerpConfig      `yaml:"serp"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   logger.Config   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Secrets   SecretsConfig   `yaml:"secrets"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"SERP_TRACKER_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"         yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
	Migrate         bool          `env:"DB_MIGRATE"        yaml:"migrate"`
}

// ProviderConfig holds DataForSEO API configuration.
// Login and password may instead come from encrypted application settings;
// values set here take precedence.
type ProviderConfig struct {
	BaseURL           string        `env:"DATAFORSEO_BASE_URL" yaml:"base_url"`
	Login             string        `env:"DATAFORSEO_LOGIN"    yaml:"login"`
	Password          string        `env:"DATAFORSEO_PASSWORD" yaml:"password"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond int           `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// SerpConfig holds default SERP fetch parameters.
type SerpConfig struct {
	LocationCode int    `yaml:"location_code"`
	LanguageCode string `yaml:"language_code"`
	Device       string `yaml:"device"`
	Depth        int    `yaml:"depth"`
}

// TasksConfig holds batch task tracking settings.
type TasksConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RetentionConfig holds trash retention settings.
type RetentionConfig struct {
	TrashTTLDays  int           `yaml:"trash_ttl_days"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Enabled       bool          `yaml:"enabled"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// SecretsConfig holds settings-encryption configuration.
type SecretsConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES key used for
	// encrypting provider credentials stored in app_settings.
	EncryptionKey string `env:"SETTINGS_ENCRYPTION_KEY" yaml:"encryption_key"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setProviderDefaults(&cfg.Provider)
	setSerpDefaults(&cfg.Serp)
	setTasksDefaults(&cfg.Tasks)
	setRetentionDefaults(&cfg.Retention)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setProviderDefaults(p *ProviderConfig) {
	if p.BaseURL == "" {
		p.BaseURL = defaultProviderBaseURL
	}
	if p.Timeout == 0 {
		p.Timeout = defaultProviderTimeout
	}
	if p.RequestsPerSecond == 0 {
		p.RequestsPerSecond = defaultProviderRPS
	}
	if p.Burst == 0 {
		p.Burst = p.RequestsPerSecond
	}
}

func setSerpDefaults(s *SerpConfig) {
	if s.LocationCode == 0 {
		s.LocationCode = defaultSerpLocationCode
	}
	if s.LanguageCode == "" {
		s.LanguageCode = defaultSerpLanguageCode
	}
	if s.Device == "" {
		s.Device = defaultSerpDevice
	}
	if s.Depth == 0 {
		s.Depth = defaultSerpDepth
	}
}

func setTasksDefaults(t *TasksConfig) {
	if t.TTL == 0 {
		t.TTL = defaultTaskTTL
	}
	if t.SweepInterval == 0 {
		t.SweepInterval = defaultTaskSweepInterval
	}
}

func setRetentionDefaults(r *RetentionConfig) {
	if r.TrashTTLDays == 0 {
		r.TrashTTLDays = defaultTrashTTLDays
	}
	if r.SweepInterval == 0 {
		r.SweepInterval = defaultTrashSweep
	}
}
