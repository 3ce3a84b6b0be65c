// Package settings manages application settings, including encrypted
// provider credentials.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/keywordlock/serp-tracker/internal/database"
	"github.com/keywordlock/serp-tracker/internal/domain"
	"github.com/keywordlock/serp-tracker/internal/logger"
	"github.com/keywordlock/serp-tracker/internal/secrets"
)

// Service resolves and stores provider credentials. Credentials from
// the service configuration take precedence over stored settings.
type Service struct {
	repo   *database.SettingsRepository
	cipher *secrets.Cipher
	logger logger.Logger

	configLogin    string
	configPassword string
}

// NewService creates a settings service. cipher may be nil when no
// encryption key is configured; saving credentials then fails.
func NewService(repo *database.SettingsRepository, cipher *secrets.Cipher, configLogin, configPassword string, log logger.Logger) *Service {
	return &Service{
		repo:           repo,
		cipher:         cipher,
		logger:         log,
		configLogin:    configLogin,
		configPassword: configPassword,
	}
}

// Credentials returns the provider login and password, or empty strings
// when neither the configuration nor the settings store has them.
func (s *Service) Credentials(ctx context.Context) (login, password string, err error) {
	if s.configLogin != "" && s.configPassword != "" {
		return s.configLogin, s.configPassword, nil
	}

	login, err = s.lookup(ctx, domain.SettingDataForSEOLogin)
	if err != nil {
		return "", "", err
	}
	password, err = s.lookup(ctx, domain.SettingDataForSEOPassword)
	if err != nil {
		return "", "", err
	}
	return login, password, nil
}

// lookup reads and, when needed, decrypts one setting. A missing key
// yields an empty string.
func (s *Service) lookup(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	if !setting.Encrypted {
		return setting.Value, nil
	}
	if s.cipher == nil {
		return "", secrets.ErrNoKey
	}

	value, err := s.cipher.Decrypt(setting.Value)
	if err != nil {
		return "", fmt.Errorf("decrypt setting %s: %w", key, err)
	}
	return value, nil
}

// SaveCredentials stores the provider credentials encrypted.
func (s *Service) SaveCredentials(ctx context.Context, login, password string) error {
	if s.cipher == nil {
		return secrets.ErrNoKey
	}
	if login == "" || password == "" {
		return errors.New("login and password are required")
	}

	pairs := map[string]string{
		domain.SettingDataForSEOLogin:    login,
		domain.SettingDataForSEOPassword: password,
	}

	for key, value := range pairs {
		encrypted, err := s.cipher.Encrypt(value)
		if err != nil {
			return fmt.Errorf("encrypt setting %s: %w", key, err)
		}
		setting := &domain.AppSetting{Key: key, Value: encrypted, Encrypted: true}
		if err := s.repo.Upsert(ctx, setting); err != nil {
			return err
		}
	}

	s.logger.Info("Provider credentials updated")
	return nil
}

// Status describes whether provider credentials are available and where
// they come from.
type Status struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Login      string `json:"login,omitempty"`
}

// Status reports credential availability with the login masked.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	if s.configLogin != "" && s.configPassword != "" {
		return &Status{Configured: true, Source: "config", Login: maskLogin(s.configLogin)}, nil
	}

	login, password, err := s.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if login == "" || password == "" {
		return &Status{Configured: false}, nil
	}
	return &Status{Configured: true, Source: "settings", Login: maskLogin(login)}, nil
}

// maskLogin hides the middle of a login for display.
func maskLogin(login string) string {
	const visible = 3
	if len(login) <= visible {
		return "***"
	}
	return login[:visible] + "***"
}
