package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keywordlock/serp-tracker/internal/domain"
)

// SettingsRepository handles application settings storage.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a setting by key.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*domain.AppSetting, error) {
	var setting domain.AppSetting
	query := `SELECT key, value, encrypted, updated_at FROM app_settings WHERE key = $1`

	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("setting %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &setting, nil
}

// Upsert creates or replaces a setting.
func (r *SettingsRepository) Upsert(ctx context.Context, setting *domain.AppSetting) error {
	query := `
		INSERT INTO app_settings (key, value, encrypted)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, encrypted = EXCLUDED.encrypted, updated_at = now()
		RETURNING updated_at
	`

	if err := r.db.QueryRowContext(ctx, query, setting.Key, setting.Value, setting.Encrypted).
		Scan(&setting.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// Delete removes a setting. Missing keys are not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}
