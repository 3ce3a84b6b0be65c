package domain

import "time"

// Setting keys for provider credentials.
const (
	SettingDataForSEOLogin    = "dataforseo_login"
	SettingDataForSEOPassword = "dataforseo_password"
)

// AppSetting is a key-value application setting. Sensitive values
// (provider credentials) are stored encrypted.
type AppSetting struct {
	Key       string    `db:"key"        json:"key"`
	Value     string    `db:"value"      json:"-"`
	Encrypted bool      `db:"encrypted"  json:"encrypted"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
