package driving

import "github.com/custodia-labs/docsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from the config store, defaults and environment.
	Get() (*domain.Settings, error)

	// Save persists settings to the config store.
	Save(settings *domain.Settings) error

	// Set parses value for key and stores it.
	Set(key, value string) error

	// Keys returns every settable key in sorted order.
	Keys() []string

	// Validate reports every configuration problem in settings.
	// Each error wraps domain.ErrConfiguration.
	Validate(settings *domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateVectorIndexConfig pings the configured vector index.
	ValidateVectorIndexConfig() error
}
