package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDiscoveryRoot      = "discovery.root"
	keyDiscoveryPrefix    = "discovery.prefix"
	keyDiscoveryExtension = "discovery.extension"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedTag           = "embedding.tag"
	keyEmbedDims          = "embedding.dimensions"
	keyEmbedRPS           = "embedding.requests_per_second"
	keyVectorBackend      = "vector_index.backend"
	keyVectorURL          = "vector_index.url"
	keyVectorAPIKey       = "vector_index.api_key"
	keyVectorCollection   = "vector_index.collection"
	keyVectorDistance     = "vector_index.distance"
	keyIngestWorkers      = "ingest.workers"
	keyIngestCallTimeout  = "ingest.call_timeout"
	keyIngestStoreContent = "ingest.store_content"
	keyDataDir            = "data_dir"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvQdrantURL         = "QDRANT_URL"
	EnvQdrantToken       = "QDRANT_TOKEN"
	EnvEmbeddingProvider = "DOCSYNC_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "DOCSYNC_EMBEDDING_MODEL"
	EnvVectorBackend     = "DOCSYNC_VECTOR_BACKEND"
)

// valueKind is the type a settings key is parsed into.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

var settingKinds = map[string]valueKind{
	keyDiscoveryRoot:      kindString,
	keyDiscoveryPrefix:    kindString,
	keyDiscoveryExtension: kindString,
	keyEmbedProvider:      kindString,
	keyEmbedModel:         kindString,
	keyEmbedBaseURL:       kindString,
	keyEmbedAPIKey:        kindString,
	keyEmbedTag:           kindString,
	keyEmbedDims:          kindInt,
	keyEmbedRPS:           kindFloat,
	keyVectorBackend:      kindString,
	keyVectorURL:          kindString,
	keyVectorAPIKey:       kindString,
	keyVectorCollection:   kindString,
	keyVectorDistance:     kindString,
	keyIngestWorkers:      kindInt,
	keyIngestCallTimeout:  kindDuration,
	keyIngestStoreContent: kindBool,
	keyDataDir:            kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithGetenv replaces the environment lookup used for overrides.
func WithGetenv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		if getenv != nil {
			s.getenv = getenv
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get resolves settings: stored values over defaults, then environment overrides.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	callTimeout, err := s.getDuration(keyIngestCallTimeout, defaults.Ingest.CallTimeout)
	if err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		Discovery: domain.DiscoverySettings{
			Root:      s.getString(keyDiscoveryRoot, defaults.Discovery.Root),
			Prefix:    s.getString(keyDiscoveryPrefix, defaults.Discovery.Prefix),
			Extension: s.getStringAllowEmpty(keyDiscoveryExtension, defaults.Discovery.Extension),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.EmbeddingProvider(s.getString(keyEmbedProvider, defaults.Embedding.Provider.String())),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // Empty uses the provider default
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Tag:               s.getString(keyEmbedTag, defaults.Embedding.Tag),
			Dimensions:        s.configStore.GetInt(keyEmbedDims),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:    domain.VectorBackend(s.getString(keyVectorBackend, defaults.VectorIndex.Backend.String())),
			URL:        s.configStore.GetString(keyVectorURL),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
			Collection: s.getString(keyVectorCollection, defaults.VectorIndex.Collection),
			Distance:   domain.Distance(s.getString(keyVectorDistance, defaults.VectorIndex.Distance.String())),
		},
		Ingest: domain.IngestSettings{
			Workers:      s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
			CallTimeout:  callTimeout,
			StoreContent: s.getBool(keyIngestStoreContent, defaults.Ingest.StoreContent),
		},
		DataDir: s.configStore.GetString(keyDataDir),
	}

	s.applyEnv(settings)

	// Model and dimensions follow the provider unless set explicitly.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]
	}

	return settings, nil
}

func (s *SettingsService) applyEnv(settings *domain.Settings) {
	if v := s.getenv(EnvEmbeddingProvider); v != "" {
		settings.Embedding.Provider = domain.EmbeddingProvider(strings.ToLower(v))
	}
	if v := s.getenv(EnvEmbeddingModel); v != "" {
		settings.Embedding.Model = v
	}
	if v := s.getenv(EnvOpenAIAPIKey); v != "" {
		settings.Embedding.APIKey = v
	}
	if v := s.getenv(EnvVectorBackend); v != "" {
		settings.VectorIndex.Backend = domain.VectorBackend(strings.ToLower(v))
	}
	if v := s.getenv(EnvQdrantURL); v != "" {
		settings.VectorIndex.URL = v
	}
	if v := s.getenv(EnvQdrantToken); v != "" {
		settings.VectorIndex.APIKey = v
	}
}

type settingValue struct {
	key   string
	value any
}

// Save persists settings. Empty credentials are not written.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []settingValue{
		{keyDiscoveryRoot, settings.Discovery.Root},
		{keyDiscoveryPrefix, settings.Discovery.Prefix},
		{keyDiscoveryExtension, settings.Discovery.Extension},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTag, settings.Embedding.Tag},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyVectorBackend, settings.VectorIndex.Backend.String()},
		{keyVectorURL, settings.VectorIndex.URL},
		{keyVectorCollection, settings.VectorIndex.Collection},
		{keyVectorDistance, settings.VectorIndex.Distance.String()},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyIngestCallTimeout, settings.Ingest.CallTimeout.String()},
		{keyIngestStoreContent, settings.Ingest.StoreContent},
		{keyDataDir, settings.DataDir},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, settingValue{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.VectorIndex.APIKey != "" {
		values = append(values, settingValue{keyVectorAPIKey, settings.VectorIndex.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value according to key and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	parsed, err := parseSetting(key, kind, value)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(key string, kind valueKind, value string) (any, error) {
	invalid := func(err error) error {
		return fmt.Errorf("invalid value %q for %s: %w: %w", value, key, domain.ErrInvalidInput, err)
	}

	switch key {
	case keyEmbedProvider:
		if !domain.EmbeddingProvider(value).IsValid() {
			return nil, invalid(errors.New("expected openai or ollama"))
		}
	case keyVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return nil, invalid(errors.New("expected qdrant or memory"))
		}
	case keyVectorDistance:
		if !domain.Distance(value).IsValid() {
			return nil, invalid(errors.New("expected cosine, dot, euclid or manhattan"))
		}
	}

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalid(err)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, invalid(err)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, invalid(err)
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for key := range settingKinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports every configuration problem in settings.
func (s *SettingsService) Validate(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings missing", domain.ErrConfiguration)
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if settings.Discovery.Root == "" {
		add("discovery root is empty")
	}

	emb := settings.Embedding
	if !emb.Provider.IsValid() {
		add("unknown embedding provider %q", emb.Provider)
	} else if emb.Provider.RequiresAPIKey() && emb.APIKey == "" {
		add("%s requires an API key (set %s)", emb.Provider, EnvOpenAIAPIKey)
	}
	if emb.Model == "" {
		add("embedding model is empty")
	} else if owner, known := domain.EmbeddingModelProviders()[emb.Model]; known && emb.Provider.IsValid() && owner != emb.Provider {
		add("embedding model %s is served by %s, not %s (set embedding.model)", emb.Model, owner, emb.Provider)
	}
	if emb.Dimensions <= 0 {
		add("embedding dimensions must be positive, got %d", emb.Dimensions)
	}
	if emb.RequestsPerSecond < 0 {
		add("requests per second must not be negative")
	}

	vec := settings.VectorIndex
	if !vec.Backend.IsValid() {
		add("unknown vector backend %q", vec.Backend)
	} else if vec.Backend == domain.VectorBackendQdrant && vec.URL == "" {
		add("qdrant backend requires an address (set %s)", EnvQdrantURL)
	}
	if vec.Collection == "" {
		add("collection name is empty")
	}
	if !vec.Distance.IsValid() {
		add("unknown distance %q", vec.Distance)
	}

	if settings.Ingest.Workers < 1 {
		add("workers must be at least 1, got %d", settings.Ingest.Workers)
	}
	if settings.Ingest.CallTimeout < 0 {
		add("call timeout must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = fmt.Errorf("%w: %s", domain.ErrConfiguration, p)
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateVectorIndexConfig pings the configured vector index.
func (s *SettingsService) ValidateVectorIndexConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateVectorIndex(&settings.VectorIndex)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getStringAllowEmpty returns the stored value even when it is empty.
func (s *SettingsService) getStringAllowEmpty(key, defaultVal string) string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration parses a stored duration string. A stored value that is not
// a valid duration is a configuration error.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	val, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a duration string such as \"60s\", got %v", domain.ErrConfiguration, key, raw)
	}
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, key, err)
	}
	return d, nil
}
