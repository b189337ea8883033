package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
)

// mockAIValidator records which configurations were validated.
type mockAIValidator struct {
	embedding *domain.EmbeddingSettings
	vector    *domain.VectorIndexSettings
	err       error
}

func (m *mockAIValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	m.embedding = config
	return m.err
}

func (m *mockAIValidator) ValidateVectorIndex(config *domain.VectorIndexSettings) error {
	m.vector = config
	return m.err
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func newTestSettingsService(store *memory.ConfigStore, env map[string]string) *SettingsService {
	return NewSettingsService(store, nil, WithGetenv(envMap(env)))
}

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
	assert.NotNil(t, service.getenv)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults, *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("discovery.root", "content")
	_ = store.Set("discovery.extension", "")
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.requests_per_second", 2.5)
	_ = store.Set("vector_index.backend", "memory")
	_ = store.Set("vector_index.distance", "dot")
	_ = store.Set("ingest.workers", 8)
	_ = store.Set("ingest.call_timeout", "15s")
	_ = store.Set("ingest.store_content", false)

	settings, err := newTestSettingsService(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, "content", settings.Discovery.Root)
	assert.Equal(t, "", settings.Discovery.Extension)
	assert.Equal(t, domain.EmbeddingProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
	assert.Equal(t, 2.5, settings.Embedding.RequestsPerSecond)
	assert.Equal(t, domain.VectorBackendMemory, settings.VectorIndex.Backend)
	assert.Equal(t, domain.DistanceDot, settings.VectorIndex.Distance)
	assert.Equal(t, 8, settings.Ingest.Workers)
	assert.Equal(t, 15*time.Second, settings.Ingest.CallTimeout)
	assert.False(t, settings.Ingest.StoreContent)
}

func TestSettingsService_Get_ExplicitDimensions(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("embedding.dimensions", 256)

	settings, err := newTestSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 256, settings.Embedding.Dimensions)
}

func TestSettingsService_Get_InvalidDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"malformed string", "soon"},
		{"bare number", int64(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set("ingest.call_timeout", tt.value)

			settings, err := newTestSettingsService(store, nil).Get()
			require.Error(t, err)
			assert.Nil(t, settings)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), "ingest.call_timeout")
		})
	}
}

func TestSettingsService_Get_EmptyDurationUsesDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("ingest.call_timeout", "")

	settings, err := newTestSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Ingest.CallTimeout, settings.Ingest.CallTimeout)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.api_key", "stored-key")
	_ = store.Set("vector_index.url", "http://stored:6334")

	env := map[string]string{
		EnvOpenAIAPIKey:      "env-key",
		EnvQdrantURL:         "https://cluster.example:6334",
		EnvQdrantToken:       "token",
		EnvEmbeddingProvider: "OpenAI",
		EnvEmbeddingModel:    "text-embedding-3-small",
		EnvVectorBackend:     "qdrant",
	}
	settings, err := newTestSettingsService(store, env).Get()
	require.NoError(t, err)

	assert.Equal(t, "env-key", settings.Embedding.APIKey)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, 1536, settings.Embedding.Dimensions)
	assert.Equal(t, domain.VectorBackendQdrant, settings.VectorIndex.Backend)
	assert.Equal(t, "https://cluster.example:6334", settings.VectorIndex.URL)
	assert.Equal(t, "token", settings.VectorIndex.APIKey)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	settings := domain.DefaultSettings()
	settings.Discovery.Root = "site/docs"
	settings.Embedding.APIKey = "sk-test"
	settings.VectorIndex.URL = "localhost:6334"
	settings.VectorIndex.Collection = "site"
	settings.Ingest.Workers = 4
	settings.Ingest.CallTimeout = 90 * time.Second
	settings.Ingest.StoreContent = false
	settings.DataDir = "/var/lib/docsync"

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)

	_, exists := store.Get("vector_index.api_key")
	assert.False(t, exists, "empty credentials are not written")
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	require.NoError(t, service.Set("ingest.workers", "6"))
	require.NoError(t, service.Set("embedding.requests_per_second", "0.5"))
	require.NoError(t, service.Set("ingest.store_content", "false"))
	require.NoError(t, service.Set("ingest.call_timeout", "2m"))
	require.NoError(t, service.Set("vector_index.distance", "euclid"))
	require.NoError(t, service.Set("vector_index.collection", "handbook"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 6, settings.Ingest.Workers)
	assert.Equal(t, 0.5, settings.Embedding.RequestsPerSecond)
	assert.False(t, settings.Ingest.StoreContent)
	assert.Equal(t, 2*time.Minute, settings.Ingest.CallTimeout)
	assert.Equal(t, domain.DistanceEuclid, settings.VectorIndex.Distance)
	assert.Equal(t, "handbook", settings.VectorIndex.Collection)
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	tests := []struct {
		key   string
		value string
	}{
		{"no.such.key", "x"},
		{"ingest.workers", "many"},
		{"embedding.requests_per_second", "fast"},
		{"ingest.store_content", "maybe"},
		{"ingest.call_timeout", "60"},
		{"embedding.provider", "cohere"},
		{"vector_index.backend", "pinecone"},
		{"vector_index.distance", "hamming"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := newTestSettingsService(memory.NewConfigStore(), nil).Keys()

	assert.Len(t, keys, len(settingKinds))
	assert.IsNonDecreasing(t, keys)
	assert.Contains(t, keys, "ingest.workers")
}

func TestSettingsService_Validate(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	valid := func() domain.Settings {
		s := domain.DefaultSettings()
		s.Embedding.APIKey = "sk-test"
		s.VectorIndex.URL = "localhost:6334"
		return s
	}

	base := valid()
	assert.NoError(t, service.Validate(&base))
	assert.ErrorIs(t, service.Validate(nil), domain.ErrConfiguration)

	tests := []struct {
		name     string
		mutate   func(s *domain.Settings)
		contains string
	}{
		{"missing api key", func(s *domain.Settings) { s.Embedding.APIKey = "" }, EnvOpenAIAPIKey},
		{"unknown provider", func(s *domain.Settings) { s.Embedding.Provider = "cohere" }, "cohere"},
		{"empty model", func(s *domain.Settings) { s.Embedding.Model = "" }, "model"},
		{"model from another provider", func(s *domain.Settings) { s.Embedding.Model = "nomic-embed-text" }, "nomic-embed-text"},
		{"zero dimensions", func(s *domain.Settings) { s.Embedding.Dimensions = 0 }, "dimensions"},
		{"negative rate", func(s *domain.Settings) { s.Embedding.RequestsPerSecond = -1 }, "requests per second"},
		{"missing qdrant url", func(s *domain.Settings) { s.VectorIndex.URL = "" }, EnvQdrantURL},
		{"unknown backend", func(s *domain.Settings) { s.VectorIndex.Backend = "pinecone" }, "pinecone"},
		{"empty collection", func(s *domain.Settings) { s.VectorIndex.Collection = "" }, "collection"},
		{"unknown distance", func(s *domain.Settings) { s.VectorIndex.Distance = "hamming" }, "hamming"},
		{"zero workers", func(s *domain.Settings) { s.Ingest.Workers = 0 }, "workers"},
		{"negative timeout", func(s *domain.Settings) { s.Ingest.CallTimeout = -time.Second }, "timeout"},
		{"empty root", func(s *domain.Settings) { s.Discovery.Root = "" }, "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := service.Validate(&s)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSettingsService_Validate_MemoryBackendNeedsNoURL(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	s := domain.DefaultSettings()
	s.Embedding.Provider = domain.EmbeddingProviderOllama
	s.Embedding.Model = "nomic-embed-text"
	s.Embedding.Dimensions = 768
	s.VectorIndex.Backend = domain.VectorBackendMemory
	assert.NoError(t, service.Validate(&s))
}

func TestSettingsService_Validate_StoredModelAfterProviderSwitch(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	saved := domain.DefaultSettings()
	saved.VectorIndex.Backend = domain.VectorBackendMemory
	require.NoError(t, service.Save(&saved))

	switched := newTestSettingsService(store, map[string]string{EnvEmbeddingProvider: "ollama"})
	settings, err := switched.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-ada-002", settings.Embedding.Model)

	err = switched.Validate(settings)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "text-embedding-ada-002 is served by openai")

	// Models the table does not know are accepted for either provider.
	settings.Embedding.Model = "my-local-model"
	assert.NoError(t, switched.Validate(settings))
}

func TestSettingsService_Validate_ReportsEveryProblem(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	s := domain.DefaultSettings()
	s.Ingest.Workers = 0
	err := service.Validate(&s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvOpenAIAPIKey)
	assert.Contains(t, err.Error(), EnvQdrantURL)
	assert.Contains(t, err.Error(), "workers")
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultSettings(), service.GetDefaults())
}

func TestSettingsService_ValidateConnectivity(t *testing.T) {
	t.Run("no validator", func(t *testing.T) {
		service := newTestSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateVectorIndexConfig())
	})

	t.Run("delegates resolved settings", func(t *testing.T) {
		validator := &mockAIValidator{}
		service := NewSettingsService(memory.NewConfigStore(), validator,
			WithGetenv(envMap(map[string]string{EnvQdrantURL: "localhost"})))

		require.NoError(t, service.ValidateEmbeddingConfig())
		require.NoError(t, service.ValidateVectorIndexConfig())
		require.NotNil(t, validator.embedding)
		assert.Equal(t, domain.EmbeddingProviderOpenAI, validator.embedding.Provider)
		require.NotNil(t, validator.vector)
		assert.Equal(t, "localhost", validator.vector.URL)
	})

	t.Run("propagates failures", func(t *testing.T) {
		validator := &mockAIValidator{err: errors.New("unreachable")}
		service := NewSettingsService(memory.NewConfigStore(), validator)
		assert.Error(t, service.ValidateEmbeddingConfig())
		assert.Error(t, service.ValidateVectorIndexConfig())
	})
}
