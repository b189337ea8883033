package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingProvider(t *testing.T) {
	tests := []struct {
		provider    EmbeddingProvider
		valid       bool
		requiresKey bool
		description string
	}{
		{EmbeddingProviderOpenAI, true, true, "OpenAI (cloud)"},
		{EmbeddingProviderOllama, true, false, "Ollama (local)"},
		{EmbeddingProvider("cohere"), false, false, unknownDescription},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
			assert.Equal(t, tt.requiresKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.description, tt.provider.Description())
		})
	}
}

func TestVectorBackend(t *testing.T) {
	assert.True(t, VectorBackendQdrant.IsValid())
	assert.True(t, VectorBackendMemory.IsValid())
	assert.False(t, VectorBackend("milvus").IsValid())
	assert.Equal(t, unknownDescription, VectorBackend("milvus").Description())
}

func TestDistance_IsValid(t *testing.T) {
	for _, d := range []Distance{DistanceCosine, DistanceDot, DistanceEuclid, DistanceManhattan} {
		assert.True(t, d.IsValid(), d.String())
	}
	assert.False(t, Distance("hamming").IsValid())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: EmbeddingProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: EmbeddingProviderOpenAI, APIKey: "sk-test"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: EmbeddingProviderOllama}.IsConfigured())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "docs", s.Discovery.Root)
	assert.Equal(t, ".mdx", s.Discovery.Extension)
	assert.Equal(t, EmbeddingProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, "text-embedding-ada-002", s.Embedding.Model)
	assert.Equal(t, 1536, s.Embedding.Dimensions)
	assert.Equal(t, VectorBackendQdrant, s.VectorIndex.Backend)
	assert.Equal(t, 1, s.Ingest.Workers)
	assert.Equal(t, 60*time.Second, s.Ingest.CallTimeout)

	spec := s.CollectionSpec()
	assert.Equal(t, CollectionSpec{Name: "docs", Dimensions: 1536, Distance: DistanceCosine}, spec)
}

func TestEmbeddingDimensions_DefaultModelsKnown(t *testing.T) {
	dims := EmbeddingDimensions()
	for provider, model := range DefaultEmbeddingModels() {
		_, ok := dims[model]
		assert.True(t, ok, "default model for %s has no known dimensions", provider)
	}
}

func TestEmbeddingModelProviders(t *testing.T) {
	owners := EmbeddingModelProviders()
	for provider, model := range DefaultEmbeddingModels() {
		assert.Equal(t, provider, owners[model], "default model %s", model)
	}
	for model := range EmbeddingDimensions() {
		_, ok := owners[model]
		assert.True(t, ok, "model %s has no provider", model)
	}
}
