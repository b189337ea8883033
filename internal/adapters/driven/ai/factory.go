// Package ai provides factory functions for the embedding and vector index adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docsync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docsync/internal/adapters/driven/embedding/openai"
	vectormem "github.com/custodia-labs/docsync/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docsync/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the adapters an ingestion run writes through.
type Services struct {
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.EmbeddingService != nil {
		s.EmbeddingService.Close()
	}
	if s.VectorIndex != nil {
		s.VectorIndex.Close()
	}
}

// CreateServices builds and pings both adapters. Nothing is returned unless
// both are reachable.
func CreateServices(settings *domain.Settings) (*Services, error) {
	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}

	index, err := CreateAndValidateVectorIndex(&settings.VectorIndex)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	return &Services{EmbeddingService: embedder, VectorIndex: index}, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docsync settings show' to check",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateVectorIndex creates a vector index and validates connectivity.
func CreateAndValidateVectorIndex(settings *domain.VectorIndexSettings) (driven.VectorIndex, error) {
	index, err := CreateVectorIndex(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := index.Ping(ctx); err != nil {
		index.Close()
		return nil, fmt.Errorf("%w: index unreachable (%w)", domain.ErrVectorIndexUnavailable, err)
	}

	return index, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateVectorIndexConfig creates an index from settings and pings it.
func ValidateVectorIndexConfig(settings *domain.VectorIndexSettings) error {
	index, err := CreateVectorIndex(settings)
	if err != nil {
		return err
	}
	defer index.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return index.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings missing", domain.ErrConfiguration)
	}
	if !settings.IsConfigured() {
		if settings.Provider.RequiresAPIKey() {
			return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrConfiguration, settings.Provider)
		}
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfiguration, settings.Provider)
	}

	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateVectorIndex creates the vector index named by settings.
func CreateVectorIndex(settings *domain.VectorIndexSettings) (driven.VectorIndex, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: vector index settings missing", domain.ErrConfiguration)
	}

	switch settings.Backend {
	case domain.VectorBackendMemory:
		return vectormem.NewVectorIndex(), nil

	case domain.VectorBackendQdrant:
		if settings.URL == "" {
			return nil, fmt.Errorf("%w: qdrant backend requires a URL (set QDRANT_URL)", domain.ErrConfiguration)
		}
		cfg, err := qdrant.ParseURL(settings.URL, settings.APIKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		index, err := qdrant.New(cfg)
		if err != nil {
			return nil, err
		}
		return index, nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector backend %q", domain.ErrConfiguration, settings.Backend)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Tag:               settings.Tag,
		Dimensions:        dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
