package driven

import "github.com/custodia-labs/docsync/internal/core/domain"

// AIConfigValidator validates adapter configurations by testing connectivity
// to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateVectorIndex validates a vector index configuration by pinging it.
	ValidateVectorIndex(config *domain.VectorIndexSettings) error
}
