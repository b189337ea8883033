package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the service that turns chunk text into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOpenAI is the OpenAI embeddings API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	return p == EmbeddingProviderOpenAI || p == EmbeddingProviderOllama
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendQdrant is a Qdrant server reached over gRPC.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendMemory keeps collections in process. Nothing is persisted.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendQdrant || b == VectorBackendMemory
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendQdrant:
		return "Qdrant (remote)"
	case VectorBackendMemory:
		return "In-memory (dry run)"
	default:
		return unknownDescription
	}
}

// DiscoverySettings controls which files become documents.
type DiscoverySettings struct {
	// Root is the directory walked recursively.
	Root string

	// Prefix is stripped from each file path to form the document key.
	Prefix string

	// Extension filters files by suffix. Empty accepts every file.
	Extension string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Tag is the caller identifier sent with every request.
	Tag string

	// Dimensions is the vector size produced by the model.
	Dimensions int

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// URL is the Qdrant address, e.g. "https://host:6334".
	URL string

	// APIKey authenticates against Qdrant.
	APIKey string

	// Collection is the name of the collection rebuilt on every run.
	Collection string

	// Distance is the similarity metric of the collection.
	Distance Distance
}

// IngestSettings controls the ingestion run.
type IngestSettings struct {
	// Workers is the number of documents processed concurrently.
	Workers int

	// CallTimeout bounds each embedding and upsert call. Zero disables it.
	CallTimeout time.Duration

	// StoreContent writes the chunk text into the record payload.
	StoreContent bool
}

// Settings holds all application settings.
type Settings struct {
	Discovery   DiscoverySettings
	Embedding   EmbeddingSettings
	VectorIndex VectorIndexSettings
	Ingest      IngestSettings

	// DataDir holds the run ledger database.
	DataDir string
}

// CollectionSpec returns the collection shape implied by the settings.
func (s Settings) CollectionSpec() CollectionSpec {
	return CollectionSpec{
		Name:       s.VectorIndex.Collection,
		Dimensions: s.Embedding.Dimensions,
		Distance:   s.VectorIndex.Distance,
	}
}

// DefaultSettings returns settings with the defaults of the original deployment:
// ".mdx" files under "docs", ada-002 embeddings into the "docs" collection.
func DefaultSettings() Settings {
	return Settings{
		Discovery: DiscoverySettings{
			Root:      "docs",
			Prefix:    ".",
			Extension: ".mdx",
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderOpenAI,
			Model:      "text-embedding-ada-002",
			Tag:        "docsync",
			Dimensions: 1536,
		},
		VectorIndex: VectorIndexSettings{
			Backend:    VectorBackendQdrant,
			Collection: "docs",
			Distance:   DistanceCosine,
		},
		Ingest: IngestSettings{
			Workers:      1,
			CallTimeout:  60 * time.Second,
			StoreContent: true,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOllama: "nomic-embed-text",
		EmbeddingProviderOpenAI: "text-embedding-ada-002",
	}
}

// EmbeddingModelProviders maps known embedding models to the provider that serves them.
func EmbeddingModelProviders() map[string]EmbeddingProvider {
	return map[string]EmbeddingProvider{
		"nomic-embed-text":       EmbeddingProviderOllama,
		"mxbai-embed-large":      EmbeddingProviderOllama,
		"all-minilm":             EmbeddingProviderOllama,
		"text-embedding-3-small": EmbeddingProviderOpenAI,
		"text-embedding-3-large": EmbeddingProviderOpenAI,
		"text-embedding-ada-002": EmbeddingProviderOpenAI,
	}
}

// EmbeddingDimensions returns known dimensions for common embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
