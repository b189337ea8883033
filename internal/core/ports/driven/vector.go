package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// VectorIndex stores embeddings in named collections.
type VectorIndex interface {
	// DeleteCollection removes a collection and all its records.
	// Deleting a collection that does not exist succeeds.
	DeleteCollection(ctx context.Context, name string) error

	// CreateCollection creates an empty collection.
	// Returns domain.ErrAlreadyExists if the collection is present.
	CreateCollection(ctx context.Context, spec domain.CollectionSpec) error

	// Upsert inserts or replaces one record in the collection.
	Upsert(ctx context.Context, collection string, record domain.IndexRecord) error

	// Ping validates the index is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
