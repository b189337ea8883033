package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// DocumentSource produces the document set for a run.
type DocumentSource interface {
	// Discover returns every document, each with a unique path key.
	Discover(ctx context.Context) ([]domain.Document, error)

	// Watch signals whenever the document set may have changed.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
