package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Ingestor rebuilds the vector collection from a document set.
type Ingestor interface {
	// Run resets the collection and indexes docs in order.
	Run(ctx context.Context, docs []domain.Document) (*domain.Run, error)

	// IngestAll discovers documents from the configured source, then runs.
	IngestAll(ctx context.Context) (*domain.Run, error)

	// Watch runs IngestAll once, then again after every change signalled
	// by the document source, until ctx is done. report receives each result.
	Watch(ctx context.Context, report func(*domain.Run, error)) error

	// Status returns a snapshot of the current run.
	Status() IngestStatus
}

// IngestStatus represents the current state of an ingestion run.
type IngestStatus struct {
	// RunID identifies the run. Empty before the first run.
	RunID string

	// Running indicates if a run is currently in progress.
	Running bool

	// DocumentsTotal is the number of documents in the run.
	DocumentsTotal int

	// DocumentsProcessed is the count of documents fully indexed.
	DocumentsProcessed int

	// RecordsUpserted is the count of records written.
	RecordsUpserted int

	// CurrentDocument is the most recently started document.
	CurrentDocument string
}

// RunHistory exposes the ingestion run ledger.
type RunHistory interface {
	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
