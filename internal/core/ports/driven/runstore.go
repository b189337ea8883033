package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// RunStore persists the ingestion run ledger.
type RunStore interface {
	// Save creates or replaces a run.
	Save(ctx context.Context, run domain.Run) error

	// Get retrieves a run by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns the most recent runs, newest first.
	// A limit of 0 or less returns every run.
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
