package domain

import "time"

// RunStatus is the lifecycle state of an ingestion run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal returns true once the run has finished.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Run is the ledger entry for one ingestion run.
type Run struct {
	// ID is the unique identifier for the run.
	ID string

	// Collection is the collection the run rebuilt.
	Collection string

	// Status is the current state of the run.
	Status RunStatus

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run finished. Zero while running.
	EndedAt time.Time

	// Documents is the number of documents fully indexed.
	Documents int

	// Chunks is the number of chunks produced by the segmenter.
	Chunks int

	// Records is the number of records upserted.
	Records int

	// FailedStage is the pipeline stage that failed, if any.
	FailedStage Stage

	// FailedDocument is the path of the document being processed on failure.
	FailedDocument string

	// Error contains the error message if the run failed.
	Error string
}

// Duration returns how long the run took, or 0 while it is running.
func (r Run) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
