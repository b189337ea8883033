package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunInProgress indicates an ingestion run is already running.
	ErrRunInProgress = errors.New("ingestion run in progress")

	// ErrEmbeddingMismatch indicates the provider returned a different
	// number of vectors than texts submitted, or a vector of the wrong size.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not reachable.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// Error taxonomy. Every failure surfaced by a run matches exactly one of these.
var (
	// ErrConfiguration indicates missing or invalid settings or credentials.
	ErrConfiguration = errors.New("configuration error")

	// ErrDiscovery indicates the document set could not be produced.
	ErrDiscovery = errors.New("discovery error")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding error")

	// ErrIndexing indicates the vector index failed.
	ErrIndexing = errors.New("indexing error")
)

// Stage names a step of the ingestion pipeline.
type Stage string

// Pipeline stages.
const (
	StageDiscovery Stage = "discovery"
	StageReset     Stage = "reset"
	StageEmbedding Stage = "embedding"
	StageUpsert    Stage = "upsert"
)

// Kind returns the taxonomy error the stage reports as.
func (s Stage) Kind() error {
	switch s {
	case StageDiscovery:
		return ErrDiscovery
	case StageEmbedding:
		return ErrEmbedding
	case StageReset, StageUpsert:
		return ErrIndexing
	default:
		return nil
	}
}

// StageError records which stage failed and on which document.
type StageError struct {
	// Stage is the failing pipeline stage.
	Stage Stage

	// Path is the document being processed. Empty for run-level stages.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the taxonomy error of the failing stage.
func (e *StageError) Is(target error) bool {
	kind := e.Stage.Kind()
	return kind != nil && target == kind
}

// NewStageError wraps err with the stage and document path.
func NewStageError(stage Stage, path string, err error) *StageError {
	return &StageError{Stage: stage, Path: path, Err: err}
}
