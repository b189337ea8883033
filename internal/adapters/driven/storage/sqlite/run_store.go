package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, collection, status, started_at, ended_at, documents, chunks, records,
	failed_stage, failed_document, error`

// Save stores or updates a run.
func (s *runStore) Save(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("saving run: %w", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			status = excluded.status,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			documents = excluded.documents,
			chunks = excluded.chunks,
			records = excluded.records,
			failed_stage = excluded.failed_stage,
			failed_document = excluded.failed_document,
			error = excluded.error
	`, run.ID, run.Collection, string(run.Status),
		run.StartedAt.UnixNano(), formatNullableTime(run.EndedAt),
		run.Documents, run.Chunks, run.Records,
		nullString(string(run.FailedStage)), nullString(run.FailedDocument), nullString(run.Error))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single run row.
func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var startedAt int64
	var endedAt sql.NullInt64
	var failedStage, failedDocument, errMsg sql.NullString

	if err := row.Scan(&run.ID, &run.Collection, &status, &startedAt, &endedAt,
		&run.Documents, &run.Chunks, &run.Records,
		&failedStage, &failedDocument, &errMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.EndedAt = parseNullableTime(endedAt)
	run.FailedStage = domain.Stage(failedStage.String)
	run.FailedDocument = failedDocument.String
	run.Error = errMsg.String

	return &run, nil
}

// formatNullableTime returns Unix nanoseconds, or nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

// parseNullableTime returns the UTC time, or zero time for NULL.
func parseNullableTime(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
