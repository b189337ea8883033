package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
)

func seedRuns(t *testing.T, store *memory.RunStore, n int) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, store.Save(context.Background(), domain.Run{
			ID:        fmt.Sprintf("run-%02d", i),
			Status:    domain.RunStatusSucceeded,
			StartedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestRunHistoryService_Get(t *testing.T) {
	store := memory.NewRunStore()
	seedRuns(t, store, 2)
	svc := NewRunHistoryService(store)

	run, err := svc.Get(context.Background(), " run-01 ")
	require.NoError(t, err)
	assert.Equal(t, "run-01", run.ID)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunHistoryService_List(t *testing.T) {
	store := memory.NewRunStore()
	seedRuns(t, store, DefaultRunListLimit+5)
	svc := NewRunHistoryService(store)

	runs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, DefaultRunListLimit)
	assert.Equal(t, fmt.Sprintf("run-%02d", DefaultRunListLimit+4), runs[0].ID)

	runs, err = svc.List(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
