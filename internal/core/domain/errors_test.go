package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrRunInProgress", ErrRunInProgress},
		{"ErrEmbeddingMismatch", ErrEmbeddingMismatch},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrDiscovery", ErrDiscovery},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrIndexing", ErrIndexing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestStage_Kind(t *testing.T) {
	assert.Equal(t, ErrDiscovery, StageDiscovery.Kind())
	assert.Equal(t, ErrEmbedding, StageEmbedding.Kind())
	assert.Equal(t, ErrIndexing, StageReset.Kind())
	assert.Equal(t, ErrIndexing, StageUpsert.Kind())
	assert.Nil(t, Stage("bogus").Kind())
}

func TestStageError_Error(t *testing.T) {
	cause := errors.New("boom")

	withPath := NewStageError(StageEmbedding, "guide/intro.mdx", cause)
	assert.Equal(t, "embedding guide/intro.mdx: boom", withPath.Error())

	withoutPath := NewStageError(StageReset, "", cause)
	assert.Equal(t, "reset: boom", withoutPath.Error())
}

func TestStageError_Is(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("ingest: %w", NewStageError(StageUpsert, "a.mdx", cause))

	assert.ErrorIs(t, err, ErrIndexing)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEmbedding)
	assert.NotErrorIs(t, err, ErrDiscovery)

	var stageErr *StageError
	assert.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageUpsert, stageErr.Stage)
	assert.Equal(t, "a.mdx", stageErr.Path)
}

func TestStageError_IsWrappedSentinel(t *testing.T) {
	err := NewStageError(StageEmbedding, "a.mdx", fmt.Errorf("got 1 vectors for 2 texts: %w", ErrEmbeddingMismatch))

	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}
