package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

func TestRunsCmd_List(t *testing.T) {
	env := setupCLITest(t)
	failed := *succeededRun()
	failed.ID = "run-0"
	failed.Status = domain.RunStatusFailed
	env.runs.runs = []domain.Run{*succeededRun(), failed}

	out, err := execute(t, "runs")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "run-0")
	assert.Contains(t, out, "failed")
}

func TestRunsCmd_ListLimit(t *testing.T) {
	env := setupCLITest(t)
	second := *succeededRun()
	second.ID = "run-2"
	env.runs.runs = []domain.Run{second, *succeededRun()}

	out, err := execute(t, "runs", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "run-2")
	assert.NotContains(t, out, "run-1")
}

func TestRunsCmd_Empty(t *testing.T) {
	setupCLITest(t)

	out, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestRunsCmd_Errors(t *testing.T) {
	env := setupCLITest(t)
	env.runs.err = errBoom

	_, err := execute(t, "runs")
	assert.ErrorIs(t, err, errBoom)

	runHistory = nil
	_, err = execute(t, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run history not configured")
}

func TestRunsShowCmd(t *testing.T) {
	env := setupCLITest(t)
	run := *succeededRun()
	run.Status = domain.RunStatusFailed
	run.FailedStage = domain.StageUpsert
	run.FailedDocument = "a.mdx"
	run.Error = "upsert a.mdx: rejected"
	env.runs.runs = []domain.Run{run}

	out, err := execute(t, "runs", "show", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "upsert")
	assert.Contains(t, out, "a.mdx")
	assert.Contains(t, out, "upsert a.mdx: rejected")
}

func TestRunsShowCmd_NotFound(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "runs", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run missing not found")
}

func TestFormatDuration(t *testing.T) {
	run := *succeededRun()
	assert.Equal(t, "1.5s", formatDuration(run))

	run.Status = domain.RunStatusRunning
	run.EndedAt = time.Time{}
	assert.Equal(t, "-", formatDuration(run))
}
