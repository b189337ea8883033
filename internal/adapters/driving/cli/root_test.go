package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docsync", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"ingest", "segment", "runs", "watch", "settings", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	setupCLITest(t)
	defer logger.SetVerbose(false)

	_, err := execute(t, "--verbose", "version")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}
