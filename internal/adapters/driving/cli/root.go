// Package cli implements the docsync command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var verbose bool

// IngestFactory builds an ingestor for resolved settings.
// The returned cleanup releases the adapters behind it.
type IngestFactory func(settings *domain.Settings) (driving.Ingestor, func(), error)

// Config holds the services the commands run against.
type Config struct {
	Settings    driving.SettingsService
	Runs        driving.RunHistory
	NewIngestor IngestFactory
}

var (
	settingsService driving.SettingsService
	runHistory      driving.RunHistory
	newIngestor     IngestFactory
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Segment documents and sync them into a vector index",
	Long: `docsync splits a tree of structured text documents into prose and code
chunks, embeds every chunk and rebuilds a vector collection from them.

Every ingest run deletes and recreates the collection, so the index always
mirrors the documents of the latest run.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Configure sets the services used by the commands.
func Configure(cfg Config) {
	settingsService = cfg.Settings
	runHistory = cfg.Runs
	newIngestor = cfg.NewIngestor
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveSettings returns the current settings or an error if the
// settings service is missing.
func resolveSettings() (*domain.Settings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	return settingsService.Get()
}
