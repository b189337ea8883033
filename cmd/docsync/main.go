// Command docsync segments a document tree and rebuilds a vector collection from it.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsync/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsync/internal/connectors/filesystem"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/core/services"
	"github.com/custodia-labs/docsync/internal/logger"
	"github.com/custodia-labs/docsync/internal/segmenter"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		return 1
	}

	configDir, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	// Invalid settings are reported by the commands that need them, so
	// "settings set" can still repair the file.
	dataDir := configStore.GetString("data_dir")

	runStore, closeRuns := openRunStore(dataDir)
	defer closeRuns()

	cli.SetVersion(version)
	cli.Configure(cli.Config{
		Settings:    settingsService,
		Runs:        services.NewRunHistoryService(runStore),
		NewIngestor: ingestFactory(runStore),
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// openRunStore opens the SQLite run ledger, falling back to an in-memory
// ledger so ingestion still works when the data directory is unusable.
func openRunStore(dataDir string) (driven.RunStore, func()) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		logger.Warn("run ledger unavailable, runs will not be persisted: %v", err)
		return memory.NewRunStore(), func() {}
	}
	return store.RunStore(), func() {
		if err := store.Close(); err != nil {
			logger.Warn("close run ledger: %v", err)
		}
	}
}

// ingestFactory wires the adapters named by settings into an orchestrator.
func ingestFactory(runs driven.RunStore) cli.IngestFactory {
	return func(settings *domain.Settings) (driving.Ingestor, func(), error) {
		adapters, err := ai.CreateServices(settings)
		if err != nil {
			return nil, nil, err
		}

		if dims := adapters.EmbeddingService.Dimensions(); dims != settings.Embedding.Dimensions {
			logger.Warn("model %s reports %d dimensions, collection uses %d",
				adapters.EmbeddingService.ModelName(), dims, settings.Embedding.Dimensions)
		}

		source := filesystem.New(
			settings.Discovery.Root,
			settings.Discovery.Prefix,
			settings.Discovery.Extension,
		)

		orchestrator := services.NewIngestOrchestrator(
			segmenter.New(),
			adapters.EmbeddingService,
			adapters.VectorIndex,
			settings.CollectionSpec(),
			services.WithWorkers(settings.Ingest.Workers),
			services.WithCallTimeout(settings.Ingest.CallTimeout),
			services.WithStoreContent(settings.Ingest.StoreContent),
			services.WithRunStore(runs),
			services.WithDocumentSource(source),
		)

		cleanup := func() {
			if err := source.Close(); err != nil {
				logger.Warn("close document source: %v", err)
			}
			adapters.Close()
		}
		return orchestrator, cleanup, nil
	}
}
