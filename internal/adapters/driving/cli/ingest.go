package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Flags for ingest.
var (
	ingestRoot       string
	ingestPrefix     string
	ingestExt        string
	ingestWorkers    int
	ingestCollection string
	ingestDryRun     bool
)

// progressInterval is how often progress is redrawn on a terminal.
const progressInterval = 500 * time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the vector collection from the document tree",
	Long: `Discovers every document under the root, segments it into chunks,
embeds the chunks and writes them to a freshly recreated collection.

The run stops at the first failure. Records written before the failure
stay in the collection until the next successful run.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestRoot, "root", "", "directory to walk (default from settings)")
	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "", "path stripped from document keys (default from settings)")
	ingestCmd.Flags().StringVar(&ingestExt, "ext", "", "file suffix to include (default from settings)")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "documents processed concurrently (default from settings)")
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "", "collection to rebuild (default from settings)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "write to an in-memory index instead of the configured backend")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ingestor, cleanup, err := buildIngestor(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	cmd.Println(styles.Title.Render("Ingesting documents..."))

	run, err := ingestWithProgress(ctx, cmd, ingestor)
	if run != nil {
		printRunSummary(cmd, run)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

// buildIngestor resolves settings, applies command flags and validates the result.
func buildIngestor(cmd *cobra.Command) (driving.Ingestor, func(), error) {
	if newIngestor == nil {
		return nil, nil, errors.New("ingest service not configured")
	}

	settings, err := resolveSettings()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settings: %w", err)
	}
	applyIngestFlags(cmd, settings)

	if err := settingsService.Validate(settings); err != nil {
		return nil, nil, err
	}

	ingestor, cleanup, err := newIngestor(settings)
	if err != nil {
		return nil, nil, err
	}
	if cleanup == nil {
		cleanup = func() {}
	}
	return ingestor, cleanup, nil
}

func applyIngestFlags(cmd *cobra.Command, settings *domain.Settings) {
	flags := cmd.Flags()
	if flags.Changed("root") {
		settings.Discovery.Root = ingestRoot
	}
	if flags.Changed("prefix") {
		settings.Discovery.Prefix = ingestPrefix
	}
	if flags.Changed("ext") {
		settings.Discovery.Extension = ingestExt
	}
	if flags.Changed("workers") {
		settings.Ingest.Workers = ingestWorkers
	}
	if flags.Changed("collection") {
		settings.VectorIndex.Collection = ingestCollection
	}
	if ingestDryRun {
		settings.VectorIndex.Backend = domain.VectorBackendMemory
	}
}

// ingestWithProgress runs ingestion while displaying progress updates.
// Progress is only drawn when stdout is a terminal.
func ingestWithProgress(ctx context.Context, cmd *cobra.Command, ingestor driving.Ingestor) (*domain.Run, error) {
	type result struct {
		run *domain.Run
		err error
	}
	done := make(chan result, 1)
	go func() {
		run, err := ingestor.IngestAll(ctx)
		done <- result{run: run, err: err}
	}()

	if !isTerminal(cmd.OutOrStdout()) {
		r := <-done
		return r.run, r.err
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case r := <-done:
			cmd.Print("\r\033[K")
			return r.run, r.err
		case <-ticker.C:
			status := ingestor.Status()
			if status.Running {
				cmd.Printf("\r\033[K%s", formatProgress(status))
			}
		}
	}
}

func formatProgress(status driving.IngestStatus) string {
	return fmt.Sprintf("Processing %d/%d documents, %d records: %s",
		status.DocumentsProcessed, status.DocumentsTotal, status.RecordsUpserted, status.CurrentDocument)
}

func printRunSummary(cmd *cobra.Command, run *domain.Run) {
	switch run.Status {
	case domain.RunStatusSucceeded:
		cmd.Println(styles.Success.Render(fmt.Sprintf("Run %s succeeded", run.ID)))
	case domain.RunStatusFailed:
		cmd.Println(styles.Error.Render(fmt.Sprintf("Run %s failed", run.ID)))
	default:
		cmd.Printf("Run %s %s\n", run.ID, run.Status)
	}

	cmd.Printf("  %s %s\n", styles.Label.Render("Collection:"), run.Collection)
	cmd.Printf("  %s %d\n", styles.Label.Render("Documents:"), run.Documents)
	cmd.Printf("  %s %d\n", styles.Label.Render("Chunks:"), run.Chunks)
	cmd.Printf("  %s %d\n", styles.Label.Render("Records:"), run.Records)
	cmd.Printf("  %s %s\n", styles.Label.Render("Duration:"), run.Duration().Round(time.Millisecond))
	if run.FailedStage != "" {
		cmd.Printf("  %s %s\n", styles.Label.Render("Stage:"), run.FailedStage)
	}
	if run.FailedDocument != "" {
		cmd.Printf("  %s %s\n", styles.Label.Render("Document:"), run.FailedDocument)
	}
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
