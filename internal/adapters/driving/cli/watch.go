package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the collection whenever documents change",
	Long: `Runs an ingest immediately, then watches the document tree and runs
again after every burst of changes. Press Ctrl+C to stop.

A failed run is reported and watching continues.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ingestor, cleanup, err := buildIngestor(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	cmd.Println(styles.Title.Render("Watching for changes (Ctrl+C to stop)..."))

	report := func(run *domain.Run, err error) {
		stamp := styles.Muted.Render(time.Now().Format(time.TimeOnly))
		switch {
		case err != nil && run == nil:
			cmd.Printf("%s %s\n", stamp, styles.Error.Render(fmt.Sprintf("ingest failed: %v", err)))
		case err != nil:
			cmd.Printf("%s %s\n", stamp, styles.Error.Render(fmt.Sprintf("run %s failed: %v", run.ID, err)))
		default:
			cmd.Printf("%s %s\n", stamp, styles.Success.Render(fmt.Sprintf(
				"run %s: %d documents, %d records", run.ID, run.Documents, run.Records)))
		}
	}

	if err := ingestor.Watch(ctx, report); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}
