package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest runs",
	Long:  `Lists the most recent ingest runs from the run ledger, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show details of an ingest run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if runHistory == nil {
		return errors.New("run history not configured")
	}

	runs, err := runHistory.List(context.Background(), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDOCUMENTS\tRECORDS\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Status,
			run.StartedAt.Local().Format(time.DateTime),
			run.Documents,
			run.Records,
			formatDuration(run),
		)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if runHistory == nil {
		return errors.New("run history not configured")
	}

	run, err := runHistory.Get(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("run %s not found", args[0])
		}
		return fmt.Errorf("failed to get run: %w", err)
	}

	cmd.Println(styles.Title.Render("Run " + run.ID))
	cmd.Printf("  %s %s\n", styles.Label.Render("Status:"), run.Status)
	cmd.Printf("  %s %s\n", styles.Label.Render("Collection:"), run.Collection)
	cmd.Printf("  %s %s\n", styles.Label.Render("Started:"), run.StartedAt.Local().Format(time.DateTime))
	if !run.EndedAt.IsZero() {
		cmd.Printf("  %s %s\n", styles.Label.Render("Ended:"), run.EndedAt.Local().Format(time.DateTime))
	}
	cmd.Printf("  %s %s\n", styles.Label.Render("Duration:"), formatDuration(*run))
	cmd.Printf("  %s %d\n", styles.Label.Render("Documents:"), run.Documents)
	cmd.Printf("  %s %d\n", styles.Label.Render("Chunks:"), run.Chunks)
	cmd.Printf("  %s %d\n", styles.Label.Render("Records:"), run.Records)
	if run.FailedStage != "" {
		cmd.Printf("  %s %s\n", styles.Label.Render("Stage:"), run.FailedStage)
	}
	if run.FailedDocument != "" {
		cmd.Printf("  %s %s\n", styles.Label.Render("Document:"), run.FailedDocument)
	}
	if run.Error != "" {
		cmd.Printf("  %s %s\n", styles.Label.Render("Error:"), styles.Error.Render(run.Error))
	}
	return nil
}

func formatDuration(run domain.Run) string {
	if !run.Status.IsTerminal() {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
