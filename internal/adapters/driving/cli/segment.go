package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/segmenter"
)

var segmentJSON bool

var segmentCmd = &cobra.Command{
	Use:   "segment <file>",
	Short: "Show the chunks a document is split into",
	Long: `Segments a single file exactly as ingest would and prints the chunks.
Nothing is embedded or written to the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().BoolVar(&segmentJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(segmentCmd)
}

// segmentOutput is the JSON shape of the segment command.
type segmentOutput struct {
	Path     string         `json:"path"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Chunks   []chunkOutput  `json:"chunks"`
}

type chunkOutput struct {
	Position  int    `json:"position"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

func runSegment(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	text := string(content)
	chunks := segmenter.Segment(text)

	if segmentJSON {
		return outputSegmentJSON(cmd, path, segmenter.FrontMatter(text), chunks)
	}
	outputSegmentText(cmd, chunks)
	return nil
}

func outputSegmentJSON(cmd *cobra.Command, path string, metadata map[string]any, chunks []domain.Chunk) error {
	out := segmentOutput{
		Path:     path,
		Metadata: metadata,
		Chunks:   make([]chunkOutput, len(chunks)),
	}
	for i, c := range chunks {
		out.Chunks[i] = chunkOutput{
			Position:  c.Position,
			Kind:      c.Kind.String(),
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Text:      c.Text,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSegmentText(cmd *cobra.Command, chunks []domain.Chunk) {
	if len(chunks) == 0 {
		cmd.Println("No chunks.")
		return
	}

	for _, c := range chunks {
		header := fmt.Sprintf("[%d] %s, lines %d-%d", c.Position, c.Kind, c.StartLine, c.EndLine)
		cmd.Println(styles.Section.Render(header))
		for _, line := range strings.Split(strings.TrimSuffix(c.Text, "\n"), "\n") {
			cmd.Printf("  %s\n", line)
		}
		cmd.Println()
	}
	cmd.Printf("%d chunks\n", len(chunks))
}
