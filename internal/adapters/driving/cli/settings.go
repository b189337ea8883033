package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change discovery, embedding, vector index and ingest settings.

Environment variables override stored values: OPENAI_API_KEY, QDRANT_URL,
QDRANT_TOKEN, DOCSYNC_EMBEDDING_PROVIDER, DOCSYNC_EMBEDDING_MODEL and
DOCSYNC_VECTOR_BACKEND. A .env file in the working directory is loaded first.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long:  `Stores a single setting. Run 'docsync settings keys' for the list of keys.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the embedding provider and vector index",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	field := func(label string, value any) {
		cmd.Printf("  %s %v\n", styles.Label.Render(label+":"), value)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println()

	cmd.Println(styles.Section.Render("[Discovery]"))
	field("Root", settings.Discovery.Root)
	field("Prefix", settings.Discovery.Prefix)
	field("Extension", orNone(settings.Discovery.Extension))
	cmd.Println()

	cmd.Println(styles.Section.Render("[Embedding]"))
	field("Provider", settings.Embedding.Provider.Description())
	field("Model", settings.Embedding.Model)
	field("Dimensions", settings.Embedding.Dimensions)
	field("Tag", orNone(settings.Embedding.Tag))
	if settings.Embedding.BaseURL != "" {
		field("Base URL", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		field("API Key", maskAPIKey(settings.Embedding.APIKey))
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		field("Rate", fmt.Sprintf("%g req/s", settings.Embedding.RequestsPerSecond))
	}
	cmd.Println()

	cmd.Println(styles.Section.Render("[Vector Index]"))
	field("Backend", settings.VectorIndex.Backend.Description())
	if settings.VectorIndex.Backend == domain.VectorBackendQdrant {
		field("URL", orNone(settings.VectorIndex.URL))
		field("API Key", maskAPIKey(settings.VectorIndex.APIKey))
	}
	field("Collection", settings.VectorIndex.Collection)
	field("Distance", settings.VectorIndex.Distance)
	cmd.Println()

	cmd.Println(styles.Section.Render("[Ingest]"))
	field("Workers", settings.Ingest.Workers)
	field("Call timeout", settings.Ingest.CallTimeout)
	field("Store text", settings.Ingest.StoreContent)
	cmd.Println()

	if err := settingsService.Validate(settings); err != nil {
		cmd.Println(styles.Warning.Render("Configuration problems:"))
		for _, line := range strings.Split(err.Error(), "\n") {
			cmd.Printf("  - %s\n", line)
		}
	} else {
		cmd.Println(styles.Success.Render("Configuration is valid."))
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	shown := value
	if strings.HasSuffix(key, "api_key") {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var failed bool
	check := func(name string, fn func() error) {
		cmd.Printf("Checking %s... ", name)
		if err := fn(); err != nil {
			failed = true
			cmd.Println(styles.Error.Render("FAILED: " + err.Error()))
			return
		}
		cmd.Println(styles.Success.Render("OK"))
	}

	check("embedding provider", settingsService.ValidateEmbeddingConfig)
	check("vector index", settingsService.ValidateVectorIndexConfig)

	if failed {
		return errors.New("connectivity check failed")
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
