package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.Settings
	getErr      error
	validateErr error
	set         map[string]string
	setErr      error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings()
	s.Embedding.APIKey = "sk-test-1234567890"
	s.VectorIndex.URL = "localhost:6334"
	return &mockSettingsService{settings: s, set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.Settings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.model", "ingest.workers"}
}

func (m *mockSettingsService) Validate(_ *domain.Settings) error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.Settings     { return domain.DefaultSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error   { return m.pingErr }
func (m *mockSettingsService) ValidateVectorIndexConfig() error { return m.pingErr }

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	mu        sync.Mutex
	run       *domain.Run
	err       error
	watchRuns int
	calls     int
}

func (m *mockIngestor) Run(_ context.Context, _ []domain.Document) (*domain.Run, error) {
	return m.run, m.err
}

func (m *mockIngestor) IngestAll(_ context.Context) (*domain.Run, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.run, m.err
}

func (m *mockIngestor) Watch(ctx context.Context, report func(*domain.Run, error)) error {
	for i := 0; i < m.watchRuns; i++ {
		report(m.IngestAll(ctx))
	}
	return nil
}

func (m *mockIngestor) Status() driving.IngestStatus {
	return driving.IngestStatus{}
}

// mockRunHistory implements driving.RunHistory for testing.
type mockRunHistory struct {
	runs []domain.Run
	err  error
}

func (m *mockRunHistory) Get(_ context.Context, id string) (*domain.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, run := range m.runs {
		if run.ID == id {
			r := run
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunHistory) List(_ context.Context, limit int) ([]domain.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// testEnv installs mocks and records the settings handed to the factory.
type testEnv struct {
	settings  *mockSettingsService
	ingestor  *mockIngestor
	runs      *mockRunHistory
	built     *domain.Settings
	cleanedUp bool
}

func setupCLITest(t *testing.T) *testEnv {
	t.Helper()

	oldSettings, oldRuns, oldFactory := settingsService, runHistory, newIngestor
	env := &testEnv{
		settings: newMockSettingsService(),
		ingestor: &mockIngestor{},
		runs:     &mockRunHistory{},
	}
	Configure(Config{
		Settings: env.settings,
		Runs:     env.runs,
		NewIngestor: func(settings *domain.Settings) (driving.Ingestor, func(), error) {
			env.built = settings
			return env.ingestor, func() { env.cleanedUp = true }, nil
		},
	})

	t.Cleanup(func() {
		settingsService, runHistory, newIngestor = oldSettings, oldRuns, oldFactory
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return env
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
