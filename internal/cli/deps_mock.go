package cli

import (
	"bytes"
	"io"
	"strings"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/ssl"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	LoadPaths []string
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	m.LoadPaths = append(m.LoadPaths, path)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	cp := *m.Cfg
	return &cp, nil
}

// MockLauncherFactory is a test double for LauncherFactory
type MockLauncherFactory struct {
	Launcher executor.ProcessLauncher
	Err      error
	Created  []*config.Config
}

func (m *MockLauncherFactory) Create(cfg *config.Config) (executor.ProcessLauncher, error) {
	m.Created = append(m.Created, cfg)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Launcher == nil {
		m.Launcher = &executor.MockLauncher{}
	}
	return m.Launcher, nil
}

// MockStdinReader is a test double for StdinReader
type MockStdinReader struct {
	Input string
	pos   int
}

func (m *MockStdinReader) ReadString(delim byte) (string, error) {
	if m.pos >= len(m.Input) {
		return "", io.EOF
	}
	idx := strings.IndexByte(m.Input[m.pos:], delim)
	if idx == -1 {
		result := m.Input[m.pos:]
		m.pos = len(m.Input)
		return result, nil
	}
	result := m.Input[m.pos : m.pos+idx+1]
	m.pos += idx + 1
	return result, nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:    &MockConfigLoader{Cfg: config.New()},
			LauncherFactory: &MockLauncherFactory{Launcher: &executor.MockLauncher{}},
			StdinReader:     &MockStdinReader{Input: "y\n"},
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithLauncher sets the launcher every case runs through
func (b *MockDependenciesBuilder) WithLauncher(l executor.ProcessLauncher) *MockDependenciesBuilder {
	b.deps.LauncherFactory = &MockLauncherFactory{Launcher: l}
	return b
}

// WithLauncherFactory sets a custom launcher factory
func (b *MockDependenciesBuilder) WithLauncherFactory(f LauncherFactory) *MockDependenciesBuilder {
	b.deps.LauncherFactory = f
	return b
}

// WithStdinInput sets the stdin input for the mock
func (b *MockDependenciesBuilder) WithStdinInput(input string) *MockDependenciesBuilder {
	b.deps.StdinReader = &MockStdinReader{Input: input}
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
	}
	OldDeps    *Dependencies
	Launcher   *executor.MockLauncher
	MockConfig *MockConfigLoader
	Output     *bytes.Buffer
}

// NewTestHelper installs mock dependencies, captures output and resets
// command flags. Everything is restored when the test finishes.
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
}) *TestHelper {
	t.Helper()

	launcher := &executor.MockLauncher{}
	mockConfig := &MockConfigLoader{Cfg: config.New()}

	helper := &TestHelper{
		T:          t,
		OldDeps:    GetDeps(),
		Launcher:   launcher,
		MockConfig: mockConfig,
		Output:     &bytes.Buffer{},
	}

	SetDeps(NewMockDeps().
		WithLauncher(launcher).
		WithConfigLoader(mockConfig).
		Build())
	ssl.SetLauncher(launcher)
	output.SetOutput(helper.Output)
	resetFlags()

	t.Cleanup(func() {
		SetDeps(helper.OldDeps)
		ssl.ResetLauncher()
		output.SetOutput(nil)
		resetFlags()
	})

	return helper
}

// SetStdinInput sets the stdin input
func (h *TestHelper) SetStdinInput(input string) {
	deps.StdinReader = &MockStdinReader{Input: input}
}

// GetConfig returns the current mock config
func (h *TestHelper) GetConfig() *config.Config {
	return h.MockConfig.Cfg
}

// resetFlags restores every command flag variable to its default.
func resetFlags() {
	jsonOutput = false
	verbose = false
	configPath = ""

	runParallel = 0
	runTimeout = ""
	runFormat = ""
	runFilter = ""
	runFailFast = false
	runOutput = ""
	runQuiet = false

	newHost = ""
	newProductionHost = ""
	newProductionCN = ""
	newPort = 0
	newStage = ""
	newWorkdir = ""
	newForce = false

	checkPort = 0
	checkCN = ""
	checkPoodle = false

	mcpHTTPAddr = ""
}
