package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	cerrors "github.com/ksyq12/hostcheck/internal/errors"
	"github.com/ksyq12/hostcheck/internal/predicate"
)

// Suite is a named, ordered list of test cases loaded from one file.
type Suite struct {
	Name    string            `yaml:"name" json:"name"`
	Workdir string            `yaml:"workdir,omitempty" json:"workdir,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty" json:"timeout_ms,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Cases   []*TestCase       `yaml:"cases" json:"cases"`

	Path string `yaml:"-" json:"path,omitempty"` // file the suite was read from
}

// TestCase is one command plus the expectations on its output.
// After loading, Workdir is absolute and Timeout is positive.
type TestCase struct {
	Name         string                `yaml:"name" json:"name"`
	Command      string                `yaml:"command" json:"command"`
	Workdir      string                `yaml:"workdir,omitempty" json:"workdir,omitempty"`
	Timeout      Duration              `yaml:"timeout,omitempty" json:"timeout_ms"`
	AllowFailure bool                  `yaml:"allow_failure,omitempty" json:"allow_failure,omitempty"`
	Env          map[string]string     `yaml:"env,omitempty" json:"env,omitempty"`
	Expect       []predicate.Predicate `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// EnvList returns the case environment as sorted KEY=VALUE pairs.
func (tc *TestCase) EnvList() []string {
	keys := make([]string, 0, len(tc.Env))
	for k := range tc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+tc.Env[k])
	}
	return env
}

// LoadSuite reads, resolves and validates the suite at path.
func LoadSuite(path string, cfg *Config) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeConfig, "failed to read suite", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeConfig, "failed to resolve suite path", err)
	}

	suite, err := ParseSuite(data, filepath.Dir(abs), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = abs
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return suite, nil
}

// ParseSuite decodes a suite and resolves it against baseDir (relative
// workdirs) and cfg (default timeout). The result is validated.
func ParseSuite(data []byte, baseDir string, cfg *Config) (*Suite, error) {
	if cfg == nil {
		cfg = New()
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeValidation, "failed to parse suite", err)
	}

	if err := suite.resolve(baseDir, cfg); err != nil {
		return nil, err
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// resolve applies suite-level defaults to every case.
func (s *Suite) resolve(baseDir string, cfg *Config) error {
	suiteDir := resolveDir(baseDir, s.Workdir)

	suiteTimeout := s.Timeout
	if suiteTimeout == 0 {
		suiteTimeout = cfg.DefaultTimeout
	}

	for _, tc := range s.Cases {
		if tc == nil {
			return cerrors.Validation("suite contains an empty case")
		}
		tc.Workdir = resolveDir(suiteDir, tc.Workdir)
		if tc.Timeout == 0 {
			tc.Timeout = suiteTimeout
		}
		if len(s.Env) > 0 {
			merged := make(map[string]string, len(s.Env)+len(tc.Env))
			for k, v := range s.Env {
				merged[k] = v
			}
			for k, v := range tc.Env {
				merged[k] = v
			}
			tc.Env = merged
		}
	}
	return nil
}

func resolveDir(base, dir string) string {
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// Validate reports the first malformed case.
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return cerrors.Validation("suite has no cases")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, tc := range s.Cases {
		if tc.Name == "" {
			return cerrors.Validation("case %d: name is required", i+1)
		}
		if seen[tc.Name] {
			return cerrors.Validation("case %q: duplicate name", tc.Name)
		}
		seen[tc.Name] = true

		if err := tc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single, resolved case.
func (tc *TestCase) Validate() error {
	if strings.TrimSpace(tc.Command) == "" {
		return cerrors.WrapCase(cerrors.ErrCodeValidation, tc.Name, "command is required", nil)
	}
	if tc.Timeout <= 0 {
		return cerrors.WrapCase(cerrors.ErrCodeValidation, tc.Name, "timeout must be positive", nil)
	}
	for i, p := range tc.Expect {
		if err := p.Validate(); err != nil {
			return cerrors.WrapCase(cerrors.ErrCodeValidation, tc.Name, fmt.Sprintf("expect[%d]", i), err)
		}
	}
	return nil
}

// Case returns the case with the given name.
func (s *Suite) Case(name string) (*TestCase, error) {
	for _, tc := range s.Cases {
		if tc.Name == name {
			return tc, nil
		}
	}
	return nil, cerrors.Validation("case %q not found in suite %q", name, s.Name)
}

// Filter returns a copy of s holding only cases whose name contains substr.
// An empty substr keeps every case.
func (s *Suite) Filter(substr string) *Suite {
	out := *s
	if substr == "" {
		return &out
	}
	out.Cases = nil
	for _, tc := range s.Cases {
		if strings.Contains(tc.Name, substr) {
			out.Cases = append(out.Cases, tc)
		}
	}
	return &out
}
