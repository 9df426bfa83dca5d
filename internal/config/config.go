package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/ksyq12/hostcheck/internal/errors"
)

// Defaults applied when the config file is missing or a field is unset.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultParallel  = 1
	DefaultMaxOutput = 1 << 20 // 1 MiB per stream
	DefaultExcerpt   = 512     // bytes of output quoted in a failure
	DefaultFormat    = FormatText
)

// Report formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJUnit = "junit"
)

// Config represents the tool configuration
type Config struct {
	DefaultTimeout Duration `yaml:"default_timeout"`
	Parallel       int      `yaml:"parallel"`
	MaxOutput      int      `yaml:"max_output"`
	Excerpt        int      `yaml:"excerpt"`
	Format         string   `yaml:"format"`
	Shell          []string `yaml:"shell,omitempty"`
}

// configDir is the default config directory
const configDir = ".config/hostcheck"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		DefaultTimeout: Duration(DefaultTimeout),
		Parallel:       DefaultParallel,
		MaxOutput:      DefaultMaxOutput,
		Excerpt:        DefaultExcerpt,
		Format:         DefaultFormat,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeConfig, "failed to read config", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeConfig, "failed to parse config", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields that were explicitly zeroed in the file.
func (c *Config) applyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = Duration(DefaultTimeout)
	}
	if c.Parallel == 0 {
		c.Parallel = DefaultParallel
	}
	if c.MaxOutput == 0 {
		c.MaxOutput = DefaultMaxOutput
	}
	if c.Excerpt == 0 {
		c.Excerpt = DefaultExcerpt
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	switch {
	case c.DefaultTimeout < 0:
		return cerrors.Wrap(cerrors.ErrCodeConfig, "default_timeout must be positive", nil)
	case c.Parallel < 0:
		return cerrors.Wrap(cerrors.ErrCodeConfig, "parallel must be positive", nil)
	case c.MaxOutput < 0:
		return cerrors.Wrap(cerrors.ErrCodeConfig, "max_output must be positive", nil)
	case c.Excerpt < 0:
		return cerrors.Wrap(cerrors.ErrCodeConfig, "excerpt must be positive", nil)
	}
	if !IsValidFormat(c.Format) {
		return cerrors.Wrap(cerrors.ErrCodeConfig, fmt.Sprintf("unknown format %q", c.Format), nil)
	}
	return nil
}

// ValidFormats returns all report formats
func ValidFormats() []string {
	return []string{FormatText, FormatJSON, FormatJUnit}
}

// IsValidFormat checks if the given format is supported
func IsValidFormat(f string) bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}
