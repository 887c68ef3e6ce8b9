// Package config loads famtree settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the home directory when no config path
// is given.
const DefaultFileName = ".famtree.yaml"

// Output formats for non-interactive runs.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type Config struct {
	ReportPath string       `yaml:"report_path"`
	Workers    int          `yaml:"workers"` // 0 means one per CPU
	LogLevel   string       `yaml:"log_level"`
	LogFile    string       `yaml:"log_file"`
	Output     OutputConfig `yaml:"output"`
	Web        WebConfig    `yaml:"web"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

type WebConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"`
}

func Default() Config {
	return Config{
		ReportPath: ".",
		LogLevel:   "info",
		Output:     OutputConfig{Format: FormatText},
		Web:        WebConfig{Addr: "localhost:8080"},
	}
}

// DefaultPath returns $HOME/.famtree.yaml, or "" without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
