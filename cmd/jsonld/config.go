package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gofhir/jsonld/tracing"
)

// Loader names accepted by --loader.
const (
	LoaderNone     = "none"
	LoaderEmbedded = "embedded"
	LoaderHTTP     = "http"
	LoaderDir      = "dir"
)

// Output formats accepted by --format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds all configuration options for the CLI.
type Config struct {
	Base       string `yaml:"base" mapstructure:"base"`
	Context    string `yaml:"context" mapstructure:"context"`
	Loader     string `yaml:"loader" mapstructure:"loader"`
	ContextDir string `yaml:"context_dir" mapstructure:"context_dir"`
	// ContextPrefix is the URL prefix served from ContextDir.
	ContextPrefix string `yaml:"context_prefix" mapstructure:"context_prefix"`

	Format  string `yaml:"format" mapstructure:"format"`
	NDJSON  bool   `yaml:"ndjson" mapstructure:"ndjson"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
	Strict  bool   `yaml:"strict" mapstructure:"strict"`

	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	HTTP    HTTPConfig     `yaml:"http" mapstructure:"http"`
	Watch   WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Tracing tracing.Config `yaml:"tracing" mapstructure:"tracing"`
}

// HTTPConfig configures the http loader.
type HTTPConfig struct {
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBytes int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// WatchConfig configures --watch.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Loader: LoaderEmbedded,
		Format: FormatJSON,
		// One worker per CPU, matching ld.DefaultOptions
		Workers:  runtime.NumCPU(),
		LogLevel: "warn",
		HTTP: HTTPConfig{
			Timeout:  10 * time.Second,
			MaxBytes: 4 << 20,
			CacheTTL: time.Hour,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Loader {
	case LoaderNone, LoaderEmbedded, LoaderHTTP:
	case LoaderDir:
		if c.ContextDir == "" {
			return fmt.Errorf("loader %q requires context_dir", LoaderDir)
		}
	default:
		return fmt.Errorf("unknown loader %q (want none, embedded, http or dir)", c.Loader)
	}
	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("unknown format %q (want json or text)", c.Format)
	}
	return nil
}

// WriteDefaultConfig writes the default configuration as YAML to path,
// creating parent directories. An existing file is left untouched unless
// force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg := Defaults()
	cfg.Workers = 0
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
