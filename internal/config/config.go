// Package config provides configuration types and defaults for dvars.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
)

// Config holds all configuration options for dvars.
type Config struct {
	Registry    RegistryConfig  `mapstructure:"registry"`
	Cheats      bool            `mapstructure:"cheats"`
	ArchiveFile string          `mapstructure:"archive_file"`
	HCLFiles    []string        `mapstructure:"hcl_files"`
	Watch       WatchConfig     `mapstructure:"watch"`
	Store       StoreConfig     `mapstructure:"store"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Log         LogConfig       `mapstructure:"log"`
	UI          UIConfig        `mapstructure:"ui"`
	Flags       map[string]bool `mapstructure:"flags"`
}

// RegistryConfig sizes the variable registry.
type RegistryConfig struct {
	Capacity         int `mapstructure:"capacity"`
	CallbackCapacity int `mapstructure:"callback_capacity"`
}

// WatchConfig controls hot reload of the archive and HCL files.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	// Path is the sqlite file holding snapshots.
	// Default: ~/.config/dvars/snapshots.db
	Path string `mapstructure:"path"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// UIConfig holds inspector options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default), "light" or "notty"
	WrapWidth     int    `mapstructure:"wrap_width"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/dvars/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultConfigPath is where a default config is written when none exists.
const DefaultConfigPath = ".dvars/config.yaml"

// DefaultArchiveFile is the archive written by Persist.
const DefaultArchiveFile = ".dvars/archive.cfg"

func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dvars")
}

// DefaultTracesFilePath returns ~/.config/dvars/traces/traces.jsonl, or ""
// if the home directory is unavailable.
func DefaultTracesFilePath() string {
	dir := userConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultStorePath returns ~/.config/dvars/snapshots.db, or a path in the
// working directory if the home directory is unavailable.
func DefaultStorePath() string {
	dir := userConfigDir()
	if dir == "" {
		return filepath.Join(".dvars", "snapshots.db")
	}
	return filepath.Join(dir, "snapshots.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Registry: RegistryConfig{
			Capacity:         dvar.DefaultCapacity,
			CallbackCapacity: dvar.DefaultCallbackCapacity,
		},
		ArchiveFile: DefaultArchiveFile,
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 100 * time.Millisecond,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		UI: UIConfig{
			MarkdownStyle: "dark",
			WrapWidth:     72,
		},
	}
}

// ValidateRegistry checks registry sizing.
func ValidateRegistry(reg RegistryConfig) error {
	if reg.Capacity < 0 {
		return fmt.Errorf("registry.capacity must not be negative, got %d", reg.Capacity)
	}
	if reg.CallbackCapacity < 0 {
		return fmt.Errorf("registry.callback_capacity must not be negative, got %d", reg.CallbackCapacity)
	}
	return nil
}

// ValidateWatch checks the hot reload settings.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return nil
}

// ValidateUI checks inspector settings.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\", \"light\" or \"notty\", got %q", ui.MarkdownStyle)
	}
	if ui.WrapWidth < 0 {
		return fmt.Errorf("ui.wrap_width must not be negative, got %d", ui.WrapWidth)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate runs every section validator.
func (c Config) Validate() error {
	if err := ValidateRegistry(c.Registry); err != nil {
		return err
	}
	if err := ValidateWatch(c.Watch); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// WatchedFiles returns the archive file followed by the HCL files.
func (c Config) WatchedFiles() []string {
	files := make([]string, 0, 1+len(c.HCLFiles))
	if c.ArchiveFile != "" {
		files = append(files, c.ArchiveFile)
	}
	return append(files, c.HCLFiles...)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# dvars configuration

# Registry sizing. Registering past capacity is fatal.
registry:
  capacity: 4320
  callback_capacity: 64

# Initial value of sv_cheats
cheats: false

# Archive of name "value" records, loaded at startup and written by persist
archive_file: .dvars/archive.cfg

# HCL files whose top-level attributes are dvar assignments
# hcl_files:
#   - .dvars/overrides.hcl

# Reload the archive and HCL files when they change
watch:
  enabled: false
  debounce: 100ms

# Snapshot database
# store:
#   path: ~/.config/dvars/snapshots.db

# Debug log
# log:
#   path: debug.log
#   debug: false

ui:
  markdown_style: dark   # "dark" (default), "light" or "notty"
  wrap_width: 72

# Feature flags
# flags:
#   persist-on-exit: true
#   watch-config: true
#   strict-names: false

# Distributed tracing
# tracing:
#   enabled: true
#   exporter: file        # none, file, stdout, otlp
#   file_path: ~/.config/dvars/traces/traces.jsonl
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
