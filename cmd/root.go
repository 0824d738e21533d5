package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/dvars/internal/config"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 response cannot race the inspector's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:   "dvars",
	Short: "Inspect and edit typed configuration variables",
	Long: `dvars keeps a registry of typed, range-checked configuration variables.

Variables are registered from a builtin catalog, then loaded from an archive
of name "value" records and from HCL override files. Changes to archived
variables are written back to the archive on exit when the persist-on-exit
flag is set. Snapshots of the whole registry can be saved to a sqlite store
and restored or diffed later.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .dvars/config.yaml or ~/.config/dvars/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write debug logs (to log.path, or debug.log)")
}

func initConfig() {
	cfgErr = nil
	defaults := config.Defaults()
	viper.SetDefault("registry.capacity", defaults.Registry.Capacity)
	viper.SetDefault("registry.callback_capacity", defaults.Registry.CallbackCapacity)
	viper.SetDefault("cheats", defaults.Cheats)
	viper.SetDefault("archive_file", defaults.ArchiveFile)
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("ui.wrap_width", defaults.UI.WrapWidth)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .dvars/config.yaml (current directory)
		// 2. ~/.config/dvars/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "dvars"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .dvars/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		} else if cfgFile != "" {
			cfgErr = fmt.Errorf("reading config %s: %w", cfgFile, err)
			return
		}
	}

	cfg = config.Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("parsing config: %w", err)
		return
	}
	cfgErr = cfg.Validate()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
