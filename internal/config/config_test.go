package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, 4320, cfg.Registry.Capacity)
	require.Equal(t, 64, cfg.Registry.CallbackCapacity)
	require.Equal(t, DefaultArchiveFile, cfg.ArchiveFile)
	require.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.NoError(t, cfg.Validate())
}

func TestValidateRegistry(t *testing.T) {
	require.NoError(t, ValidateRegistry(RegistryConfig{}))
	require.ErrorContains(t, ValidateRegistry(RegistryConfig{Capacity: -1}), "registry.capacity")
	require.ErrorContains(t, ValidateRegistry(RegistryConfig{CallbackCapacity: -2}), "registry.callback_capacity")
}

func TestValidateWatch(t *testing.T) {
	require.NoError(t, ValidateWatch(WatchConfig{Enabled: true}))
	require.ErrorContains(t, ValidateWatch(WatchConfig{Debounce: -time.Second}), "watch.debounce")
}

func TestValidateUI(t *testing.T) {
	require.NoError(t, ValidateUI(UIConfig{MarkdownStyle: "light"}))
	require.ErrorContains(t, ValidateUI(UIConfig{MarkdownStyle: "neon"}), "ui.markdown_style")
	require.ErrorContains(t, ValidateUI(UIConfig{WrapWidth: -1}), "ui.wrap_width")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{"defaults", Defaults().Tracing, ""},
		{"sample rate high", TracingConfig{SampleRate: 1.5}, "sample_rate"},
		{"sample rate negative", TracingConfig{SampleRate: -0.1}, "sample_rate"},
		{"bad exporter", TracingConfig{Exporter: "zipkin"}, "tracing.exporter"},
		{"file without path", TracingConfig{Enabled: true, Exporter: "file"}, "file_path"},
		{"otlp without endpoint", TracingConfig{Enabled: true, Exporter: "otlp"}, "otlp_endpoint"},
		{"disabled file without path", TracingConfig{Exporter: "file"}, ""},
		{"stdout", TracingConfig{Enabled: true, Exporter: "stdout"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWatchedFiles(t *testing.T) {
	cfg := Config{ArchiveFile: "a.cfg", HCLFiles: []string{"x.hcl", "y.hcl"}}
	require.Equal(t, []string{"a.cfg", "x.hcl", "y.hcl"}, cfg.WatchedFiles())

	cfg.ArchiveFile = ""
	require.Equal(t, []string{"x.hcl", "y.hcl"}, cfg.WatchedFiles())
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	defaults := Defaults()
	require.Equal(t, defaults.Registry, cfg.Registry)
	require.Equal(t, defaults.ArchiveFile, cfg.ArchiveFile)
	require.Equal(t, defaults.Watch, cfg.Watch)
	require.Equal(t, defaults.UI, cfg.UI)
	require.False(t, cfg.Cheats)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
