package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSaveFlags_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveFlags(path, map[string]bool{"watch-config": true, "persist-on-exit": false}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "flags:\n  persist-on-exit: false\n  watch-config: true\n", string(data))
}

func TestSaveFlags_PreservesOtherConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# registry sizing
registry:
  capacity: 128 # small
flags:
  strict-names: true
archive_file: my.cfg
`
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	require.NoError(t, SaveFlags(path, map[string]bool{"persist-on-exit": true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "# registry sizing")
	require.Contains(t, content, "capacity: 128 # small")
	require.NotContains(t, content, "strict-names")

	cfg := readConfig(t, path)
	require.Equal(t, 128, cfg.Registry.Capacity)
	require.Equal(t, "my.cfg", cfg.ArchiveFile)
	require.Equal(t, map[string]bool{"persist-on-exit": true}, cfg.Flags)
}

func TestSaveHCLFiles_AppendsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cheats: true\n"), 0o600))

	require.NoError(t, SaveHCLFiles(path, []string{"a.hcl", "b.hcl"}))

	cfg := readConfig(t, path)
	require.True(t, cfg.Cheats)
	require.Equal(t, []string{"a.hcl", "b.hcl"}, cfg.HCLFiles)
}

func TestSaveFlags_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	err := SaveFlags(path, map[string]bool{"x": true})
	require.ErrorContains(t, err, "not a mapping")
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.cfg")

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
