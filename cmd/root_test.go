package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// writeTestConfig points the archive and store into a temp dir with
// persist-on-exit on, and returns the config path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "archive_file: " + filepath.Join(dir, "archive.cfg") + "\n" +
		"store:\n  path: " + filepath.Join(dir, "snapshots.db") + "\n" +
		"flags:\n  persist-on-exit: true\n" +
		"ui:\n  markdown_style: notty\n  wrap_width: 60\n" +
		extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with args against configPath and returns
// stdout.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := run(t, configPath, args...)
	require.NoError(t, err, "dvars %s", strings.Join(args, " "))
	return out
}

func TestSetGet_PersistsArchived(t *testing.T) {
	path := writeTestConfig(t, "")

	require.Equal(t, "cg_fov \"95\"\n", mustRun(t, path, "set", "cg_fov", "95"))
	require.Equal(t, "95\n", mustRun(t, path, "get", "cg_fov"))

	archived, err := os.ReadFile(filepath.Join(filepath.Dir(path), "archive.cfg"))
	require.NoError(t, err)
	require.Contains(t, string(archived), "cg_fov \"95\"\n")
}

func TestSet_JoinsVectorArgs(t *testing.T) {
	path := writeTestConfig(t, "")
	require.Equal(t, "cl_sensitivity \"2 3\"\n", mustRun(t, path, "set", "cl_sensitivity", "2", "3"))
}

func TestSet_Latched(t *testing.T) {
	path := writeTestConfig(t, "")
	out := mustRun(t, path, "set", "r_mode", "fullscreen")
	require.Equal(t, "r_mode \"windowed\" (latched \"fullscreen\")\n", out)

	require.Equal(t, "fullscreen\n", mustRun(t, path, "get", "r_mode"), "the pending value is applied on the next run")
}

func TestSet_UnknownSource(t *testing.T) {
	path := writeTestConfig(t, "")
	_, err := run(t, path, "set", "--source", "console", "cg_fov", "90")
	require.ErrorContains(t, err, "unknown source")
}

func TestGet_Missing(t *testing.T) {
	path := writeTestConfig(t, "")
	_, err := run(t, path, "get", "nope")
	require.ErrorContains(t, err, "dvar not found")
}

func TestReset(t *testing.T) {
	path := writeTestConfig(t, "")
	mustRun(t, path, "set", "cg_fov", "110")
	require.Equal(t, "cg_fov \"80\"\n", mustRun(t, path, "reset", "cg_fov"))
	require.Equal(t, "80\n", mustRun(t, path, "get", "cg_fov"))
}

func TestList(t *testing.T) {
	path := writeTestConfig(t, "")

	out := mustRun(t, path, "list", "--prefix", "CG_")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "cg_crosshairColor "))
	require.True(t, strings.HasPrefix(lines[1], "cg_fov "))

	mustRun(t, path, "set", "ui_name", "Someone")
	out = mustRun(t, path, "list", "--modified")
	require.Contains(t, out, "ui_name")
	require.NotContains(t, out, "cg_fov")
}

func TestDescribe(t *testing.T) {
	path := writeTestConfig(t, "")

	out := mustRun(t, path, "describe", "cg_fov")
	require.True(t, strings.HasPrefix(out, "cg_fov (float) "))
	require.Contains(t, out, "value:   \"80\"\n")
	require.Contains(t, out, "Domain is any number from 65 to 120\n")

	out = mustRun(t, path, "describe", "--markdown", "cg_fov")
	require.Contains(t, out, "cg_fov")
	require.Contains(t, out, "Domain is any number from 65 to 120")
}

func TestDump(t *testing.T) {
	path := writeTestConfig(t, "")
	out := mustRun(t, path, "dump", "cg_fov", "ui_name")
	require.Equal(t, "cg_fov \"80\"\nui_name \"Player\"\n", out)
}

func TestPersist(t *testing.T) {
	path := writeTestConfig(t, "")
	out := mustRun(t, path, "persist")
	require.Regexp(t, `^wrote \d+ variables to `, out)
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "archive.cfg"))
	require.NoError(t, err)
}

func TestHCLOverrides(t *testing.T) {
	dir := t.TempDir()
	hcl := filepath.Join(dir, "overrides.hcl")
	require.NoError(t, os.WriteFile(hcl, []byte("com_maxfps = 144\nr_sunDirection = [0, 1, 0]\n"), 0o600))
	path := writeTestConfig(t, "hcl_files:\n  - "+hcl+"\n")

	require.Equal(t, "144\n", mustRun(t, path, "get", "com_maxfps"))
}

func TestInvalidConfig(t *testing.T) {
	path := writeTestConfig(t, "registry:\n  capacity: -1\n")
	_, err := run(t, path, "list")
	require.ErrorContains(t, err, "registry.capacity")
}

var guidPattern = regexp.MustCompile(`^[0-9a-f-]{36}`)

func TestSnapshotLifecycle(t *testing.T) {
	path := writeTestConfig(t, "")

	out := mustRun(t, path, "snapshot", "save", "base")
	guid := guidPattern.FindString(out)
	require.NotEmpty(t, guid, out)

	require.Equal(t, "no changes\n", mustRun(t, path, "snapshot", "diff", guid))

	mustRun(t, path, "set", "cg_fov", "100")
	diff := mustRun(t, path, "snapshot", "diff", guid)
	require.Equal(t, "- cg_fov \"80\"\n+ cg_fov \"100\"\n", diff)

	out = mustRun(t, path, "snapshot", "restore", guid)
	require.True(t, strings.HasPrefix(out, "restored "))
	require.Equal(t, "80\n", mustRun(t, path, "get", "cg_fov"))

	out = mustRun(t, path, "snapshot", "list", "--label", "base")
	require.Contains(t, out, guid)
	require.Contains(t, out, "base")

	require.Equal(t, "deleted "+guid+"\n", mustRun(t, path, "snapshot", "delete", guid))
	require.NotContains(t, mustRun(t, path, "snapshot", "list"), guid)
	require.Contains(t, mustRun(t, path, "snapshot", "list", "--deleted"), "deleted")

	require.Equal(t, "purged 1 snapshots\n", mustRun(t, path, "snapshot", "purge"))
	require.Empty(t, mustRun(t, path, "snapshot", "list", "--deleted"))
}

func TestSnapshotRestoreMissing(t *testing.T) {
	path := writeTestConfig(t, "")
	_, err := run(t, path, "snapshot", "restore", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
}
