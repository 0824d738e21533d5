package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dvars/internal/watcher"
)

func startWatcher(t *testing.T, files ...string) <-chan []string {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Files:       files,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.cfg")
	require.NoError(t, os.WriteFile(archive, []byte(`r_gamma "1"`), 0o644))

	onChange := startWatcher(t, archive)

	// Rapid writes should coalesce into single notification
	for i := range 10 {
		require.NoError(t, os.WriteFile(archive, []byte(fmt.Sprintf(`r_gamma "%d"`, i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case paths := <-onChange:
		require.Equal(t, []string{archive}, paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_ReportsEveryChangedFile(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.cfg")
	overrides := filepath.Join(dir, "overrides.hcl")

	onChange := startWatcher(t, archive, overrides)

	require.NoError(t, os.WriteFile(archive, []byte(`a "1"`), 0o644))
	require.NoError(t, os.WriteFile(overrides, []byte(`a = 1`), 0o644))

	select {
	case paths := <-onChange:
		require.ElementsMatch(t, []string{archive, overrides}, paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.cfg")
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(archive, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	onChange := startWatcher(t, archive)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.cfg")
	require.NoError(t, os.WriteFile(archive, []byte("old"), 0o644))

	onChange := startWatcher(t, archive)

	temp := filepath.Join(dir, ".archive.cfg.tmp")
	require.NoError(t, os.WriteFile(temp, []byte("new"), 0o644))
	require.NoError(t, os.Rename(temp, archive))

	select {
	case paths := <-onChange:
		require.Equal(t, []string{archive}, paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for replaced file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(dir, "archive.cfg")))
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestWatcher_RequiresFiles(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("a.cfg", "b.hcl")

	assert.Equal(t, []string{"a.cfg", "b.hcl"}, cfg.Files)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
}
