package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/dvars/internal/config"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/flags"
	"github.com/zjrosen/dvars/internal/tracing"
)

func newRegistry(t *testing.T) *dvar.Registry {
	t.Helper()
	reg := dvar.New(dvar.WithCapacity(64), dvar.WithDiagnostics(func(dvar.Diagnostic) {}))
	t.Cleanup(reg.Shutdown)
	return reg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// testConfig points the archive and one HCL file into a temp dir.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.ArchiveFile = filepath.Join(dir, "archive.cfg")
	cfg.HCLFiles = []string{filepath.Join(dir, "overrides.hcl")}
	cfg.Flags = map[string]bool{flags.FlagPersistOnExit: true}
	return cfg
}

func newBootstrapped(t *testing.T, cfg config.Config, opts ...Option) *Service {
	t.Helper()
	svc := New(newRegistry(t), cfg, opts...)
	_, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	return svc
}

func TestBootstrap(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.ArchiveFile, "r_gamma \"2\"\nset cg_fov \"100\"\nmy_custom \"x\"\n")
	writeFile(t, cfg.HCLFiles[0], "com_maxfps = 144\n")

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svc := New(newRegistry(t), cfg, WithTracer(tp.Tracer("test")))
	res, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, BootstrapResult{Builtins: 16, Flags: 1, Archive: 3, HCL: 1}, res)

	reg := svc.Registry()
	require.Equal(t, float32(2), svc.Builtins().Gamma.Float())
	require.Equal(t, float32(100), svc.Builtins().FOV.Float())
	require.Equal(t, int32(144), svc.Builtins().MaxFPS.Int())
	require.Equal(t, "x", reg.MustFind("my_custom").Text())
	require.True(t, reg.MustFind("flag_persist_on_exit").Bool())

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	require.Contains(t, names, tracing.SpanBootstrap)
	require.Contains(t, names, tracing.SpanLoadArchive)
	require.Contains(t, names, tracing.SpanLoadHCL)
}

func TestBootstrap_MissingFiles(t *testing.T) {
	cfg := testConfig(t)
	svc := New(newRegistry(t), cfg)

	_, err := svc.Bootstrap(context.Background())
	require.Error(t, err, "a configured HCL file must exist")

	cfg.HCLFiles = nil
	svc = New(newRegistry(t), cfg)
	res, err := svc.Bootstrap(context.Background())
	require.NoError(t, err, "a missing archive is not an error")
	require.Zero(t, res.Archive)
}

func TestSetGetReset(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	svc := newBootstrapped(t, cfg)

	v, err := svc.Set(context.Background(), "cg_fov", "90", dvar.SourceExternal)
	require.NoError(t, err)
	require.Equal(t, float32(90), v.Float())

	got, err := svc.Get("CG_FOV")
	require.NoError(t, err)
	require.Same(t, v, got)

	_, err = svc.Reset("cg_fov", dvar.SourceExternal)
	require.NoError(t, err)
	require.Equal(t, float32(80), v.Float())

	_, err = svc.Set(context.Background(), "bad name", "1", dvar.SourceExternal)
	require.True(t, errors.Is(err, ErrInvalidName))
	_, err = svc.Set(context.Background(), "", "1", dvar.SourceExternal)
	require.True(t, errors.Is(err, ErrInvalidName))

	_, err = svc.Get("missing")
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Reset("missing", dvar.SourceInternal)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestPersist(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	svc := newBootstrapped(t, cfg)
	ctx := context.Background()

	require.NoError(t, svc.PersistIfEnabled(ctx))
	_, err := os.Stat(cfg.ArchiveFile)
	require.True(t, os.IsNotExist(err), "nothing archived has changed yet")

	_, err = svc.Set(ctx, "r_gamma", "1.5", dvar.SourceExternal)
	require.NoError(t, err)
	require.NoError(t, svc.PersistIfEnabled(ctx))

	data, err := os.ReadFile(cfg.ArchiveFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "r_gamma \"1.5\"\n")
	require.Contains(t, string(data), "ui_name \"Player\"\n")
	require.NotContains(t, string(data), "g_gravity", "only archive-flagged variables are written")
	require.False(t, svc.Registry().AnyModified(dvar.FlagArchive))

	// Round trip into a fresh registry.
	again := newBootstrapped(t, cfg)
	require.Equal(t, float32(1.5), again.Builtins().Gamma.Float())
}

func TestPersist_PendingLatchedValueAppliesOnNextRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	svc := newBootstrapped(t, cfg)
	ctx := context.Background()

	v, err := svc.Set(ctx, "r_mode", "fullscreen", dvar.SourceExternal)
	require.NoError(t, err)
	require.Equal(t, "windowed", v.EnumString())
	require.True(t, svc.Registry().AnyModified(dvar.FlagArchive))
	require.NoError(t, svc.PersistIfEnabled(ctx))

	data, err := os.ReadFile(cfg.ArchiveFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "r_mode \"fullscreen\"\n")

	again := newBootstrapped(t, cfg)
	require.Equal(t, "fullscreen", again.Builtins().Mode.EnumString())
	require.False(t, again.Builtins().Mode.HasLatchedValue())
}

func TestPersist_NoArchiveFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	cfg.ArchiveFile = ""
	svc := newBootstrapped(t, cfg)
	require.Error(t, svc.Persist(context.Background()))
}

func TestPersistIfEnabled_FlagOff(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	cfg.Flags = nil
	svc := newBootstrapped(t, cfg)

	_, err := svc.Set(context.Background(), "r_gamma", "1.5", dvar.SourceExternal)
	require.NoError(t, err)
	require.NoError(t, svc.PersistIfEnabled(context.Background()))
	_, err = os.Stat(cfg.ArchiveFile)
	require.True(t, os.IsNotExist(err))
}

func TestClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCLFiles = nil
	svc := newBootstrapped(t, cfg)
	require.NoError(t, svc.Close())
	require.Zero(t, svc.Registry().Count())
}
