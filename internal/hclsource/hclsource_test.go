package hclsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dvars/internal/dvar"
)

func names(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

func texts(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Text
	}
	return out
}

func TestParse(t *testing.T) {
	src := []byte(`
r_gamma   = 1.2
cg_fov    = 95
ui_name   = "Player One"
developer = true
r_fullscreen = false
r_sunDirection = [0.5, 0.25, 1]
sv_seed = 1099511627776
`)
	got, err := Parse(src, "overrides.hcl")
	require.NoError(t, err)
	require.Equal(t, []string{"r_gamma", "cg_fov", "ui_name", "developer", "r_fullscreen", "r_sunDirection", "sv_seed"}, names(got))
	require.Equal(t, []string{"1.2", "95", "Player One", "1", "0", "0.5 0.25 1", "1099511627776"}, texts(got))
	require.Equal(t, 2, got[0].Range.Start.Line)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `r_gamma = `},
		{"block", "dvar \"x\" {\n  value = 1\n}\n"},
		{"object", `r_gamma = { a = 1 }`},
		{"string vector", `v = ["a", "b"]`},
		{"empty vector", `v = []`},
		{"long vector", `v = [1, 2, 3, 4, 5]`},
		{"null", `v = null`},
		{"variable reference", `v = other`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.hcl")
	require.NoError(t, os.WriteFile(path, []byte("r_gamma = 2\ncg_fov = 500\nsv_lock = 4\n"), 0o600))

	reg := dvar.New(dvar.WithCapacity(16), dvar.WithDiagnostics(func(dvar.Diagnostic) {}))
	defer reg.Shutdown()
	gamma := reg.RegisterFloat("r_gamma", 1, 0.5, 3, 0, "")
	fov := reg.RegisterFloat("cg_fov", 80, 65, 120, 0, "")
	lock := reg.RegisterInt("sv_lock", 1, 0, 10, dvar.FlagWriteProtected, "")

	n, err := LoadFile(path, reg)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, float32(2), gamma.Float())
	require.Equal(t, float32(120), fov.Float(), "clamped into the domain")
	require.Equal(t, int32(1), lock.Int(), "external source cannot change write protected")
}

func TestLoadFile_Missing(t *testing.T) {
	reg := dvar.New(dvar.WithCapacity(4))
	defer reg.Shutdown()
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.hcl"), reg)
	require.Error(t, err)
}
