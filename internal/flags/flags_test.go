package flags

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dvars/internal/dvar"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "known flag set to true returns true",
			registry: New(map[string]bool{FlagPersistOnExit: true}),
			flag:     FlagPersistOnExit,
			expected: true,
		},
		{
			name:     "known flag set to false returns false",
			registry: New(map[string]bool{FlagWatchConfig: false}),
			flag:     FlagWatchConfig,
			expected: false,
		},
		{
			name:     "unknown flag returns false",
			registry: New(map[string]bool{FlagPersistOnExit: true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     "any-flag",
			expected: false,
		},
		{
			name:     "nil flags map returns false",
			registry: New(nil),
			flag:     "any-flag",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All_ReturnsCopy(t *testing.T) {
	source := map[string]bool{FlagStrictNames: true}
	r := New(source)

	all := r.All()
	all[FlagStrictNames] = false
	source[FlagStrictNames] = false

	require.True(t, r.Enabled(FlagStrictNames))

	var nilRegistry *Registry
	require.Empty(t, nilRegistry.All())
}

func TestVariableName(t *testing.T) {
	require.Equal(t, "flag_persist_on_exit", VariableName(FlagPersistOnExit))
	require.Equal(t, "flag_watch_config", VariableName("Watch-Config"))
	require.True(t, dvar.IsValidName(VariableName(FlagStrictNames)))
}

func TestRegistry_Mirror(t *testing.T) {
	reg := dvar.New(dvar.WithCapacity(8))
	t.Cleanup(reg.Shutdown)

	r := New(map[string]bool{FlagPersistOnExit: true, FlagWatchConfig: false})
	require.Equal(t, 2, r.Mirror(reg))

	v := reg.Find("flag_persist_on_exit")
	require.NotNil(t, v)
	require.True(t, v.Bool())
	require.True(t, v.Flags().Has(dvar.FlagReadOnly))

	v.SetBool(false, dvar.SourceExternal)
	require.True(t, v.Bool(), "mirrored flags are read only")

	require.False(t, reg.MustFind("flag_watch_config").Bool())

	var nilRegistry *Registry
	require.Zero(t, nilRegistry.Mirror(reg))
}
