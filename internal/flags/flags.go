// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"
	"slices"
	"strings"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagPersistOnExit writes the archive file when a mutating command exits.
	FlagPersistOnExit = "persist-on-exit"

	// FlagWatchConfig reloads the archive and HCL files when they change,
	// in addition to watch.enabled.
	FlagWatchConfig = "watch-config"

	// FlagStrictNames rejects registration of malformed variable names
	// instead of accepting them with a diagnostic.
	FlagStrictNames = "strict-names"
)

// VariablePrefix prefixes the read-only variables mirroring each flag.
const VariablePrefix = "flag_"

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: maps.Clone(flags)}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

// VariableName returns the dvar name mirroring flag: "persist-on-exit"
// becomes "flag_persist_on_exit".
func VariableName(flag string) string {
	return VariablePrefix + strings.ReplaceAll(strings.ToLower(flag), "-", "_")
}

// Mirror registers every flag in reg as a read-only bool variable so flags
// show up when the registry is enumerated. It returns the number registered.
func (r *Registry) Mirror(reg *dvar.Registry) int {
	if r == nil || reg == nil {
		return 0
	}
	n := 0
	for _, name := range slices.Sorted(maps.Keys(r.flags)) {
		if reg.RegisterBool(VariableName(name), r.flags[name], dvar.FlagReadOnly, "Feature flag "+name) != nil {
			n++
		}
	}
	return n
}
