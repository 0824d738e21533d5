// Package dvar implements a registry of named, typed runtime variables.
//
// A Registry holds a fixed-capacity arena of Variables reachable by a
// case-insensitive name hash. Each Variable carries three values of its
// type: current, latched (a pending value applied later) and reset (the
// default). Mutations are tagged with a Source that decides which flags
// apply: read-only, write-protected and cheat variables refuse External and
// Script sources, and latched variables defer their changes.
//
// Public mutators never return errors. Refusals, rejected values and type
// conversions are reported through the log and an optional Diagnostic hook.
// Only a full arena and a hash collision between distinct names are fatal.
//
//	reg := dvar.New()
//	fov := reg.RegisterFloat("cg_fov", 80, 65, 120, dvar.FlagArchive, "Field of view")
//	fov.SetFromString("200", dvar.SourceExternal) // clamped to 120
package dvar
