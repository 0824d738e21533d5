// Package builtin registers the variables dvars itself owns.
package builtin

import (
	"github.com/zjrosen/dvars/internal/dvar"
)

// Modes is the r_mode enum table.
var Modes = []string{"windowed", "borderless", "fullscreen"}

// Vars holds the registered handles.
type Vars struct {
	Cheats         *dvar.Variable
	Developer      *dvar.Variable
	Fullscreen     *dvar.Variable
	Mode           *dvar.Variable
	Gamma          *dvar.Variable
	FOV            *dvar.Variable
	CrosshairColor *dvar.Variable
	Name           *dvar.Variable
	MaxFPS         *dvar.Variable
	Seed           *dvar.Variable
	SunDirection   *dvar.Variable
	Viewport       *dvar.Variable
	SunColor       *dvar.Variable
	FogColor       *dvar.Variable
	Sensitivity    *dvar.Variable
	Gravity        *dvar.Variable
}

// Register registers the catalog on reg. cheats is the initial value of
// sv_cheats.
func Register(reg *dvar.Registry, cheats bool) *Vars {
	return &Vars{
		Cheats: reg.RegisterBool(dvar.CheatsName, cheats, dvar.FlagWriteProtected,
			"Allow cheat-protected variables to be changed"),
		Developer: reg.RegisterBool("developer", false, dvar.FlagNone,
			"Enable developer diagnostics"),
		Fullscreen: reg.RegisterBool("r_fullscreen", false, dvar.FlagArchive|dvar.FlagLatched,
			"Display in fullscreen mode. Takes effect on restart."),
		Mode: reg.RegisterEnum("r_mode", Modes, 0, dvar.FlagArchive|dvar.FlagLatched,
			"Window mode"),
		Gamma: reg.RegisterFloat("r_gamma", 1, 0.5, 3, dvar.FlagArchive,
			"Display gamma correction"),
		FOV: reg.RegisterFloat("cg_fov", 80, 65, 120, dvar.FlagArchive,
			"Horizontal field of view in degrees"),
		CrosshairColor: reg.RegisterColor("cg_crosshairColor", 1, 1, 1, 1, dvar.FlagArchive,
			"Crosshair color as red green blue alpha in 0..1"),
		Name: reg.RegisterString("ui_name", "Player", dvar.FlagArchive,
			"Player display name"),
		MaxFPS: reg.RegisterInt("com_maxfps", 85, 0, 1000, dvar.FlagArchive,
			"Frame rate cap, 0 for unlimited"),
		Seed: reg.RegisterInt64("sv_seed", 0, 0, 1<<53, dvar.FlagNone,
			"World generation seed"),
		SunDirection: reg.RegisterVec3("r_sunDirection", 0, 0, 1, -1, 1, dvar.FlagCheat,
			"Direction toward the sun"),
		Viewport: reg.RegisterVec4("r_viewport", 0, 0, 1, 1, 0, 1, dvar.FlagNone,
			"Viewport rectangle as x y width height in screen fractions"),
		SunColor: reg.RegisterLinearRGB("r_sunColor", 1, 0.95, 0.85, 0, 4, dvar.FlagCheat,
			"Sun light color in linear RGB"),
		FogColor: reg.RegisterColorXYZ("r_fogColorXYZ", 0.5, 0.5, 0.5, 0, 1, dvar.FlagNone,
			"Fog color in CIE XYZ"),
		Sensitivity: reg.RegisterVec2("cl_sensitivity", 5, 5, 0.1, 30, dvar.FlagArchive,
			"Mouse sensitivity as horizontal vertical"),
		Gravity: reg.RegisterFloat("g_gravity", 800, 0, 4000, dvar.FlagCheat,
			"World gravity"),
	}
}
