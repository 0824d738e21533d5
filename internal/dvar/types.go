package dvar

import "strings"

// Type identifies the kind of value a variable holds.
type Type uint8

const (
	TypeBool Type = iota
	TypeFloat
	TypeFloat2
	TypeFloat3
	TypeFloat4
	TypeInt
	TypeEnum
	TypeString
	TypeColor
	TypeInt64
	TypeLinearRGB
	TypeColorXYZ

	// TypeInvalid is reported for absent variables.
	TypeInvalid
)

var typeNames = [...]string{
	TypeBool:      "bool",
	TypeFloat:     "float",
	TypeFloat2:    "float2",
	TypeFloat3:    "float3",
	TypeFloat4:    "float4",
	TypeInt:       "int",
	TypeEnum:      "enum",
	TypeString:    "string",
	TypeColor:     "color",
	TypeInt64:     "int64",
	TypeLinearRGB: "linColorRGB",
	TypeColorXYZ:  "colorXYZ",
	TypeInvalid:   "invalid",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// Components returns the number of float components for vector types, 0 otherwise.
func (t Type) Components() int {
	switch t {
	case TypeFloat2:
		return 2
	case TypeFloat3, TypeLinearRGB, TypeColorXYZ:
		return 3
	case TypeFloat4:
		return 4
	default:
		return 0
	}
}

// IsVector reports whether t stores float components.
func (t Type) IsVector() bool {
	return t.Components() > 0
}

// ParseType resolves a type name as printed by Type.String.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames[:TypeInvalid] {
		if strings.EqualFold(n, name) {
			return Type(i), true
		}
	}
	return TypeInvalid, false
}

// Flags is a set of capabilities controlling permission, latch and ownership
// behavior of a variable.
type Flags uint32

const (
	// FlagArchive marks a variable for persistence in the archive file.
	FlagArchive Flags = 1 << iota

	// FlagUserInfo and FlagServerInfo tag variables that describe the local
	// user or the session. The registry only carries them.
	FlagUserInfo
	FlagServerInfo

	// FlagWriteProtected blocks External and Script sources.
	FlagWriteProtected

	// FlagLatched defers External and Script changes into the latched slot
	// until MakeLatchedValueCurrent.
	FlagLatched

	// FlagReadOnly blocks External and Script sources, and makes a
	// re-registration ignore any externally provided value.
	FlagReadOnly

	// FlagCheat blocks External and Script sources unless cheats are enabled.
	FlagCheat

	// FlagAutoExec is set on variables assigned while auto-exec loading is active.
	FlagAutoExec

	// FlagExternal marks a variable registered dynamically (from text, not
	// code). Its name and values are owned by the registry.
	FlagExternal

	// FlagCallback is set while a modified callback is attached.
	FlagCallback

	// FlagConfigRestricted variables may only be changed on the main context
	// while config writes are allowed.
	FlagConfigRestricted

	// FlagNone is the empty set.
	FlagNone Flags = 0
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagArchive, "archive"},
	{FlagUserInfo, "userinfo"},
	{FlagServerInfo, "serverinfo"},
	{FlagWriteProtected, "writeprotected"},
	{FlagLatched, "latched"},
	{FlagReadOnly, "readonly"},
	{FlagCheat, "cheat"},
	{FlagAutoExec, "autoexec"},
	{FlagExternal, "external"},
	{FlagCallback, "callback"},
	{FlagConfigRestricted, "configrestricted"},
}

// Has reports whether every flag in f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2 && f2 != 0
}

// Any reports whether any flag in f2 is set.
func (f Flags) Any(f2 Flags) bool {
	return f&f2 != 0
}

// String renders the set as "archive|latched", or "-" when empty.
func (f Flags) String() string {
	if f == 0 {
		return "-"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags parses a "|" or "," separated list of flag names.
func ParseFlags(s string) (Flags, bool) {
	var out Flags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(fn.name, part) {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return out, true
}

// Source is the trust tier of a mutation.
type Source uint8

const (
	// SourceInternal is engine-trusted code.
	SourceInternal Source = iota
	// SourceExternal is console, network or config-file input.
	SourceExternal
	// SourceScript is embedded scripting.
	SourceScript
)

func (s Source) String() string {
	switch s {
	case SourceInternal:
		return "internal"
	case SourceExternal:
		return "external"
	case SourceScript:
		return "script"
	default:
		return "unknown"
	}
}

// ParseSource resolves "internal", "external" or "script".
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(s) {
	case "internal":
		return SourceInternal, true
	case "external":
		return SourceExternal, true
	case "script":
		return SourceScript, true
	default:
		return SourceInternal, false
	}
}

func (s Source) untrusted() bool {
	return s == SourceExternal || s == SourceScript
}
