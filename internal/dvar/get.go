package dvar

import "slices"

// The typed getters below read the current value. When the stored type
// differs from the one asked for they convert (numerically where possible,
// otherwise by parsing the display text) and report DiagTypeMismatch. Every
// getter returns the zero value on a nil variable.

func (v *Variable) mismatch(want string) {
	v.reg.diag(DiagTypeMismatch, v.name, "dvar '%s' silently casting to a different type (%s -> %s)", v.name, v.typ, want)
}

// Caller holds v.mu for all of the *Of helpers.

func (v *Variable) boolOf(val Value) bool {
	switch v.typ {
	case TypeBool:
		return val.b
	case TypeInt, TypeEnum:
		v.mismatch("bool")
		return val.i != 0
	case TypeInt64:
		v.mismatch("bool")
		return val.i64 != 0
	case TypeFloat:
		v.mismatch("bool")
		return val.vec[0] != 0
	default:
		v.mismatch("bool")
		return atoi(ValueToString(val, v.domain)) != 0
	}
}

func (v *Variable) intOf(val Value) int32 {
	switch v.typ {
	case TypeInt, TypeEnum:
		return val.i
	case TypeBool:
		v.mismatch("int")
		if val.b {
			return 1
		}
		return 0
	case TypeInt64:
		v.mismatch("int")
		return clampInt32(val.i64)
	case TypeFloat:
		v.mismatch("int")
		return int32(val.vec[0])
	default:
		v.mismatch("int")
		return atoi(ValueToString(val, v.domain))
	}
}

func (v *Variable) int64Of(val Value) int64 {
	switch v.typ {
	case TypeInt64:
		return val.i64
	case TypeInt, TypeEnum:
		return int64(val.i)
	case TypeBool:
		v.mismatch("int64")
		if val.b {
			return 1
		}
		return 0
	case TypeFloat:
		v.mismatch("int64")
		return int64(val.vec[0])
	default:
		v.mismatch("int64")
		return atoi64(ValueToString(val, v.domain))
	}
}

func (v *Variable) floatOf(val Value) float32 {
	switch v.typ {
	case TypeFloat:
		return val.vec[0]
	case TypeInt:
		v.mismatch("float")
		return float32(val.i)
	case TypeInt64:
		v.mismatch("float")
		return float32(val.i64)
	case TypeBool:
		v.mismatch("float")
		if val.b {
			return 1
		}
		return 0
	default:
		v.mismatch("float")
		return atof(ValueToString(val, v.domain))
	}
}

func (v *Variable) vecOf(val Value, n int) [4]float32 {
	var out [4]float32
	switch {
	case v.typ.IsVector():
		if v.typ.Components() < n {
			v.mismatch(vectorName(n))
		}
		copy(out[:n], val.vec[:min(n, v.typ.Components())])
	case v.typ == TypeFloat:
		v.mismatch(vectorName(n))
		out[0] = val.vec[0]
	case v.typ == TypeColor:
		v.mismatch(vectorName(n))
		c := val.UnpackedColor()
		copy(out[:n], c[:n])
	default:
		v.mismatch(vectorName(n))
		out = parseVector(ValueToString(val, v.domain), n)
	}
	return out
}

func vectorName(n int) string {
	switch n {
	case 2:
		return "float2"
	case 3:
		return "float3"
	default:
		return "float4"
	}
}

func (v *Variable) textOf(val Value) string {
	switch v.typ {
	case TypeString, TypeEnum:
		return ValueToString(val, v.domain)
	default:
		v.mismatch("string")
		return ValueToString(val, v.domain)
	}
}

func (v *Variable) colorOf(val Value) [4]uint8 {
	switch v.typ {
	case TypeColor:
		return val.color
	case TypeFloat4, TypeLinearRGB, TypeFloat3:
		c := val.vec
		if v.typ != TypeFloat4 {
			c[3] = 1
		}
		return [4]uint8{packChannel(c[0]), packChannel(c[1]), packChannel(c[2]), packChannel(c[3])}
	default:
		v.mismatch("color")
		c := parseVector(ValueToString(val, v.domain), 4)
		return [4]uint8{packChannel(c[0]), packChannel(c[1]), packChannel(c[2]), packChannel(c[3])}
	}
}

func (v *Variable) read(fn func()) bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	fn()
	return true
}

// Bool returns the current value as a bool.
func (v *Variable) Bool() (b bool) {
	v.read(func() { b = v.boolOf(v.current) })
	return b
}

// Int returns the current value as an int. Enum variables return the index.
func (v *Variable) Int() (i int32) {
	v.read(func() { i = v.intOf(v.current) })
	return i
}

// Int64 returns the current value as an int64.
func (v *Variable) Int64() (i int64) {
	v.read(func() { i = v.int64Of(v.current) })
	return i
}

// Float returns the current value as a float.
func (v *Variable) Float() (f float32) {
	v.read(func() { f = v.floatOf(v.current) })
	return f
}

// Vec2 returns the first two components of the current value.
func (v *Variable) Vec2() (out [2]float32) {
	v.read(func() {
		c := v.vecOf(v.current, 2)
		out = [2]float32{c[0], c[1]}
	})
	return out
}

// Vec3 returns the first three components of the current value.
func (v *Variable) Vec3() (out [3]float32) {
	v.read(func() {
		c := v.vecOf(v.current, 3)
		out = [3]float32{c[0], c[1], c[2]}
	})
	return out
}

// Vec4 returns the current value as four components.
func (v *Variable) Vec4() (out [4]float32) {
	v.read(func() { out = v.vecOf(v.current, 4) })
	return out
}

// Text returns the current string. Enum variables return the selected
// table entry; other types their display text.
func (v *Variable) Text() (s string) {
	v.read(func() { s = v.textOf(v.current) })
	return s
}

// EnumString returns the table entry selected by an enum variable.
func (v *Variable) EnumString() string {
	return v.Text()
}

// Color returns the current value as packed RGBA.
func (v *Variable) Color() (c [4]uint8) {
	v.read(func() { c = v.colorOf(v.current) })
	return c
}

// UnpackedColor returns the current color scaled to [0,1].
func (v *Variable) UnpackedColor() [4]float32 {
	return PackedColorValue(v.Color()).UnpackedColor()
}

// ColorRed returns the red channel in [0,1].
func (v *Variable) ColorRed() float32 { return v.UnpackedColor()[0] }

// ColorGreen returns the green channel in [0,1].
func (v *Variable) ColorGreen() float32 { return v.UnpackedColor()[1] }

// ColorBlue returns the blue channel in [0,1].
func (v *Variable) ColorBlue() float32 { return v.UnpackedColor()[2] }

// ColorAlpha returns the alpha channel in [0,1].
func (v *Variable) ColorAlpha() float32 { return v.UnpackedColor()[3] }

// LatchedBool returns the latched value as a bool.
func (v *Variable) LatchedBool() (b bool) {
	v.read(func() { b = v.boolOf(v.latched) })
	return b
}

// LatchedInt returns the latched value as an int.
func (v *Variable) LatchedInt() (i int32) {
	v.read(func() { i = v.intOf(v.latched) })
	return i
}

// LatchedFloat returns the latched value as a float.
func (v *Variable) LatchedFloat() (f float32) {
	v.read(func() { f = v.floatOf(v.latched) })
	return f
}

// LatchedVec2 returns the latched value as a 2D vector.
func (v *Variable) LatchedVec2() (out [2]float32) {
	v.read(func() {
		c := v.vecOf(v.latched, 2)
		out = [2]float32{c[0], c[1]}
	})
	return out
}

// LatchedVec3 returns the latched value as a 3D vector.
func (v *Variable) LatchedVec3() (out [3]float32) {
	v.read(func() {
		c := v.vecOf(v.latched, 3)
		out = [3]float32{c[0], c[1], c[2]}
	})
	return out
}

// LatchedVec4 returns the latched value as a 4D vector.
func (v *Variable) LatchedVec4() (out [4]float32) {
	v.read(func() { out = v.vecOf(v.latched, 4) })
	return out
}

// LatchedColor returns the latched value as packed RGBA.
func (v *Variable) LatchedColor() (c [4]uint8) {
	v.read(func() { c = v.colorOf(v.latched) })
	return c
}

// ResetBool returns the reset value as a bool.
func (v *Variable) ResetBool() (b bool) {
	v.read(func() { b = v.boolOf(v.reset) })
	return b
}

// ResetInt returns the reset value as an int.
func (v *Variable) ResetInt() (i int32) {
	v.read(func() { i = v.intOf(v.reset) })
	return i
}

// ResetFloat returns the reset value as a float.
func (v *Variable) ResetFloat() (f float32) {
	v.read(func() { f = v.floatOf(v.reset) })
	return f
}

// ResetText returns the reset value as text.
func (v *Variable) ResetText() (s string) {
	v.read(func() { s = v.textOf(v.reset) })
	return s
}

// ResetVec3 returns the reset value as a 3D vector.
func (v *Variable) ResetVec3() (out [3]float32) {
	v.read(func() {
		c := v.vecOf(v.reset, 3)
		out = [3]float32{c[0], c[1], c[2]}
	})
	return out
}

// DomainEnumStrings returns a copy of the enum table.
func (v *Variable) DomainEnumStrings() (table []string) {
	v.read(func() { table = slices.Clone(v.domain.Enum) })
	return table
}

// DomainEnumStringCount returns the size of the enum table.
func (v *Variable) DomainEnumStringCount() (n int) {
	v.read(func() { n = len(v.domain.Enum) })
	return n
}

// DomainIntMin returns the lower int bound.
func (v *Variable) DomainIntMin() (n int32) {
	v.read(func() { n = v.domain.IntMin })
	return n
}

// DomainIntMax returns the upper int bound.
func (v *Variable) DomainIntMax() (n int32) {
	v.read(func() { n = v.domain.IntMax })
	return n
}

// DomainInt64Min returns the lower int64 bound.
func (v *Variable) DomainInt64Min() (n int64) {
	v.read(func() { n = v.domain.Int64Min })
	return n
}

// DomainInt64Max returns the upper int64 bound.
func (v *Variable) DomainInt64Max() (n int64) {
	v.read(func() { n = v.domain.Int64Max })
	return n
}

// DomainFloatMin returns the lower float bound.
func (v *Variable) DomainFloatMin() (f float32) {
	v.read(func() { f = v.domain.FloatMin })
	return f
}

// DomainFloatMax returns the upper float bound.
func (v *Variable) DomainFloatMax() (f float32) {
	v.read(func() { f = v.domain.FloatMax })
	return f
}

// DomainVecMin returns the lower component bound of a vector variable.
func (v *Variable) DomainVecMin() float32 { return v.DomainFloatMin() }

// DomainVecMax returns the upper component bound of a vector variable.
func (v *Variable) DomainVecMax() float32 { return v.DomainFloatMax() }
