package dvar

import "math"

// InvalidEnumIndex is produced when text matches no entry of an enum table.
const InvalidEnumIndex = -1337

// Value is a tagged union over the variable types. The zero Value is a
// false bool.
//
// String values carry a reference to their text. Values stored in a variable
// hold registry-owned references that may be shared between the current,
// latched and reset slots; see strings.go.
type Value struct {
	typ   Type
	b     bool
	i     int32
	i64   int64
	vec   [4]float32
	color [4]uint8
	str   *strRef
}

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }

// IntValue returns an int Value.
func IntValue(i int32) Value { return Value{typ: TypeInt, i: i} }

// Int64Value returns an int64 Value.
func Int64Value(i int64) Value { return Value{typ: TypeInt64, i64: i} }

// FloatValue returns a float Value.
func FloatValue(f float32) Value { return Value{typ: TypeFloat, vec: [4]float32{f}} }

// Vec2Value returns a float2 Value.
func Vec2Value(x, y float32) Value { return Value{typ: TypeFloat2, vec: [4]float32{x, y}} }

// Vec3Value returns a float3 Value.
func Vec3Value(x, y, z float32) Value { return Value{typ: TypeFloat3, vec: [4]float32{x, y, z}} }

// Vec4Value returns a float4 Value.
func Vec4Value(x, y, z, w float32) Value { return Value{typ: TypeFloat4, vec: [4]float32{x, y, z, w}} }

// LinearRGBValue returns a linear RGB Value.
func LinearRGBValue(r, g, b float32) Value {
	return Value{typ: TypeLinearRGB, vec: [4]float32{r, g, b}}
}

// ColorXYZValue returns an XYZ color Value.
func ColorXYZValue(x, y, z float32) Value {
	return Value{typ: TypeColorXYZ, vec: [4]float32{x, y, z}}
}

// EnumValue returns an enum Value holding a table index.
func EnumValue(index int32) Value { return Value{typ: TypeEnum, i: index} }

// StringValue returns a string Value with an unowned reference to s.
func StringValue(s string) Value { return Value{typ: TypeString, str: &strRef{text: s}} }

// PackedColorValue returns a color Value from RGBA bytes.
func PackedColorValue(c [4]uint8) Value { return Value{typ: TypeColor, color: c} }

// ColorValue returns a color Value from normalized RGBA components. Each
// component is clamped to [0,1] before packing.
func ColorValue(r, g, b, a float32) Value {
	return PackedColorValue([4]uint8{packChannel(r), packChannel(g), packChannel(b), packChannel(a)})
}

func packChannel(f float32) uint8 {
	return uint8(255.0*clampf(f, 0, 1) + 9.313225746154785e-10)
}

// clampf bounds f to [lo, hi]. NaN maps to lo.
func clampf(f, lo, hi float32) float32 {
	if math.IsNaN(float64(f)) || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Type returns the discriminant.
func (v Value) Type() Type { return v.typ }

// Bool returns the bool payload.
func (v Value) Bool() bool { return v.b }

// Int returns the int or enum payload.
func (v Value) Int() int32 { return v.i }

// Int64 returns the int64 payload.
func (v Value) Int64() int64 { return v.i64 }

// Float returns the float payload.
func (v Value) Float() float32 { return v.vec[0] }

// Vec returns the vector payload. Unused components are zero.
func (v Value) Vec() [4]float32 { return v.vec }

// Color returns the packed RGBA payload.
func (v Value) Color() [4]uint8 { return v.color }

// UnpackedColor returns the packed color scaled to [0,1].
func (v Value) UnpackedColor() [4]float32 {
	var out [4]float32
	for i, c := range v.color {
		out[i] = float32(c) / 255.0
	}
	return out
}

// Text returns the string payload, or "" for non-string values.
func (v Value) Text() string {
	if v.str == nil {
		return ""
	}
	return v.str.text
}

// sharesText reports whether v and o reference the same string allocation.
func (v Value) sharesText(o Value) bool {
	return v.str != nil && v.str == o.str
}

// ValuesEqual compares the components of a and b that are meaningful for t.
func ValuesEqual(t Type, a, b Value) bool {
	switch t {
	case TypeBool:
		return a.b == b.b
	case TypeFloat:
		return a.vec[0] == b.vec[0]
	case TypeFloat2, TypeFloat3, TypeFloat4, TypeLinearRGB, TypeColorXYZ:
		for i := 0; i < t.Components(); i++ {
			if a.vec[i] != b.vec[i] {
				return false
			}
		}
		return true
	case TypeInt, TypeEnum:
		return a.i == b.i
	case TypeInt64:
		return a.i64 == b.i64
	case TypeColor:
		return a.color == b.color
	case TypeString:
		if a.sharesText(b) {
			return true
		}
		return a.Text() == b.Text()
	default:
		return false
	}
}

// Equal compares two values of the same type.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ && ValuesEqual(v.typ, v, o)
}

// detached returns a copy of v whose string reference is not registry owned.
func (v Value) detached() Value {
	if v.str != nil {
		v.str = &strRef{text: v.str.text}
	}
	return v
}
