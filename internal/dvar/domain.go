package dvar

import (
	"fmt"
	"math"
	"strings"
)

// Domain is the set of valid values for a variable. Which fields apply
// depends on the variable's type:
//
//   - int: IntMin..IntMax
//   - int64: Int64Min..Int64Max
//   - float and vector types: FloatMin..FloatMax, per component
//   - enum: Enum holds the string table
//
// Bool, string and color variables are not constrained.
type Domain struct {
	IntMin, IntMax     int32
	Int64Min, Int64Max int64
	FloatMin, FloatMax float32
	Enum               []string
}

// IntDomain bounds an int variable.
func IntDomain(lo, hi int32) Domain { return Domain{IntMin: lo, IntMax: hi} }

// Int64Domain bounds an int64 variable.
func Int64Domain(lo, hi int64) Domain { return Domain{Int64Min: lo, Int64Max: hi} }

// FloatDomain bounds a float or vector variable.
func FloatDomain(lo, hi float32) Domain { return Domain{FloatMin: lo, FloatMax: hi} }

// EnumDomain holds an enum string table.
func EnumDomain(values ...string) Domain { return Domain{Enum: values} }

// AnyFloat is the unbounded float domain.
func AnyFloat() Domain { return FloatDomain(-math.MaxFloat32, math.MaxFloat32) }

// AnyInt is the unbounded int domain.
func AnyInt() Domain { return IntDomain(math.MinInt32, math.MaxInt32) }

// AnyInt64 is the unbounded int64 domain.
func AnyInt64() Domain { return Int64Domain(math.MinInt64, math.MaxInt64) }

func (d Domain) enumValid(i int32) bool {
	return i >= 0 && int(i) < len(d.Enum)
}

// ClampToDomain forces value into d. Scalars and vector components are
// clamped to the bounds independently. A NaN component takes the matching
// reset component. An enum index outside the table is replaced by reset.
func ClampToDomain(t Type, value, reset Value, d Domain) Value {
	value.typ = t
	switch t {
	case TypeFloat:
		value.vec[0] = clampComponent(value.vec[0], reset.vec[0], d)
	case TypeFloat2, TypeFloat3, TypeFloat4, TypeLinearRGB, TypeColorXYZ:
		for i := 0; i < t.Components(); i++ {
			value.vec[i] = clampComponent(value.vec[i], reset.vec[i], d)
		}
	case TypeInt:
		if value.i < d.IntMin {
			value.i = d.IntMin
		} else if value.i > d.IntMax {
			value.i = d.IntMax
		}
	case TypeInt64:
		if value.i64 < d.Int64Min {
			value.i64 = d.Int64Min
		} else if value.i64 > d.Int64Max {
			value.i64 = d.Int64Max
		}
	case TypeEnum:
		if !enumInDomain(value.i, d) {
			value.i = reset.i
		}
	}
	return value
}

func clampComponent(f, reset float32, d Domain) float32 {
	if math.IsNaN(float64(f)) {
		f = reset
	}
	return clampf(f, d.FloatMin, d.FloatMax)
}

func enumInDomain(i int32, d Domain) bool {
	// An empty table still accepts index 0 so a freshly declared enum is valid.
	return d.enumValid(i) || (len(d.Enum) == 0 && i == 0)
}

// ValueInDomain reports whether value already satisfies d.
func ValueInDomain(t Type, value Value, d Domain) bool {
	switch t {
	case TypeFloat:
		return d.FloatMin <= value.vec[0] && value.vec[0] <= d.FloatMax
	case TypeFloat2, TypeFloat3, TypeFloat4, TypeLinearRGB, TypeColorXYZ:
		for i := 0; i < t.Components(); i++ {
			if !(d.FloatMin <= value.vec[i] && value.vec[i] <= d.FloatMax) {
				return false
			}
		}
		return true
	case TypeInt:
		return d.IntMin <= value.i && value.i <= d.IntMax
	case TypeInt64:
		return d.Int64Min <= value.i64 && value.i64 <= d.Int64Max
	case TypeEnum:
		return enumInDomain(value.i, d)
	default:
		return true
	}
}

// DescribeDomain renders a sentence describing d for type t.
func DescribeDomain(t Type, d Domain) string {
	switch t {
	case TypeBool:
		return "Domain is 0 or 1"
	case TypeFloat:
		return describeRange("any number", d.FloatMin, d.FloatMax)
	case TypeFloat2, TypeFloat3, TypeFloat4, TypeLinearRGB, TypeColorXYZ:
		return describeVector(t.Components(), d)
	case TypeInt:
		return describeIntRange(int64(d.IntMin), int64(d.IntMax), math.MinInt32, math.MaxInt32)
	case TypeInt64:
		return describeIntRange(d.Int64Min, d.Int64Max, math.MinInt64, math.MaxInt64)
	case TypeEnum:
		var sb strings.Builder
		sb.WriteString("Domain is one of the following:")
		for i, s := range d.Enum {
			fmt.Fprintf(&sb, "\n  %2d: %s", i, s)
		}
		return sb.String()
	case TypeString:
		return "Domain is any text"
	case TypeColor:
		return "Domain is any 4-component color, in RGBA format"
	default:
		return ""
	}
}

func describeRange(what string, lo, hi float32) string {
	switch {
	case lo == -math.MaxFloat32 && hi == math.MaxFloat32:
		return "Domain is " + what
	case lo == -math.MaxFloat32:
		return fmt.Sprintf("Domain is %s %s or smaller", what, formatFloat(hi))
	case hi == math.MaxFloat32:
		return fmt.Sprintf("Domain is %s %s or bigger", what, formatFloat(lo))
	default:
		return fmt.Sprintf("Domain is %s from %s to %s", what, formatFloat(lo), formatFloat(hi))
	}
}

func describeVector(n int, d Domain) string {
	switch {
	case d.FloatMin == -math.MaxFloat32 && d.FloatMax == math.MaxFloat32:
		return fmt.Sprintf("Domain is any %dD vector", n)
	case d.FloatMin == -math.MaxFloat32:
		return fmt.Sprintf("Domain is any %dD vector with components %s or smaller", n, formatFloat(d.FloatMax))
	case d.FloatMax == math.MaxFloat32:
		return fmt.Sprintf("Domain is any %dD vector with components %s or bigger", n, formatFloat(d.FloatMin))
	default:
		return fmt.Sprintf("Domain is any %dD vector with components from %s to %s",
			n, formatFloat(d.FloatMin), formatFloat(d.FloatMax))
	}
}

func describeIntRange(lo, hi, floor, ceil int64) string {
	switch {
	case lo == floor && hi == ceil:
		return "Domain is any integer"
	case lo == floor:
		return fmt.Sprintf("Domain is any integer %d or smaller", hi)
	case hi == ceil:
		return fmt.Sprintf("Domain is any integer %d or bigger", lo)
	default:
		return fmt.Sprintf("Domain is any integer from %d to %d", lo, hi)
	}
}
