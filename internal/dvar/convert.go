package dvar

import (
	"math"
	"strconv"
	"strings"
)

// formatFloat renders f the way printf's %g does (six significant digits).
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', 6, 32)
}

func formatFloats(vs ...float32) string {
	parts := make([]string, len(vs))
	for i, f := range vs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, " ")
}

// ValueToString renders v in its canonical text form. d supplies the
// string table for enum values; an index outside the table renders as "".
func ValueToString(v Value, d Domain) string {
	switch v.typ {
	case TypeBool:
		if v.b {
			return "1"
		}
		return "0"
	case TypeFloat:
		return formatFloat(v.vec[0])
	case TypeFloat2, TypeFloat3, TypeFloat4, TypeLinearRGB, TypeColorXYZ:
		return formatFloats(v.vec[:v.typ.Components()]...)
	case TypeInt:
		return strconv.FormatInt(int64(v.i), 10)
	case TypeEnum:
		if d.enumValid(v.i) {
			return d.Enum[v.i]
		}
		return ""
	case TypeString:
		return v.Text()
	case TypeColor:
		c := v.UnpackedColor()
		return formatFloats(c[:]...)
	case TypeInt64:
		return strconv.FormatInt(v.i64, 10)
	default:
		return ""
	}
}

// StringToValue parses text into a value of type t. Parsing is lenient in
// the way C's atoi/atof/sscanf are: leading garbage yields zero and trailing
// garbage is ignored. Enum text that matches nothing yields InvalidEnumIndex.
func StringToValue(t Type, d Domain, text string) Value {
	switch t {
	case TypeBool:
		return BoolValue(atoi(text) != 0)
	case TypeFloat:
		return FloatValue(atof(text))
	case TypeFloat2:
		v := parseVector(text, 2)
		return Vec2Value(v[0], v[1])
	case TypeFloat3, TypeLinearRGB, TypeColorXYZ:
		v := parseVector(text, 3)
		return Value{typ: t, vec: v}
	case TypeFloat4:
		v := parseVector(text, 4)
		return Vec4Value(v[0], v[1], v[2], v[3])
	case TypeInt:
		return IntValue(atoi(text))
	case TypeEnum:
		return EnumValue(StringToEnum(d, text))
	case TypeString:
		return StringValue(text)
	case TypeColor:
		v := parseVector(text, 4)
		return ColorValue(v[0], v[1], v[2], v[3])
	case TypeInt64:
		return Int64Value(atoi64(text))
	default:
		return Value{typ: t}
	}
}

// StringToEnum resolves text against the enum table in d. It tries, in order:
// a case-insensitive exact match, a decimal index, and a case-insensitive
// prefix match. Empty text matches only an empty table entry.
func StringToEnum(d Domain, text string) int32 {
	for i, s := range d.Enum {
		if strings.EqualFold(text, s) {
			return int32(i)
		}
	}

	if text != "" && isDigits(text) {
		if n, err := strconv.Atoi(text); err == nil && n >= 0 && n < len(d.Enum) {
			return int32(n)
		}
	}

	if text != "" {
		for i, s := range d.Enum {
			if len(s) >= len(text) && strings.EqualFold(s[:len(text)], text) {
				return int32(i)
			}
		}
	}

	return InvalidEnumIndex
}

// IndexStringToEnumString maps a decimal index string to its table entry.
func IndexStringToEnumString(d Domain, indexString string) string {
	if len(d.Enum) == 0 || !isDigits(indexString) {
		return ""
	}
	n, err := strconv.Atoi(indexString)
	if err != nil || n < 0 || n >= len(d.Enum) {
		return ""
	}
	return d.Enum[n]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseVector reads up to n floats separated by whitespace, commas or
// enclosing parentheses. Parsing stops at the first token that is not a
// number; missing components are zero.
func parseVector(text string, n int) [4]float32 {
	var out [4]float32
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' || r == '(' || r == ')'
	})
	for i := 0; i < n && i < len(fields); i++ {
		prefix := floatPrefix(fields[i])
		if prefix == "" {
			break
		}
		out[i] = atof(prefix)
	}
	return out
}

// floatPrefix returns the longest prefix of s that parses as a decimal float.
func floatPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func atof(s string) float32 {
	prefix := floatPrefix(strings.TrimLeft(s, " \t\n\r"))
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 32)
	if err != nil {
		// Out of range values saturate like strtod.
		if f != 0 {
			return float32(f)
		}
		return 0
	}
	return float32(f)
}

func atoi64(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n uint64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > math.MaxInt64/10 {
			n = math.MaxInt64 + 1
			break
		}
		n = n*10 + uint64(s[i]-'0')
	}
	if neg {
		if n > math.MaxInt64 {
			return math.MinInt64
		}
		return -int64(n)
	}
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

func atoi(s string) int32 {
	return clampInt32(atoi64(s))
}

func clampInt32(n int64) int32 {
	if n < math.MinInt32 {
		return math.MinInt32
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
