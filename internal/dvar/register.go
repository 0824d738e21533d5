package dvar

import (
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/dvars/internal/pubsub"
)

// Register returns the variable named name, creating it on first use.
//
// A new variable starts with current, latched and reset all equal to value,
// clamped into d. Registering an existing name never creates a second
// record: flags are unioned, a non-empty description replaces the old one,
// and a variable previously created from text (FlagExternal) is converted
// to t by parsing its current text.
//
// It returns nil for an empty or rejected name, and after a fatal error
// whose handler returned.
func (r *Registry) Register(name string, t Type, flags Flags, value Value, d Domain, description string) *Variable {
	if name == "" {
		r.diag(DiagInvalidName, name, "can't register a dvar with an empty name")
		return nil
	}
	if t >= TypeInvalid {
		r.diag(DiagTypeMismatch, name, "can't register %s with type %d", name, t)
		return nil
	}
	if !IsValidName(name) {
		if r.strictNames {
			r.diag(DiagInvalidName, name, "'%s' is not a valid dvar name", name)
			return nil
		}
		r.diag(DiagInvalidName, name, "'%s' contains characters other than letters, digits and underscores", name)
	}

	hash := r.hash(name)
	v := r.FindHash(hash)
	created := false
	if v == nil {
		v, created = r.registerNew(name, hash, t, flags, value, d, description)
		if v == nil {
			return nil
		}
	}
	if existing := v.Name(); !strings.EqualFold(existing, name) {
		r.fatalf(ErrHashCollision, "dvar name hash collision between '%s' and '%s'", name, existing)
		return nil
	}
	if !created {
		r.reregister(v, name, t, flags, value, d, description)
	}
	if strings.EqualFold(name, r.cheatsName) {
		r.cheats.Store(v)
	}
	return v
}

func cloneDomain(d Domain) Domain {
	d.Enum = slices.Clone(d.Enum)
	return d
}

// coerce converts value to t through its text form when the types differ.
func coerce(t Type, d Domain, value Value) (Value, bool) {
	if value.typ == t {
		return value, false
	}
	return StringToValue(t, d, ValueToString(value, d)), true
}

// initialValue prepares a registration default: converted to t, an invalid
// enum index replaced by 0, and clamped into d.
func (r *Registry) initialValue(name string, t Type, value Value, d Domain) Value {
	value, converted := coerce(t, d, value)
	if converted {
		r.diag(DiagTypeMismatch, name, "default for %s converted to %s", name, t)
	}
	if t == TypeEnum && !enumInDomain(value.i, d) {
		r.diag(DiagRejected, name, "default index %d is not valid for %s", value.i, name)
		value.i = 0
	}
	return ClampToDomain(t, value, value, d)
}

// registerNew allocates the next arena record. If another goroutine
// registered the same hash first, that record is returned with created
// false.
func (r *Registry) registerNew(name string, hash uint32, t Type, flags Flags, value Value, d Domain, description string) (v *Variable, created bool) {
	end := r.span("dvar.register", attribute.String("dvar.name", name), attribute.String("dvar.type", t.String()))
	defer end()

	d = cloneDomain(d)
	value = r.initialValue(name, t, value, d)

	r.guard.LockWrite()
	if existing := r.findLocked(hash); existing != nil {
		r.guard.UnlockWrite()
		return existing, false
	}
	if r.count >= len(r.arena) {
		count := r.count
		r.guard.UnlockWrite()
		r.fatalf(ErrCapacityExceeded, "can't create dvar '%s': %d dvars already exist", name, count)
		return nil, false
	}

	v = &r.arena[r.count]
	v.mu.Lock()
	v.name = name
	v.hash = hash
	v.typ = t
	v.flags = flags
	v.domain = d
	v.description = description
	v.modified = false
	v.storeSlot(slotCurrent, value)
	v.storeSlot(slotLatched, value)
	v.storeSlot(slotReset, value)
	n := v.noticeLocked(pubsub.CreatedEvent, v.current, SourceInternal)
	v.mu.Unlock()

	b := bucketOf(hash)
	v.hashNext = r.buckets[b]
	r.buckets[b] = v
	r.sorted = append(r.sorted, v)
	r.sortedValid = false
	r.count++
	r.active.Store(true)
	r.guard.UnlockWrite()

	r.publish(n)
	return v, true
}

func (r *Registry) reregister(v *Variable, name string, t Type, flags Flags, value Value, d Domain, description string) {
	cheatsOn := r.CheatsEnabled()

	v.mu.Lock()
	claimed := false
	if v.flags.Has(FlagExternal) && !flags.Has(FlagExternal) {
		r.reinterpretLocked(v, name, t, flags, value, d, cheatsOn)
		claimed = true
	} else if v.flags.Has(FlagExternal) && v.typ != t {
		r.makeExplicitTypeLocked(v, t, flags, value, d, cheatsOn)
		claimed = true
	} else if v.typ != t {
		r.diag(DiagTypeMismatch, v.name, "%s is already registered as %s, not %s", v.name, v.typ, t)
	}

	v.flags |= flags
	if description != "" {
		v.description = description
	}
	if v.flags.Has(FlagCheat) && !cheatsOn {
		v.storeSlot(slotLatched, v.reset)
	}
	var n *notice
	if v.flags.Has(FlagLatched) {
		n = r.setVariantLocked(v, v.latched, SourceInternal, cheatsOn)
	}
	if n == nil && claimed {
		n = v.noticeLocked(pubsub.UpdatedEvent, v.current, SourceInternal)
	}
	v.mu.Unlock()

	r.publish(n)
}

// reinterpretLocked turns a text-created variable into one owned by code:
// it is flattened to a string, renamed to the caller's spelling, and then
// converted to t. Caller holds v.mu.
func (r *Registry) reinterpretLocked(v *Variable, name string, t Type, flags Flags, value Value, d Domain, cheatsOn bool) {
	v.unregisterLocked()
	v.name = name
	v.flags &^= FlagExternal
	r.makeExplicitTypeLocked(v, t, flags, value, d, cheatsOn)
}

// makeExplicitTypeLocked converts a string variable to t by parsing its
// current text into d. Read-only variables, and cheat variables while cheats
// are off, take the reset value instead. Caller holds v.mu.
func (r *Registry) makeExplicitTypeLocked(v *Variable, t Type, flags Flags, reset Value, d Domain, cheatsOn bool) {
	text := ValueToString(v.current, v.domain)
	d = cloneDomain(d)
	reset = r.initialValue(v.name, t, reset, d)

	var cast Value
	if flags.Has(FlagReadOnly) || (flags.Has(FlagCheat) && !cheatsOn) {
		cast = reset
	} else {
		cast = ClampToDomain(t, StringToValue(t, d, text), reset, d)
	}

	v.releaseStrings()
	v.typ = t
	v.domain = d
	v.current = Value{typ: t}
	v.latched = Value{typ: t}
	v.reset = Value{typ: t}
	v.storeSlot(slotReset, reset)
	v.storeSlot(slotCurrent, cast)
	v.storeSlot(slotLatched, cast)
	r.modifiedFlags.Or(uint32(flags))
	if ValueToString(v.current, d) != text {
		v.markModifiedLocked()
	}
}

// markModifiedLocked records a change to current that did not go through
// setVariantLocked. Caller holds v.mu.
func (v *Variable) markModifiedLocked() {
	v.modified = true
	v.reg.modifiedFlags.Or(uint32(v.flags))
	if v.flags.Has(FlagCallback) {
		v.reg.tracker.markPending(v)
	}
}

// unregisterLocked flattens v to a string variable marked FlagExternal.
// Current takes the latched text. Caller holds v.mu.
func (v *Variable) unregisterLocked() {
	v.flags |= FlagExternal
	if v.typ == TypeString {
		return
	}
	current := ValueToString(v.latched, v.domain)
	reset := ValueToString(v.reset, v.domain)

	v.typ = TypeString
	v.domain = Domain{}
	v.current = Value{typ: TypeString}
	v.latched = Value{typ: TypeString}
	v.reset = Value{typ: TypeString}
	v.storeSlot(slotCurrent, StringValue(current))
	v.storeSlot(slotLatched, StringValue(current))
	v.storeSlot(slotReset, StringValue(reset))
}

// UnregisterMakeExternal detaches v from the code that registered it: the
// variable becomes a string holding the display text of its values and is
// marked FlagExternal. A later registration restores a typed variable from
// that text.
func (v *Variable) UnregisterMakeExternal() {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.unregisterLocked()
	v.mu.Unlock()
}

// ChangeResetValue replaces the reset value.
func (v *Variable) ChangeResetValue(value Value) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.name == "" {
		return
	}
	v.storeSlot(slotReset, v.reg.initialValue(v.name, v.typ, value, v.domain))
}

// UpdateEnumDomain replaces the enum table and pulls current and latched
// back into it.
func (v *Variable) UpdateEnumDomain(table []string) {
	if v == nil {
		return
	}
	v.mu.Lock()
	if v.typ != TypeEnum {
		name, typ := v.name, v.typ
		v.mu.Unlock()
		v.reg.diag(DiagTypeMismatch, name, "%s is %s, not enum", name, typ)
		return
	}
	v.domain.Enum = slices.Clone(table)
	if !enumInDomain(v.reset.i, v.domain) {
		v.reset.i = 0
	}
	updated := ClampToDomain(TypeEnum, v.current, v.reset, v.domain)
	if !ValuesEqual(TypeEnum, v.current, updated) {
		v.markModifiedLocked()
	}
	v.current = updated
	v.latched = updated
	n := v.noticeLocked(pubsub.UpdatedEvent, v.current, SourceInternal)
	v.mu.Unlock()

	v.reg.publish(n)
}

// RegisterBool registers a bool variable.
func (r *Registry) RegisterBool(name string, value bool, flags Flags, description string) *Variable {
	return r.Register(name, TypeBool, flags, BoolValue(value), Domain{}, description)
}

// RegisterInt registers an int variable bounded by [lo, hi].
func (r *Registry) RegisterInt(name string, value, lo, hi int32, flags Flags, description string) *Variable {
	return r.Register(name, TypeInt, flags, IntValue(value), IntDomain(lo, hi), description)
}

// RegisterInt64 registers an int64 variable bounded by [lo, hi].
func (r *Registry) RegisterInt64(name string, value, lo, hi int64, flags Flags, description string) *Variable {
	return r.Register(name, TypeInt64, flags, Int64Value(value), Int64Domain(lo, hi), description)
}

// RegisterFloat registers a float variable bounded by [lo, hi].
func (r *Registry) RegisterFloat(name string, value, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeFloat, flags, FloatValue(value), FloatDomain(lo, hi), description)
}

// RegisterVec2 registers a 2D vector whose components are bounded by [lo, hi].
func (r *Registry) RegisterVec2(name string, x, y, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeFloat2, flags, Vec2Value(x, y), FloatDomain(lo, hi), description)
}

// RegisterVec3 registers a 3D vector.
func (r *Registry) RegisterVec3(name string, x, y, z, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeFloat3, flags, Vec3Value(x, y, z), FloatDomain(lo, hi), description)
}

// RegisterVec4 registers a 4D vector.
func (r *Registry) RegisterVec4(name string, x, y, z, w, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeFloat4, flags, Vec4Value(x, y, z, w), FloatDomain(lo, hi), description)
}

// RegisterString registers a string variable.
func (r *Registry) RegisterString(name, value string, flags Flags, description string) *Variable {
	return r.Register(name, TypeString, flags, StringValue(value), Domain{}, description)
}

// RegisterEnum registers an enum over table with the default at index.
func (r *Registry) RegisterEnum(name string, table []string, index int32, flags Flags, description string) *Variable {
	return r.Register(name, TypeEnum, flags, EnumValue(index), EnumDomain(table...), description)
}

// RegisterColor registers a packed RGBA color from normalized components.
func (r *Registry) RegisterColor(name string, red, green, blue, alpha float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeColor, flags, ColorValue(red, green, blue, alpha), Domain{}, description)
}

// RegisterLinearRGB registers a linear RGB color.
func (r *Registry) RegisterLinearRGB(name string, red, green, blue, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeLinearRGB, flags, LinearRGBValue(red, green, blue), FloatDomain(lo, hi), description)
}

// RegisterColorXYZ registers a CIE XYZ color.
func (r *Registry) RegisterColorXYZ(name string, x, y, z, lo, hi float32, flags Flags, description string) *Variable {
	return r.Register(name, TypeColorXYZ, flags, ColorXYZValue(x, y, z), FloatDomain(lo, hi), description)
}

// MustFind is Find for names the caller registered itself.
func (r *Registry) MustFind(name string) *Variable {
	v := r.Find(name)
	if v == nil {
		panic(fmt.Sprintf("dvar: %s is not registered", name))
	}
	return v
}
