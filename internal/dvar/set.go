package dvar

import "github.com/zjrosen/dvars/internal/pubsub"

// canChangeValue returns why an External or Script source may not store
// value, or "" when it may. Restoring the reset value is always allowed.
func canChangeValue(v *Variable, value Value, cheatsOn bool) string {
	if ValuesEqual(v.typ, value, v.reset) {
		return ""
	}
	switch {
	case v.flags.Has(FlagReadOnly):
		return "read only"
	case v.flags.Has(FlagWriteProtected):
		return "write protected"
	case v.flags.Has(FlagCheat) && !cheatsOn:
		return "cheat protected"
	default:
		return ""
	}
}

func (r *Registry) canSetConfigDvar(v *Variable) bool {
	if !v.flags.Has(FlagConfigRestricted) || !r.isMain() {
		return true
	}
	return r.canSetConfig.Load()
}

// conformLocked converts value to the variable's type and forces it into
// the domain. An enum index that names no table entry falls back to reset.
func (r *Registry) conformLocked(v *Variable, value Value) Value {
	value, converted := coerce(v.typ, v.domain, value)
	if converted {
		r.diag(DiagTypeMismatch, v.name, "%s silently casting a value to %s", v.name, v.typ)
	}
	if v.typ == TypeEnum && !enumInDomain(value.i, v.domain) {
		r.diag(DiagRejected, v.name, "'%d' is not a valid value for dvar '%s'. %s", value.i, v.name, DescribeDomain(v.typ, v.domain))
		return v.reset
	}
	if !ValueInDomain(v.typ, value, v.domain) {
		clamped := ClampToDomain(v.typ, value, v.reset, v.domain)
		r.diag(DiagClamped, v.name, "'%s' is out of range for dvar '%s', using '%s'",
			ValueToString(value, v.domain), v.name, ValueToString(clamped, v.domain))
		return clamped
	}
	return value
}

// setVariantLocked is the central mutation. It returns the event to publish
// once v.mu is released, or nil. Caller holds v.mu.
func (r *Registry) setVariantLocked(v *Variable, value Value, source Source, cheatsOn bool) *notice {
	if v.name == "" {
		return nil
	}
	if !r.canSetConfigDvar(v) {
		r.diag(DiagPermissionDenied, v.name, "%s can't be changed while config writes are disabled", v.name)
		return nil
	}

	value = r.conformLocked(v, value)

	if source.untrusted() {
		if reason := canChangeValue(v, value, cheatsOn); reason != "" {
			r.diag(DiagPermissionDenied, v.name, "%s is %s", v.name, reason)
			return nil
		}
		if v.flags.Has(FlagLatched) {
			if !ValuesEqual(v.typ, v.latched, value) {
				r.modifiedFlags.Or(uint32(v.flags))
			}
			v.storeSlot(slotLatched, value)
			if ValuesEqual(v.typ, v.latched, v.current) {
				return nil
			}
			r.diag(DiagLatched, v.name, "%s will be changed upon restarting", v.name)
			return v.noticeLocked(pubsub.LatchedEvent, v.latched, source)
		}
	}

	if ValuesEqual(v.typ, v.current, value) {
		v.storeSlot(slotLatched, v.current)
		return nil
	}

	r.modifiedFlags.Or(uint32(v.flags))
	v.storeSlot(slotCurrent, value)
	v.storeSlot(slotLatched, v.current)
	v.modified = true
	if v.flags.Has(FlagCallback) {
		r.tracker.markPending(v)
	}
	return v.noticeLocked(pubsub.UpdatedEvent, v.current, source)
}

// SetVariant stores value into v on behalf of source.
//
// External and Script sources are refused for read-only, write-protected
// and (while cheats are off) cheat variables, unless value equals the reset
// value. For latched variables those sources only update the latched slot;
// the variable is not marked modified, but its flags join the registry's
// modified-flags mask so the pending value gets persisted.
// Refusals are reported as diagnostics; the call itself never fails.
func (v *Variable) SetVariant(value Value, source Source) {
	if v == nil {
		return
	}
	r := v.reg
	cheatsOn := r.CheatsEnabled()
	v.mu.Lock()
	n := r.setVariantLocked(v, value, source, cheatsOn)
	v.mu.Unlock()
	r.publish(n)
}

// MakeLatchedValueCurrent applies a pending latched value.
func (v *Variable) MakeLatchedValueCurrent() {
	if v == nil {
		return
	}
	r := v.reg
	cheatsOn := r.CheatsEnabled()
	v.mu.Lock()
	n := r.setVariantLocked(v, v.latched, SourceInternal, cheatsOn)
	v.mu.Unlock()
	r.publish(n)
}

// Reset restores the reset value on behalf of source.
func (v *Variable) Reset(source Source) {
	if v == nil {
		return
	}
	r := v.reg
	cheatsOn := r.CheatsEnabled()
	v.mu.Lock()
	n := r.setVariantLocked(v, v.reset, source, cheatsOn)
	v.mu.Unlock()
	r.publish(n)
}

// SetBool sets a bool value.
func (v *Variable) SetBool(b bool, source Source) { v.SetVariant(BoolValue(b), source) }

// SetInt sets an int value. On an enum variable it selects the index.
func (v *Variable) SetInt(i int32, source Source) {
	if v.Type() == TypeEnum {
		v.SetVariant(EnumValue(i), source)
		return
	}
	v.SetVariant(IntValue(i), source)
}

// SetInt64 sets an int64 value.
func (v *Variable) SetInt64(i int64, source Source) { v.SetVariant(Int64Value(i), source) }

// SetFloat sets a float value.
func (v *Variable) SetFloat(f float32, source Source) { v.SetVariant(FloatValue(f), source) }

// SetVec2 sets a 2D vector.
func (v *Variable) SetVec2(x, y float32, source Source) { v.SetVariant(Vec2Value(x, y), source) }

// SetVec3 sets a 3D vector.
func (v *Variable) SetVec3(x, y, z float32, source Source) {
	v.SetVariant(Vec3Value(x, y, z), source)
}

// SetVec4 sets a 4D vector.
func (v *Variable) SetVec4(x, y, z, w float32, source Source) {
	v.SetVariant(Vec4Value(x, y, z, w), source)
}

// SetText sets a string value.
func (v *Variable) SetText(s string, source Source) { v.SetVariant(StringValue(s), source) }

// SetColor sets a color from normalized components.
func (v *Variable) SetColor(red, green, blue, alpha float32, source Source) {
	v.SetVariant(ColorValue(red, green, blue, alpha), source)
}

// SetColorBytes sets a color from packed RGBA.
func (v *Variable) SetColorBytes(c [4]uint8, source Source) {
	v.SetVariant(PackedColorValue(c), source)
}

// SetLinearRGB sets a linear RGB color.
func (v *Variable) SetLinearRGB(red, green, blue float32, source Source) {
	v.SetVariant(LinearRGBValue(red, green, blue), source)
}

// SetColorXYZ sets an XYZ color.
func (v *Variable) SetColorXYZ(x, y, z float32, source Source) {
	v.SetVariant(ColorXYZValue(x, y, z), source)
}

func (v *Variable) currentEquals(value Value) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return value.typ == v.typ && ValuesEqual(v.typ, v.current, value)
}

// SetBoolIfChanged sets b from the Internal source unless it is current.
func (v *Variable) SetBoolIfChanged(b bool) {
	if v == nil || v.currentEquals(BoolValue(b)) {
		return
	}
	v.SetBool(b, SourceInternal)
}

// SetIntIfChanged sets i from the Internal source unless it is current.
func (v *Variable) SetIntIfChanged(i int32) {
	if v == nil || v.currentEquals(IntValue(i)) || v.currentEquals(EnumValue(i)) {
		return
	}
	v.SetInt(i, SourceInternal)
}

// SetFloatIfChanged sets f from the Internal source unless it is current.
func (v *Variable) SetFloatIfChanged(f float32) {
	if v == nil || v.currentEquals(FloatValue(f)) {
		return
	}
	v.SetFloat(f, SourceInternal)
}

// SetTextIfChanged sets s from the Internal source unless it is current.
func (v *Variable) SetTextIfChanged(s string) {
	if v == nil || v.currentEquals(StringValue(s)) {
		return
	}
	v.SetText(s, SourceInternal)
}
