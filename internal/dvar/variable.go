package dvar

import "sync"

// Variable is a named, typed slot owned by a Registry. Handles are stable
// for the life of the registry; after Shutdown the record is recycled.
//
// All methods are safe on a nil *Variable and return the type's zero value.
type Variable struct {
	// mu serializes access to the value triple and the mutable metadata.
	mu  sync.RWMutex
	reg *Registry

	name        string
	hash        uint32
	typ         Type
	flags       Flags
	current     Value
	latched     Value
	reset       Value
	domain      Domain
	description string
	modified    bool

	// hashNext links the bucket chain. Guarded by the registry guard.
	hashNext *Variable
}

func (v *Variable) clearRecord() {
	v.name = ""
	v.hash = 0
	v.typ = TypeBool
	v.flags = 0
	v.current = Value{}
	v.latched = Value{}
	v.reset = Value{}
	v.domain = Domain{}
	v.description = ""
	v.modified = false
	v.hashNext = nil
}

// Name returns the registered name, or "" for nil.
func (v *Variable) Name() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.name
}

// Hash returns the name hash.
func (v *Variable) Hash() uint32 {
	if v == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hash
}

// Type returns the stored type, or TypeInvalid for nil.
func (v *Variable) Type() Type {
	if v == nil {
		return TypeInvalid
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.typ
}

// Flags returns the flag set.
func (v *Variable) Flags() Flags {
	if v == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.flags
}

// AddFlags unions f into the flag set.
func (v *Variable) AddFlags(f Flags) {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.flags |= f
	v.mu.Unlock()
}

// Description returns the help text.
func (v *Variable) Description() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.description
}

// Domain returns a copy of the domain.
func (v *Variable) Domain() Domain {
	if v == nil {
		return Domain{}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	d := v.domain
	d.Enum = append([]string(nil), v.domain.Enum...)
	return d
}

// DescribeDomain renders the domain sentence for this variable.
func (v *Variable) DescribeDomain() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return DescribeDomain(v.typ, v.domain)
}

// Modified reports whether current changed since the last ClearModified.
func (v *Variable) Modified() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.modified
}

// ClearModified resets the modified flag.
func (v *Variable) ClearModified() {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.modified = false
	v.mu.Unlock()
}

// SetModified forces the modified flag on.
func (v *Variable) SetModified() {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.modified = true
	v.mu.Unlock()
}

// Current returns a copy of the current value.
func (v *Variable) Current() Value {
	if v == nil {
		return Value{typ: TypeInvalid}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current.detached()
}

// Latched returns a copy of the latched value.
func (v *Variable) Latched() Value {
	if v == nil {
		return Value{typ: TypeInvalid}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.latched.detached()
}

// Reset returns a copy of the reset value.
func (v *Variable) ResetValue() Value {
	if v == nil {
		return Value{typ: TypeInvalid}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reset.detached()
}

// HasLatchedValue reports whether a latched value is pending.
func (v *Variable) HasLatchedValue() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !ValuesEqual(v.typ, v.current, v.latched)
}

// DisplayableValue renders the current value.
func (v *Variable) DisplayableValue() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ValueToString(v.current, v.domain)
}

// DisplayableLatchedValue renders the latched value.
func (v *Variable) DisplayableLatchedValue() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ValueToString(v.latched, v.domain)
}

// DisplayableResetValue renders the reset value.
func (v *Variable) DisplayableResetValue() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ValueToString(v.reset, v.domain)
}

// VariantString is DisplayableValue under its historical name.
func (v *Variable) VariantString() string {
	return v.DisplayableValue()
}

// SharesStringWith reports whether two slots of a string variable reference
// the same allocation. Slots are named "current", "latched" or "reset".
func (v *Variable) SharesStringWith(a, b string) bool {
	if v == nil {
		return false
	}
	sa, okA := parseSlot(a)
	sb, okB := parseSlot(b)
	if !okA || !okB {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.slotPtr(sa).sharesText(*v.slotPtr(sb))
}

func parseSlot(s string) (slot, bool) {
	switch s {
	case "current":
		return slotCurrent, true
	case "latched":
		return slotLatched, true
	case "reset":
		return slotReset, true
	default:
		return 0, false
	}
}
