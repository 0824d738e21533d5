package dvar

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// strRef is a reference to string text. References created by StringValue
// are unowned. References created by a stringPool are allocations counted
// by the pool and shared between the slots of one variable.
type strRef struct {
	text  string
	pool  *stringPool
	refs  int32
	freed bool
}

// stringPool accounts for the string allocations owned by a registry. A
// variable's current, latched and reset slots each hold one reference; when
// two slots carry equal text they share an allocation instead of copying.
// An allocation is freed when its last slot releases it.
type stringPool struct {
	mu     sync.Mutex
	allocs atomic.Int64
	frees  atomic.Int64
}

func newStringPool() *stringPool {
	return &stringPool{}
}

func (p *stringPool) alloc(text string) *strRef {
	p.allocs.Add(1)
	return &strRef{text: text, pool: p, refs: 1}
}

func (p *stringPool) retain(r *strRef) *strRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.freed {
		panic(fmt.Sprintf("dvar: retain of freed string %q", r.text))
	}
	r.refs++
	return r
}

func (p *stringPool) release(r *strRef) {
	if r == nil || r.pool != p {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.freed {
		panic(fmt.Sprintf("dvar: double free of string %q", r.text))
	}
	r.refs--
	if r.refs == 0 {
		r.freed = true
		p.frees.Add(1)
	}
}

// StringStats reports string allocation accounting for a registry.
type StringStats struct {
	Allocs int64
	Frees  int64
}

// Live returns the number of allocations not yet freed.
func (s StringStats) Live() int64 {
	return s.Allocs - s.Frees
}

func (p *stringPool) stats() StringStats {
	return StringStats{Allocs: p.allocs.Load(), Frees: p.frees.Load()}
}

// slot names one member of a variable's value triple.
type slot uint8

const (
	slotCurrent slot = iota
	slotLatched
	slotReset
)

func (v *Variable) slotPtr(s slot) *Value {
	switch s {
	case slotCurrent:
		return &v.current
	case slotLatched:
		return &v.latched
	default:
		return &v.reset
	}
}

// others returns the two slots other than s.
func others(s slot) [2]slot {
	switch s {
	case slotCurrent:
		return [2]slot{slotLatched, slotReset}
	case slotLatched:
		return [2]slot{slotCurrent, slotReset}
	default:
		return [2]slot{slotCurrent, slotLatched}
	}
}

// assignString stores text into slot s. If one of the other two slots holds
// the same reference or equal text, s shares that allocation; otherwise a
// new allocation is made. The slot's previous reference is released after
// the new one is in place. Caller holds v.mu.
func (v *Variable) assignString(s slot, value Value) {
	pool := v.reg.strings
	text := value.Text()

	dst := v.slotPtr(s)
	if dst.str != nil && dst.str.pool == pool && (dst.str == value.str || dst.str.text == text) {
		return
	}

	var ref *strRef
	for _, o := range others(s) {
		other := v.slotPtr(o)
		if other.str == nil || other.str.pool != pool {
			continue
		}
		if other.str == value.str || other.str.text == text {
			ref = pool.retain(other.str)
			break
		}
	}
	if ref == nil {
		ref = pool.alloc(text)
	}

	old := dst.str
	*dst = Value{typ: TypeString, str: ref}
	pool.release(old)
}

// clearString releases slot s's string reference and zeroes the slot.
// Caller holds v.mu.
func (v *Variable) clearString(s slot) {
	dst := v.slotPtr(s)
	old := dst.str
	*dst = Value{typ: dst.typ}
	v.reg.strings.release(old)
}

// releaseStrings drops every string reference held by the triple.
func (v *Variable) releaseStrings() {
	v.clearString(slotCurrent)
	v.clearString(slotLatched)
	v.clearString(slotReset)
}

// storeSlot writes value into slot s, routing strings through the
// ownership rules. Caller holds v.mu.
func (v *Variable) storeSlot(s slot, value Value) {
	if v.typ == TypeString {
		v.assignString(s, value)
		return
	}
	dst := v.slotPtr(s)
	old := dst.str
	value.str = nil
	value.typ = v.typ
	*dst = value
	v.reg.strings.release(old)
}
