package dvar

import (
	"slices"
	"sync"
)

// ModifiedCallback is invoked by DoModifiedCallbacks for a variable whose
// current value changed since the last dispatch.
type ModifiedCallback func(v *Variable)

type callbackEntry struct {
	fn      ModifiedCallback
	pending bool
	seq     int
}

// tracker is the bounded pool of modified callbacks, keyed by variable.
// A lookup for a variable without an entry reports not found.
type tracker struct {
	mu       sync.Mutex
	capacity int
	entries  map[*Variable]*callbackEntry
	seq      int
}

func newTracker(capacity int) *tracker {
	return &tracker{
		capacity: capacity,
		entries:  make(map[*Variable]*callbackEntry, capacity),
	}
}

// attach installs or replaces the callback for v. It returns false when the
// pool is full and v has no entry yet.
func (t *tracker) attach(v *Variable, fn ModifiedCallback) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[v]; ok {
		e.fn = fn
		return true
	}
	if len(t.entries) >= t.capacity {
		return false
	}
	t.seq++
	t.entries[v] = &callbackEntry{fn: fn, seq: t.seq}
	return true
}

func (t *tracker) detach(v *Variable) {
	t.mu.Lock()
	delete(t.entries, v)
	t.mu.Unlock()
}

// markPending flags v's entry for dispatch. It returns false when v has no
// entry.
func (t *tracker) markPending(v *Variable) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[v]
	if !ok {
		return false
	}
	e.pending = true
	return true
}

func (t *tracker) pending(v *Variable) (pending, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[v]
	if !ok {
		return false, false
	}
	return e.pending, true
}

type dispatch struct {
	v   *Variable
	fn  ModifiedCallback
	seq int
}

// takePending clears every pending entry and returns them in attach order.
func (t *tracker) takePending() []dispatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []dispatch
	for v, e := range t.entries {
		if e.pending {
			e.pending = false
			out = append(out, dispatch{v: v, fn: e.fn, seq: e.seq})
		}
	}
	slices.SortFunc(out, func(a, b dispatch) int { return a.seq - b.seq })
	return out
}

func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *tracker) reset() {
	t.mu.Lock()
	clear(t.entries)
	t.seq = 0
	t.mu.Unlock()
}

// SetModifiedCallback attaches fn to v, replacing any previous callback.
// A nil fn detaches. When the pool is full the callback is dropped with a
// diagnostic.
func (r *Registry) SetModifiedCallback(v *Variable, fn ModifiedCallback) {
	if v == nil {
		return
	}
	if fn == nil {
		r.tracker.detach(v)
		v.mu.Lock()
		v.flags &^= FlagCallback
		v.mu.Unlock()
		return
	}
	if !r.tracker.attach(v, fn) {
		r.diag(DiagCallbackPoolFull, v.Name(), "no room for a modified callback on %s (%d in use)", v.Name(), r.tracker.capacity)
		return
	}
	v.AddFlags(FlagCallback)
}

// HasPendingCallback reports whether v has a callback waiting for dispatch.
// found is false when v has no callback attached.
func (r *Registry) HasPendingCallback(v *Variable) (pending, found bool) {
	if v == nil {
		return false, false
	}
	return r.tracker.pending(v)
}

// DoModifiedCallbacks runs every pending callback once, outside any lock,
// and returns how many ran.
func (r *Registry) DoModifiedCallbacks() int {
	calls := r.tracker.takePending()
	for _, c := range calls {
		c.fn(c.v)
	}
	return len(calls)
}
