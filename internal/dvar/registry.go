package dvar

import (
	"context"
	"iter"
	"slices"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/dvars/internal/log"
	"github.com/zjrosen/dvars/internal/pubsub"
)

const (
	// DefaultCapacity is the number of variable records in the arena.
	DefaultCapacity = 4320

	// DefaultCallbackCapacity bounds the modified-callback pool.
	DefaultCallbackCapacity = 64

	// CheatsName is the bool variable consulted for cheat protection.
	CheatsName = "sv_cheats"
)

// Registry owns a fixed-capacity arena of variables, a hash table of bucket
// chains over it, and a lazily sorted index for enumeration.
//
// Structure (the bucket table, the arena count and the sorted index) is
// guarded by a Guard. Each variable serializes its own value mutation, so
// concurrent setters on one variable never interleave inside the triple.
// Locks are always taken in the order guard, variable, tracker.
type Registry struct {
	guard       Guard
	arena       []Variable
	count       int
	buckets     [BucketCount]*Variable
	sorted      []*Variable
	sortedValid bool

	strings *stringPool
	tracker *tracker
	events  *pubsub.Broker[ChangeEvent]

	cheats        atomic.Pointer[Variable]
	modifiedFlags atomic.Uint32
	active        atomic.Bool
	canSetConfig  atomic.Bool
	inAutoExec    atomic.Bool

	cheatsName  string
	hash        func(string) uint32
	fatal       func(error)
	diagnostics func(Diagnostic)
	tracer      trace.Tracer
	isMain      func() bool
	strictNames bool
}

// Option configures a Registry.
type Option func(*config)

type config struct {
	capacity         int
	callbackCapacity int
	cheatsName       string
	hash             func(string) uint32
	fatal            func(error)
	diagnostics      func(Diagnostic)
	tracer           trace.Tracer
	isMain           func() bool
	strictNames      bool
}

// WithCapacity sets the arena size.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithCallbackCapacity bounds the modified-callback pool.
func WithCallbackCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.callbackCapacity = n
		}
	}
}

// WithFatalHandler replaces the handler for ErrCapacityExceeded and
// ErrHashCollision. The default panics. When the handler returns, the
// failing registration returns nil.
func WithFatalHandler(fn func(error)) Option {
	return func(c *config) { c.fatal = fn }
}

// WithDiagnostics installs a hook receiving every Diagnostic. The hook runs
// synchronously, possibly while a variable lock is held, and must not call
// back into the registry.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(c *config) { c.diagnostics = fn }
}

// WithTracer records spans for registration, shutdown and sorting.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithMainContext installs the predicate that decides whether the calling
// goroutine may change config-restricted variables.
func WithMainContext(fn func() bool) Option {
	return func(c *config) { c.isMain = fn }
}

// WithHasher replaces HashName. Tests use it to force collisions.
func WithHasher(fn func(string) uint32) Option {
	return func(c *config) { c.hash = fn }
}

// WithCheatsName changes the variable consulted for cheat protection.
func WithCheatsName(name string) Option {
	return func(c *config) { c.cheatsName = name }
}

// WithStrictNames rejects registration of names that fail IsValidName.
// Without it such names are accepted with a diagnostic.
func WithStrictNames(strict bool) Option {
	return func(c *config) { c.strictNames = strict }
}

// New returns an empty, inactive registry.
func New(opts ...Option) *Registry {
	cfg := config{
		capacity:         DefaultCapacity,
		callbackCapacity: DefaultCallbackCapacity,
		cheatsName:       CheatsName,
		hash:             HashName,
		fatal:            func(err error) { panic(err) },
		tracer:           noop.NewTracerProvider().Tracer("dvar"),
		isMain:           func() bool { return true },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{
		arena:       make([]Variable, cfg.capacity),
		sorted:      make([]*Variable, 0, cfg.capacity),
		sortedValid: true,
		strings:     newStringPool(),
		tracker:     newTracker(cfg.callbackCapacity),
		events:      pubsub.NewBroker[ChangeEvent](),
		cheatsName:  cfg.cheatsName,
		hash:        cfg.hash,
		fatal:       cfg.fatal,
		diagnostics: cfg.diagnostics,
		tracer:      cfg.tracer,
		isMain:      cfg.isMain,
		strictNames: cfg.strictNames,
	}
	for i := range r.arena {
		r.arena[i].reg = r
	}
	r.canSetConfig.Store(true)
	return r
}

// Hash hashes name with the registry's hasher.
func (r *Registry) Hash(name string) uint32 {
	return r.hash(name)
}

func (r *Registry) span(name string, attrs ...attribute.KeyValue) func() {
	_, sp := r.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	return func() { sp.End() }
}

// Find returns the variable registered under name, or nil.
func (r *Registry) Find(name string) *Variable {
	if name == "" {
		return nil
	}
	return r.FindHash(r.hash(name))
}

// FindHash returns the variable whose name hashes to hash, or nil.
func (r *Registry) FindHash(hash uint32) *Variable {
	r.guard.LockRead()
	defer r.guard.UnlockRead()
	return r.findLocked(hash)
}

func (r *Registry) findLocked(hash uint32) *Variable {
	for v := r.buckets[bucketOf(hash)]; v != nil; v = v.hashNext {
		if v.hash == hash {
			return v
		}
	}
	return nil
}

// Count returns the number of live variables.
func (r *Registry) Count() int {
	r.guard.LockRead()
	defer r.guard.UnlockRead()
	return r.count
}

// Capacity returns the arena size.
func (r *Registry) Capacity() int {
	return len(r.arena)
}

// IsActive reports whether any variable has been registered since creation
// or the last Shutdown.
func (r *Registry) IsActive() bool {
	return r.active.Load()
}

// Events returns the change broker. Subscribers receive CreatedEvent on
// registration, UpdatedEvent when a current value changes, LatchedEvent when
// a value is deferred and DeletedEvent at shutdown.
func (r *Registry) Events() *pubsub.Broker[ChangeEvent] {
	return r.events
}

// StringStats reports string allocation accounting.
func (r *Registry) StringStats() StringStats {
	return r.strings.stats()
}

// sortedSnapshot returns the live variables in case-insensitive name order,
// re-sorting first if a registration invalidated the index.
func (r *Registry) sortedSnapshot() []*Variable {
	r.guard.LockRead()
	if r.sortedValid {
		out := slices.Clone(r.sorted)
		r.guard.UnlockRead()
		return out
	}
	r.guard.UnlockRead()

	r.guard.LockWrite()
	defer r.guard.UnlockWrite()
	if !r.sortedValid {
		end := r.span("dvar.sort", attribute.Int("dvar.count", len(r.sorted)))
		slices.SortFunc(r.sorted, func(a, b *Variable) int {
			return compareNames(a.Name(), b.Name())
		})
		r.sortedValid = true
		end()
	}
	return slices.Clone(r.sorted)
}

// ForEach calls fn for every live variable in ascending name order. fn runs
// outside the guard and may call back into the registry.
func (r *Registry) ForEach(fn func(*Variable)) {
	for _, v := range r.sortedSnapshot() {
		fn(v)
	}
}

// ForEachName calls fn with every live variable's name in ascending order.
func (r *Registry) ForEachName(fn func(string)) {
	for _, v := range r.sortedSnapshot() {
		fn(v.Name())
	}
}

// All returns the live variables in ascending name order. Each iteration
// takes a fresh snapshot, so the sequence is restartable.
func (r *Registry) All() iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		for _, v := range r.sortedSnapshot() {
			if !yield(v) {
				return
			}
		}
	}
}

// Names returns the live variable names in ascending order.
func (r *Registry) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range r.sortedSnapshot() {
			if !yield(v.Name()) {
				return
			}
		}
	}
}

// snapshot returns the live records in arena order.
func (r *Registry) snapshot() []*Variable {
	r.guard.LockRead()
	defer r.guard.UnlockRead()
	out := make([]*Variable, r.count)
	for i := range out {
		out[i] = &r.arena[i]
	}
	return out
}

// Shutdown releases every string, empties the arena and the hash table and
// marks the registry inactive. The registry may be reused afterwards.
func (r *Registry) Shutdown() {
	end := r.span("dvar.shutdown")
	defer end()

	r.guard.LockWrite()
	names := make([]string, 0, r.count)
	for i := 0; i < r.count; i++ {
		v := &r.arena[i]
		v.mu.Lock()
		names = append(names, v.name)
		v.releaseStrings()
		v.clearRecord()
		v.mu.Unlock()
	}
	released := r.count
	r.count = 0
	clear(r.buckets[:])
	r.sorted = r.sorted[:0]
	r.sortedValid = true
	r.cheats.Store(nil)
	r.modifiedFlags.Store(0)
	r.tracker.reset()
	r.active.Store(false)
	r.guard.UnlockWrite()

	for _, name := range names {
		r.events.Publish(pubsub.DeletedEvent, ChangeEvent{Name: name})
	}
	log.Info(log.CatDvar, "registry shut down", "released", released, "strings", r.strings.stats().Live())
}

// ModifiedFlags returns the union of the flags of every variable changed,
// or given a new pending latched value, since the last ClearModifiedFlags.
func (r *Registry) ModifiedFlags() Flags {
	return Flags(r.modifiedFlags.Load())
}

// ClearModifiedFlags removes f from the modified-flags mask.
func (r *Registry) ClearModifiedFlags(f Flags) {
	r.modifiedFlags.And(^uint32(f))
}

// AnyModified reports whether a variable carrying any of f has changed.
func (r *Registry) AnyModified(f Flags) bool {
	return r.ModifiedFlags().Any(f)
}

// CheatsEnabled reports the value of the cheats variable. Without one,
// cheats are off.
func (r *Registry) CheatsEnabled() bool {
	v := r.cheats.Load()
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.typ == TypeBool && v.current.b
}

// SetCanSetConfigDvars toggles whether config-restricted variables accept
// changes.
func (r *Registry) SetCanSetConfigDvars(allowed bool) {
	r.canSetConfig.Store(allowed)
}

// CanSetConfigDvars reports the config-write toggle.
func (r *Registry) CanSetConfigDvars() bool {
	return r.canSetConfig.Load()
}

// SetInAutoExec marks the start or end of auto-exec loading.
func (r *Registry) SetInAutoExec(in bool) {
	r.inAutoExec.Store(in)
}

// InAutoExec reports whether auto-exec loading is active.
func (r *Registry) InAutoExec() bool {
	return r.inAutoExec.Load()
}
