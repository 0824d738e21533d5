package dvar

import (
	"errors"
	"fmt"

	"github.com/zjrosen/dvars/internal/log"
)

// Fatal registry conditions. They are passed to the fatal handler, which
// panics unless replaced with WithFatalHandler.
var (
	ErrCapacityExceeded = errors.New("dvar registry capacity exceeded")
	ErrHashCollision    = errors.New("dvar name hash collision")
)

// DiagnosticKind classifies a non-fatal condition reported by the registry.
type DiagnosticKind int

const (
	// DiagRejected is a value that could not be used and fell back to reset.
	DiagRejected DiagnosticKind = iota
	// DiagPermissionDenied is a mutation blocked by flags.
	DiagPermissionDenied
	// DiagTypeMismatch is an accessor converting from another type.
	DiagTypeMismatch
	// DiagNotFound is a lookup by name that found nothing.
	DiagNotFound
	// DiagLatched is a change deferred until the latched value is applied.
	DiagLatched
	// DiagInvalidName is a registration with a malformed name.
	DiagInvalidName
	// DiagCallbackPoolFull is a callback that could not be attached.
	DiagCallbackPoolFull
	// DiagClamped is an out-of-domain value forced into the domain.
	DiagClamped
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagRejected:
		return "rejected"
	case DiagPermissionDenied:
		return "permission-denied"
	case DiagTypeMismatch:
		return "type-mismatch"
	case DiagNotFound:
		return "not-found"
	case DiagLatched:
		return "latched"
	case DiagInvalidName:
		return "invalid-name"
	case DiagCallbackPoolFull:
		return "callback-pool-full"
	case DiagClamped:
		return "clamped"
	default:
		return "unknown"
	}
}

// Diagnostic is a structured report of a condition handled locally by the
// registry. Mutations that produce one still return normally.
type Diagnostic struct {
	Kind    DiagnosticKind
	Name    string
	Message string
}

func (r *Registry) diag(kind DiagnosticKind, name, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch kind {
	case DiagLatched, DiagNotFound:
		log.Info(log.CatDvar, msg, "dvar", name, "kind", kind)
	default:
		log.Warn(log.CatDvar, msg, "dvar", name, "kind", kind)
	}
	if r.diagnostics != nil {
		r.diagnostics(Diagnostic{Kind: kind, Name: name, Message: msg})
	}
}

func (r *Registry) fatalf(sentinel error, format string, args ...any) {
	err := fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
	log.ErrorErr(log.CatDvar, "fatal registry error", err)
	r.fatal(err)
}
