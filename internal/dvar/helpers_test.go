package dvar

import (
	"sync"
	"testing"
)

type diagRecorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (d *diagRecorder) record(diag Diagnostic) {
	d.mu.Lock()
	d.diags = append(d.diags, diag)
	d.mu.Unlock()
}

func (d *diagRecorder) kinds() []DiagnosticKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DiagnosticKind, len(d.diags))
	for i, diag := range d.diags {
		out[i] = diag.Kind
	}
	return out
}

func (d *diagRecorder) has(kind DiagnosticKind) bool {
	for _, k := range d.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func (d *diagRecorder) reset() {
	d.mu.Lock()
	d.diags = nil
	d.mu.Unlock()
}

// newTestRegistry returns a small registry whose diagnostics are recorded.
// The registry is shut down when the test completes.
func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *diagRecorder) {
	t.Helper()
	rec := &diagRecorder{}
	opts = append([]Option{WithCapacity(64), WithDiagnostics(rec.record)}, opts...)
	reg := New(opts...)
	t.Cleanup(reg.Shutdown)
	return reg, rec
}
