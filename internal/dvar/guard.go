package dvar

import (
	"sync"
	"sync/atomic"
)

// Guard is the reader/writer lock protecting registry structure: the bucket
// table, the arena count and the sorted index. Any number of readers may hold
// it at once; a writer waits for readers to drain and blocks new readers
// until it releases. Waiting blocks rather than spins.
//
// Guard does not protect variable values. Each Variable serializes its own
// value mutation.
type Guard struct {
	mu      sync.RWMutex
	readers atomic.Int32
	writing atomic.Bool
}

// LockRead acquires the guard in shared mode.
func (g *Guard) LockRead() {
	g.mu.RLock()
	g.readers.Add(1)
}

// UnlockRead releases a shared hold.
func (g *Guard) UnlockRead() {
	g.readers.Add(-1)
	g.mu.RUnlock()
}

// LockWrite acquires the guard exclusively.
func (g *Guard) LockWrite() {
	g.mu.Lock()
	g.writing.Store(true)
}

// UnlockWrite releases an exclusive hold.
func (g *Guard) UnlockWrite() {
	g.writing.Store(false)
	g.mu.Unlock()
}

// Readers returns the number of shared holders.
func (g *Guard) Readers() int {
	return int(g.readers.Load())
}

// Writing reports whether a writer holds the guard.
func (g *Guard) Writing() bool {
	return g.writing.Load()
}
