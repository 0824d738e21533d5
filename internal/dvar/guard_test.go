package dvar

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestGuard_ReadersShare(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	held := make(chan struct{})
	release := make(chan struct{})

	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.LockRead()
			held <- struct{}{}
			<-release
			g.UnlockRead()
		}()
	}
	for range 3 {
		<-held
	}
	require.Equal(t, 3, g.Readers())
	require.False(t, g.Writing())

	close(release)
	wg.Wait()
	require.Zero(t, g.Readers())
}

func TestGuard_WriterWaitsForReaders(t *testing.T) {
	var g Guard
	g.LockRead()

	acquired := make(chan struct{})
	go func() {
		g.LockWrite()
		close(acquired)
	}()

	require.Never(t, func() bool { return closed(acquired) }, 50*time.Millisecond, 5*time.Millisecond)
	require.False(t, g.Writing())
	require.Equal(t, 1, g.Readers())

	g.UnlockRead()
	require.Eventually(t, func() bool { return closed(acquired) }, time.Second, time.Millisecond)
	require.True(t, g.Writing())
	require.Zero(t, g.Readers())

	g.UnlockWrite()
	require.False(t, g.Writing())
}

func TestGuard_WriterBlocksNewReaders(t *testing.T) {
	var g Guard
	g.LockWrite()

	acquired := make(chan struct{})
	go func() {
		g.LockRead()
		close(acquired)
	}()

	require.Never(t, func() bool { return closed(acquired) }, 50*time.Millisecond, 5*time.Millisecond)
	require.Zero(t, g.Readers())

	g.UnlockWrite()
	require.Eventually(t, func() bool { return closed(acquired) }, time.Second, time.Millisecond)
	require.Equal(t, 1, g.Readers())
	require.False(t, g.Writing())
	g.UnlockRead()
}

func TestGuard_WritersExclude(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	var mu sync.Mutex
	overlaps := 0
	inside := 0

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				g.LockWrite()
				mu.Lock()
				inside++
				if inside > 1 || g.Readers() != 0 {
					overlaps++
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				g.UnlockWrite()

				g.LockRead()
				if g.Writing() {
					mu.Lock()
					overlaps++
					mu.Unlock()
				}
				g.UnlockRead()
			}
		}()
	}
	wg.Wait()
	require.Zero(t, overlaps)
}
