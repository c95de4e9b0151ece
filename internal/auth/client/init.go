package client

import (
	"sync"
	"sync/atomic"
)

// Guard is the lazy one-time initialization shared by every client
// variant. Ensure runs fn exactly once across concurrent callers; a
// failed fn leaves the guard uninitialized so a later call can retry.
// Reinit reruns fn unconditionally, serialized against everything else.
//
// The ready flag is only set after fn returns nil, under the mutex, so
// every caller that observes ready also observes a fully-initialized
// client.
type Guard struct {
	mu    sync.Mutex
	ready atomic.Bool
}

// Ensure initializes once. Concurrent callers block until the first
// initialization finishes.
func (g *Guard) Ensure(fn func() error) error {
	if g.ready.Load() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready.Load() {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	g.ready.Store(true)
	return nil
}

// Reinit reruns fn unconditionally. The ready flag drops before fn runs,
// so Ensure's fast path cannot let a caller proceed mid-reinitialization;
// it comes back only after fn succeeds. On failure the guard stays
// uninitialized.
func (g *Guard) Reinit(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready.Store(false)
	if err := fn(); err != nil {
		return err
	}
	g.ready.Store(true)
	return nil
}

// Initialized reports whether a successful initialization happened.
func (g *Guard) Initialized() bool { return g.ready.Load() }
