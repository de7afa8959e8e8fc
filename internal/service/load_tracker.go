package service

import (
	"context"
	"sort"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// loadTracker: detached loads that shutdown waits on
// ─────────────────────────────────────────────────────────────

// loadTracker records which cache keys have an underlying load running.
// Loads outlive the callers that started them, so WaitAll is the only way
// to know they have finished.
type loadTracker struct {
	mu      sync.Mutex
	running map[string]int
	wg      sync.WaitGroup
}

// Begin marks a load for key as running. Every Begin needs one End.
func (g *loadTracker) Begin(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]int)
	}
	g.running[key]++
	g.wg.Add(1)
}

// End marks one load for key as finished.
func (g *loadTracker) End(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[key]--; g.running[key] <= 0 {
		delete(g.running, key)
	}
	g.wg.Done()
}

// Pending returns the keys with a running load, sorted.
func (g *loadTracker) Pending() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.running))
	for k := range g.running {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WaitAll blocks until all running loads complete or ctx is cancelled.
func (g *loadTracker) WaitAll(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
