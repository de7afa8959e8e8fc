package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter
// ─────────────────────────────────────────────────────────────

// Provider events.
const (
	EventSourceLoaded      = "source:loaded"
	EventSourceInvalidated = "source:invalidated"
	EventCacheCleared      = "cache:cleared"
	EventCachePruned       = "cache:pruned"
)

// EventEmitter receives provider events. The MCP server forwards them to
// connected clients as notifications.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, map[string]any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  map[string]any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, EmittedEvent{Event: event, Data: data})
}

// Events returns a copy of the recorded emissions.
func (m *MockEmitter) Events() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmittedEvent(nil), m.events...)
}
