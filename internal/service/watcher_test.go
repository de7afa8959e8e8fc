package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixtures/internal/reader"
	"fixtures/internal/source"
)

func TestWatcher_FileChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"id": 1}]`), 0o644))

	p := newProvider(t, providerConfig{read: reader.FS(osfs.New(dir)), ttl: time.Hour})
	w, err := NewWatcher(dir, nil, p.Invalidate)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	t.Cleanup(func() { w.Close() })
	p.Watch(w)

	d := source.Descriptor{Path: "users.json", Format: source.FormatJSON}
	c, err := p.LoadSource(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, c, 1)

	require.NoError(t, os.WriteFile(file, []byte(`[{"id": 1}, {"id": 2}]`), 0o644))
	require.Eventually(t, func() bool { return !p.cache.Has(d.Key()) }, 2*time.Second, 10*time.Millisecond)

	c, err = p.LoadSource(context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, c, 2)
}

func TestWatcher_IgnoresNonLocalPaths(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(p string) bool { return false }, func(string) int { return 0 })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Track("https://example.com/users.json"))
	assert.Empty(t, w.paths)
	assert.Empty(t, w.dirs)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(file, []byte("id\n1\n"), 0o644))

	var calls atomic.Int64
	w, err := NewWatcher(dir, nil, func(string) int { calls.Add(1); return 1 })
	require.NoError(t, err)
	w.debounce = 100 * time.Millisecond
	defer w.Close()
	require.NoError(t, w.Track("data.csv"))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("id\n1\n2\n"), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestWatcher_CloseIsSafeWithPendingTimers(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, func(string) int { return 0 })
	require.NoError(t, err)
	w.schedule("/nowhere")
	assert.NoError(t, w.Close())
}

// ── Scheduler ──────────────────────────────────────────────

func TestStartPruneSchedule_InvalidSpec(t *testing.T) {
	_, err := StartPruneSchedule("every tuesday", func() int { return 0 })
	assert.Error(t, err)
}

func TestStartPruneSchedule_RunsPrune(t *testing.T) {
	var runs atomic.Int64
	s, err := StartPruneSchedule("@every 1s", func() int { runs.Add(1); return 0 })
	require.NoError(t, err)
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopNilIsSafe(t *testing.T) {
	var s *Scheduler
	s.Stop()
}

// ── loadTracker ────────────────────────────────────────────

func TestLoadTracker_Pending(t *testing.T) {
	var g loadTracker
	g.Begin("b")
	g.Begin("a")
	g.Begin("a")
	assert.Equal(t, []string{"a", "b"}, g.Pending())

	g.End("a")
	assert.Equal(t, []string{"a", "b"}, g.Pending())
	g.End("a")
	g.End("b")
	assert.Empty(t, g.Pending())
}

func TestLoadTracker_WaitAll(t *testing.T) {
	var g loadTracker
	g.Begin("job-a")

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.End("job-a")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, g.WaitAll(ctx))
}

func TestLoadTracker_WaitAllHonoursContext(t *testing.T) {
	var g loadTracker
	g.Begin("stuck")
	defer g.End("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.WaitAll(ctx), context.DeadlineExceeded)
}

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &MockEmitter{}
	m.Emit(context.Background(), EventCacheCleared, nil)
	m.Emit(context.Background(), EventCachePruned, map[string]any{"entries": 2})

	events := m.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventCachePruned, events[1].Event)
	assert.Equal(t, 2, events[1].Data["entries"])
}
