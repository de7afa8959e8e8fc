package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"fixtures/internal/cache"
	"fixtures/internal/generate"
	"fixtures/internal/logging"
	"fixtures/internal/query"
	"fixtures/internal/reader"
	"fixtures/internal/record"
	"fixtures/internal/schema"
	"fixtures/internal/source"
	"fixtures/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// DataProvider
// ─────────────────────────────────────────────────────────────

// ErrNoStore is returned by snapshot operations when no store is configured.
var ErrNoStore = errors.New("no snapshot store configured")

// Options holds the optional collaborators of a DataProvider.
type Options struct {
	// TTL applied to every loaded collection; zero never expires.
	TTL time.Duration

	// Store backs the snapshot operations. Nil disables them.
	Store storage.Store

	Emitter EventEmitter
}

// DataProvider loads, caches, queries, validates and generates fixture data.
// Its cache and registries are fixed at construction.
type DataProvider struct {
	loader     *source.Loader
	cache      *cache.Cache
	validator  *schema.Validator
	generators *generate.Registry
	store      storage.Store
	ttl        time.Duration

	group singleflight.Group
	loads loadTracker

	mu      sync.RWMutex
	emitter EventEmitter
	watcher *Watcher
}

// NewDataProvider wires a DataProvider around its collaborators. The
// generator registry is frozen: scenarios must be registered before this call.
func NewDataProvider(
	loader *source.Loader,
	c *cache.Cache,
	validator *schema.Validator,
	generators *generate.Registry,
	opts Options,
) *DataProvider {
	emitter := opts.Emitter
	if emitter == nil {
		emitter = nopEmitter{}
	}
	generators.Freeze()
	return &DataProvider{
		loader:     loader,
		cache:      c,
		validator:  validator,
		generators: generators,
		store:      opts.Store,
		ttl:        opts.TTL,
		emitter:    emitter,
	}
}

// SetEmitter replaces the event emitter. A nil emitter drops events.
func (p *DataProvider) SetEmitter(e EventEmitter) {
	if e == nil {
		e = nopEmitter{}
	}
	p.mu.Lock()
	p.emitter = e
	p.mu.Unlock()
}

// Watch makes every later successful load register its path with w.
func (p *DataProvider) Watch(w *Watcher) {
	p.mu.Lock()
	p.watcher = w
	p.mu.Unlock()
}

func (p *DataProvider) emit(ctx context.Context, event string, data map[string]any) {
	p.mu.RLock()
	e := p.emitter
	p.mu.RUnlock()
	e.Emit(ctx, event, data)
}

// ── Loading ────────────────────────────────────────────────

// LoadSource returns the collection described by d, from the cache when a
// live entry exists. Concurrent calls for the same descriptor share one
// underlying load. If ctx ends first the caller gets ctx.Err() while the
// load carries on and still fills the cache.
//
// The returned collection is shared with the cache and must not be mutated.
func (p *DataProvider) LoadSource(ctx context.Context, d source.Descriptor) (record.Collection, error) {
	key := d.Key()
	if e, ok := p.cache.Get(key); ok {
		return e.Value, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return p.load(detached, key, d)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(record.Collection), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *DataProvider) load(ctx context.Context, key string, d source.Descriptor) (record.Collection, error) {
	// A flight that started just after another one finished finds its result here.
	if e, ok := p.cache.Peek(key); ok {
		return e.Value, nil
	}

	p.loads.Begin(key)
	defer p.loads.End(key)

	logger := logging.WithFields(ctx,
		"load_id", uuid.NewString(),
		"path", d.Path,
		"format", d.Format,
		"environment", d.Environment,
	)
	start := time.Now()

	c, err := p.loader.Load(ctx, d)
	if err != nil {
		logger.Warn("source load failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	p.cache.Set(key, c, p.ttl)
	logger.Info("source loaded", "records", len(c), "duration", time.Since(start))

	p.mu.RLock()
	w := p.watcher
	p.mu.RUnlock()
	if w != nil {
		if err := w.Track(d.Path); err != nil {
			logger.Warn("fixture watcher: track failed", "error", err)
		}
	}

	p.emit(ctx, EventSourceLoaded, map[string]any{
		"key":     key,
		"path":    d.Path,
		"records": len(c),
	})
	return c, nil
}

// LoadValidated loads d and validates every record against rule.
func (p *DataProvider) LoadValidated(ctx context.Context, d source.Descriptor, rule string) (record.Collection, []schema.Result, error) {
	c, err := p.LoadSource(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	return c, p.ValidateAll(c, rule), nil
}

// WaitLoads blocks until every running load has finished or ctx ends.
func (p *DataProvider) WaitLoads(ctx context.Context) error {
	return p.loads.WaitAll(ctx)
}

// PendingLoads returns the cache keys with a load in progress.
func (p *DataProvider) PendingLoads() []string {
	return p.loads.Pending()
}

// ── Query / Validate ───────────────────────────────────────

// Query evaluates spec against c. It never mutates c.
func (p *DataProvider) Query(c record.Collection, spec query.Spec) (record.Collection, error) {
	return query.Evaluate(c, spec)
}

// QuerySource loads d and evaluates spec against it.
func (p *DataProvider) QuerySource(ctx context.Context, d source.Descriptor, spec query.Spec) (record.Collection, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	c, err := p.LoadSource(ctx, d)
	if err != nil {
		return nil, err
	}
	return query.Evaluate(c, spec)
}

// Validate checks rec against the named rule. Failures are data, not errors.
func (p *DataProvider) Validate(rec record.Record, rule string) schema.Result {
	return p.validator.Validate(rec, rule)
}

// ValidateAll validates every record of c against rule, in order.
func (p *DataProvider) ValidateAll(c record.Collection, rule string) []schema.Result {
	results := make([]schema.Result, len(c))
	for i, rec := range c {
		results[i] = p.validator.Validate(rec, rule)
	}
	return results
}

// Rules lists the registered validation rules.
func (p *DataProvider) Rules() []string {
	return p.validator.Rules()
}

// ── Generation ─────────────────────────────────────────────

// Generated is the output of GenerateData. Results is empty when no rule
// was requested, otherwise it holds one result per record.
type Generated struct {
	Records record.Collection `json:"records"`
	Results []schema.Result   `json:"results,omitempty"`
}

// Valid reports whether every validated record passed.
func (g Generated) Valid() bool {
	for _, r := range g.Results {
		if !r.IsValid {
			return false
		}
	}
	return true
}

// GenerateData runs the named scenario. A nil seed picks a random one.
// A non-empty rule validates each produced record.
func (p *DataProvider) GenerateData(scenario string, count int, seed *int64, rule string) (Generated, error) {
	c, err := p.generators.Generate(scenario, count, seed)
	if err != nil {
		return Generated{}, err
	}
	out := Generated{Records: c}
	if rule != "" {
		out.Results = p.ValidateAll(c, rule)
	}
	return out, nil
}

// Scenarios lists the registered generators.
func (p *DataProvider) Scenarios() []string {
	return p.generators.Names()
}

// ── Cache administration ───────────────────────────────────

// CacheStats returns the cache counters.
func (p *DataProvider) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// ClearCache drops every cached collection. Counters are kept.
func (p *DataProvider) ClearCache() {
	p.cache.Clear()
	p.emit(context.Background(), EventCacheCleared, nil)
}

// Invalidate drops every cached entry loaded from path, whatever its
// format, environment or selector, and returns how many were dropped.
func (p *DataProvider) Invalidate(path string) int {
	n := p.cache.DeleteFunc(func(key string) bool {
		return source.KeyPath(key) == path
	})
	if n > 0 {
		p.emit(context.Background(), EventSourceInvalidated, map[string]any{"path": path, "entries": n})
	}
	return n
}

// Prune removes expired entries and returns how many were removed.
func (p *DataProvider) Prune() int {
	n := p.cache.Prune()
	if n > 0 {
		p.emit(context.Background(), EventCachePruned, map[string]any{"entries": n})
	}
	return n
}

// ── Snapshots ──────────────────────────────────────────────

// Snapshot loads d and saves the collection under name.
func (p *DataProvider) Snapshot(ctx context.Context, name string, d source.Descriptor) (storage.SnapshotInfo, error) {
	if p.store == nil {
		return storage.SnapshotInfo{}, ErrNoStore
	}
	c, err := p.LoadSource(ctx, d)
	if err != nil {
		return storage.SnapshotInfo{}, err
	}
	if err := p.store.Save(ctx, name, c); err != nil {
		return storage.SnapshotInfo{}, fmt.Errorf("save snapshot %s: %w", name, err)
	}
	logging.FromContext(ctx).Info("snapshot saved", "name", name, "records", len(c), "source", d.String())
	return storage.SnapshotInfo{Name: name, RecordCount: len(c), CreatedAt: time.Now().UTC()}, nil
}

// ListSnapshots returns the stored snapshots ordered by name.
func (p *DataProvider) ListSnapshots(ctx context.Context) ([]storage.SnapshotInfo, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.List(ctx)
}

// DeleteSnapshot removes a stored snapshot and any cached load of it.
func (p *DataProvider) DeleteSnapshot(ctx context.Context, name string) error {
	if p.store == nil {
		return ErrNoStore
	}
	if err := p.store.Delete(ctx, name); err != nil {
		return err
	}
	p.Invalidate(reader.SnapshotScheme + name)
	return nil
}
