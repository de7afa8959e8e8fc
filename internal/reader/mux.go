package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"fixtures/internal/source"
	"fixtures/internal/storage"
)

// SnapshotScheme prefixes paths served from the snapshot store.
const SnapshotScheme = "results://"

// SnapshotLoader is the read side of storage.Store.
type SnapshotLoader interface {
	Load(ctx context.Context, name string) (string, error)
}

// Snapshots serves "results://<name>" paths from a snapshot store.
func Snapshots(store SnapshotLoader) source.ReadFunc {
	return func(ctx context.Context, path string) (string, error) {
		name := strings.TrimPrefix(path, SnapshotScheme)
		text, err := store.Load(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", err, fs.ErrNotExist)
		}
		return text, err
	}
}

// Mux dispatches a path to the reader registered for its scheme prefix.
// Paths without a matching prefix go to the fallback reader.
type Mux struct {
	routes   map[string]source.ReadFunc
	fallback source.ReadFunc
}

// NewMux creates a Mux with the given fallback (usually the filesystem reader).
func NewMux(fallback source.ReadFunc) *Mux {
	return &Mux{routes: make(map[string]source.ReadFunc), fallback: fallback}
}

// Handle registers read for paths starting with prefix, e.g. "https://".
func (m *Mux) Handle(prefix string, read source.ReadFunc) *Mux {
	m.routes[prefix] = read
	return m
}

// Read implements source.ReadFunc. The longest matching prefix wins.
func (m *Mux) Read(ctx context.Context, path string) (string, error) {
	prefixes := make([]string, 0, len(m.routes))
	for p := range m.routes {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return m.routes[p](ctx, path)
		}
	}
	if m.fallback == nil {
		return "", fmt.Errorf("no reader for %s: %w", path, fs.ErrNotExist)
	}
	return m.fallback(ctx, path)
}

// IsLocal reports whether path is served by the fallback reader.
func (m *Mux) IsLocal(path string) bool {
	for p := range m.routes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}
