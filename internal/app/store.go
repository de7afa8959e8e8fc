package app

import (
	"context"
	"sync"

	"fixtures/internal/record"
	"fixtures/internal/storage"
)

// lazyStore opens the snapshot store on first use, so commands that never
// touch snapshots do not create a database.
type lazyStore struct {
	driver, dsn, database string

	mu    sync.Mutex
	store storage.Store
}

func newLazyStore(driver, dsn, database string) *lazyStore {
	return &lazyStore{driver: driver, dsn: dsn, database: database}
}

func (l *lazyStore) get(ctx context.Context) (storage.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	s, err := storage.Open(ctx, l.driver, l.dsn, l.database)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

func (l *lazyStore) Save(ctx context.Context, name string, c record.Collection) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Save(ctx, name, c)
}

func (l *lazyStore) Load(ctx context.Context, name string) (string, error) {
	s, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return s.Load(ctx, name)
}

func (l *lazyStore) List(ctx context.Context) ([]storage.SnapshotInfo, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (l *lazyStore) Delete(ctx context.Context, name string) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, name)
}

// Close closes the store if it was ever opened.
func (l *lazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
