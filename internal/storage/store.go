package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fixtures/internal/record"
)

// ErrNotFound is returned when a snapshot name has no stored entry.
var ErrNotFound = errors.New("snapshot not found")

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongoDB  = "mongodb"
)

// SnapshotInfo describes a stored snapshot without its records.
type SnapshotInfo struct {
	Name        string    `json:"name"`
	RecordCount int       `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists named collections so later runs can load them back as
// "results://<name>" sources.
type Store interface {
	// Save stores c under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, c record.Collection) error

	// Load returns the raw JSON array stored under name.
	Load(ctx context.Context, name string) (string, error)

	// List returns every snapshot ordered by name.
	List(ctx context.Context) ([]SnapshotInfo, error)

	// Delete removes a snapshot. Deleting a missing name returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	Close() error
}

// Open creates a Store for the given driver. database is only used by MongoDB.
// MySQL DSNs need parseTime=true for List to scan created_at.
func Open(ctx context.Context, driver, dsn, database string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		return openSQLite(ctx, dsn)
	case DriverPostgres, "postgresql":
		return openSQL(ctx, dialectPostgres, dsn)
	case DriverMySQL:
		return openSQL(ctx, dialectMySQL, dsn)
	case DriverMongoDB, "mongo":
		return openMongo(ctx, dsn, database)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("snapshot name is required")
	}
	return nil
}
