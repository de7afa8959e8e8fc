package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"fixtures/internal/record"
)

// dialect captures the few statements that differ between SQL drivers.
type dialect struct {
	driverName string
	recordsCol string // column type able to hold a large JSON document
	upsert     string
}

var (
	dialectSQLite = dialect{
		driverName: "sqlite",
		recordsCol: "TEXT",
		upsert: `INSERT INTO snapshots (name, records, record_count, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET records = excluded.records,
			record_count = excluded.record_count, created_at = excluded.created_at`,
	}
	dialectPostgres = dialect{
		driverName: "postgres",
		recordsCol: "TEXT",
		upsert: `INSERT INTO snapshots (name, records, record_count, created_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE SET records = EXCLUDED.records,
			record_count = EXCLUDED.record_count, created_at = EXCLUDED.created_at`,
	}
	dialectMySQL = dialect{
		driverName: "mysql",
		recordsCol: "LONGTEXT",
		upsert: `INSERT INTO snapshots (name, records, record_count, created_at) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE records = VALUES(records),
			record_count = VALUES(record_count), created_at = VALUES(created_at)`,
	}
)

// rebind rewrites "?" placeholders into "$N" for postgres.
func (d dialect) rebind(query string) string {
	if d.driverName != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore keeps snapshots in a relational table.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func openSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = "fixtures.db"
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	s, err := openSQL(ctx, dialectSQLite, dsn)
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			name VARCHAR(255) PRIMARY KEY,
			records ` + s.dialect.recordsCol + ` NOT NULL,
			record_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, name string, c record.Collection) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert, name, string(data), len(c), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, name string) (string, error) {
	var records string
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT records FROM snapshots WHERE name = ?`), name,
	).Scan(&records)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return records, nil
}

func (s *SQLStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, record_count, created_at FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Name, &info.RecordCount, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM snapshots WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
