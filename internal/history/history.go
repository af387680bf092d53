// Package history records voltup operations in a small SQLite database so
// the logs command can report what happened and when.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    package_count INTEGER NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
`

// Operation kinds recorded by the commands.
const (
	KindCheck    = "check"
	KindUpdate   = "update"
	KindInstall  = "install"
	KindRollback = "rollback"
	KindSnapshot = "snapshot"
)

// Operation is one recorded operation.
type Operation struct {
	ID           int64
	Kind         string
	PackageCount int
	Detail       string
	CreatedAt    time.Time
}

// Stats summarizes the operations table.
type Stats struct {
	Total   int
	ByKind  map[string]int
	Updates int
}

// Store provides SQLite-backed operation history.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the history database at dbPath and ensures the
// schema exists. Use ":memory:" in tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts one operation with the current timestamp.
func (s *Store) Record(kind string, packageCount int, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO operations (kind, package_count, detail, created_at) VALUES (?, ?, ?, ?)`,
		kind, packageCount, detail, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s operation: %w", kind, err)
	}
	return nil
}

// Recent returns the newest operations, most recent first.
func (s *Store) Recent(limit int) ([]*Operation, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, package_count, detail, created_at
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var operations []*Operation
	for rows.Next() {
		var op Operation
		var createdAt string
		if err := rows.Scan(&op.ID, &op.Kind, &op.PackageCount, &op.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse operation timestamp: %w", err)
		}
		operations = append(operations, &op)
	}

	return operations, rows.Err()
}

// Stats tallies the operations table by kind.
func (s *Store) Stats() (*Stats, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM operations GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByKind: make(map[string]int)}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan operation stats: %w", err)
		}
		stats.ByKind[kind] = count
		stats.Total += count
		if kind == KindUpdate {
			stats.Updates = count
		}
	}

	return stats, rows.Err()
}
