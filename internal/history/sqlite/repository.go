// Package sqlite persists scan history in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

// Repository stores history entries in SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ history.Repository = (*Repository)(nil)

// New opens (or creates) the SQLite database at the provided path and ensures
// the schema exists.
func New(path string) (*Repository, error) {
	if path == "" {
		return nil, sharedErrors.ErrEmptyHistoryDSN
	}

	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("error creating history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, constants.DefaultDirPerm)
}

func initSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS scans (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	domain TEXT NOT NULL,
	score INTEGER NOT NULL,
	rating TEXT NOT NULL,
	scanned_at INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_domain ON scans (domain);
`
	_, err := db.Exec(ddl)
	return err
}

// Append inserts a new row. Scans of the same domain are never merged.
func (r *Repository) Append(ctx context.Context, result checker.ScanResult) (history.Entry, error) {
	entry := history.NewEntry(result, r.now())

	payload, err := json.Marshal(entry.Result)
	if err != nil {
		return history.Entry{}, fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}

	const query = `
INSERT INTO scans (id, domain, score, rating, scanned_at, recorded_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?);
`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		result.Domain,
		result.Score,
		string(result.Rating),
		result.ScannedAt.UTC().UnixNano(),
		entry.RecordedAt.UnixNano(),
		string(payload),
	)
	if err != nil {
		return history.Entry{}, fmt.Errorf("error during insert exec: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first.
func (r *Repository) List(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	const query = `
SELECT id, recorded_at, payload
FROM scans
ORDER BY seq DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing scans: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}
	return entries, nil
}

// Get fetches a single entry by ID.
func (r *Repository) Get(ctx context.Context, id string) (history.Entry, error) {
	if err := history.ValidateID(id); err != nil {
		return history.Entry{}, err
	}

	const query = `
SELECT id, recorded_at, payload
FROM scans
WHERE id = ?;
`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, sharedErrors.ErrEntryNotFound
	}
	return entry, err
}

// Close releases the underlying database resources.
func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var (
		entry    history.Entry
		recorded int64
		payload  string
	)
	if err := row.Scan(&entry.ID, &recorded, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, err
		}
		return history.Entry{}, fmt.Errorf("error fetching scan: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &entry.Result); err != nil {
		return history.Entry{}, fmt.Errorf("%w: scan %s: %v", sharedErrors.ErrDeserializationFailed, entry.ID, err)
	}
	entry.RecordedAt = time.Unix(0, recorded).UTC()
	return entry, nil
}
