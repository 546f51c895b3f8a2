package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is the sortable textual form timestamps are stored in.
const timeLayout = time.RFC3339Nano

// Record is the durable metadata for a session. It survives process
// restarts; it knows nothing about document internals.
type Record struct {
	ID           string
	Filename     string
	StoragePath  string
	CreatedAt    time.Time
	LastModified time.Time
}

// Store is the durable session table, keyed by session id.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the session database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_modified TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces the record for its session id.
func (s *Store) Save(rec Record) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (session_id, filename, storage_path, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Filename,
		rec.StoragePath,
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.LastModified.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrStorage, rec.ID, err)
	}
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id string) (Record, error) {
	row := s.db.QueryRow(
		`SELECT session_id, filename, storage_path, created_at, last_modified
		 FROM sessions WHERE session_id = ?`, id)

	var rec Record
	var createdAt, lastModified string
	err := row.Scan(&rec.ID, &rec.Filename, &rec.StoragePath, &createdAt, &lastModified)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: get %s: %v", ErrStorage, id, err)
	}

	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Record{}, fmt.Errorf("%w: get %s: bad created_at: %v", ErrStorage, id, err)
	}
	if rec.LastModified, err = time.Parse(timeLayout, lastModified); err != nil {
		return Record{}, fmt.Errorf("%w: get %s: bad last_modified: %v", ErrStorage, id, err)
	}
	return rec, nil
}

// Delete removes the record for id. Deleting a non-existent id is not an error.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStorage, id, err)
	}
	return nil
}

// ListAll returns every record, unordered. Used by the reaper.
func (s *Store) ListAll() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT session_id, filename, storage_path, created_at, last_modified FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStorage, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt, lastModified string
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.StoragePath, &createdAt, &lastModified); err != nil {
			return nil, fmt.Errorf("%w: list: %v", ErrStorage, err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("%w: list: bad created_at for %s: %v", ErrStorage, rec.ID, err)
		}
		if rec.LastModified, err = time.Parse(timeLayout, lastModified); err != nil {
			return nil, fmt.Errorf("%w: list: bad last_modified for %s: %v", ErrStorage, rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStorage, err)
	}
	return records, nil
}

// UpdateLastModified sets the last-modified timestamp for id.
// Unlike Delete, updating a non-existent id is an error.
func (s *Store) UpdateLastModified(id string, ts time.Time) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET last_modified = ? WHERE session_id = ?`,
		ts.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrStorage, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrStorage, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
