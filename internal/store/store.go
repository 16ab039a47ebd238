// Package store provides the SQLite-backed signature cache. Repeated
// scans skip frame extraction for files whose path, size, mtime, and
// scan parameters are unchanged.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilupskalvis/vdup/internal/models"
)

// Store represents the SQLite cache database
type Store struct {
	db *sql.DB
}

// CacheKey identifies one cached signature. A hit requires every field
// to match: a touched or resized file, or different scan parameters,
// miss and get rehashed.
type CacheKey struct {
	Path       string
	Size       int64
	ModUnix    int64
	HashSize   int
	Timestamps string
}

// EncodeTimestamps renders a timestamp list as a stable key segment
func EncodeTimestamps(ts []float64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// New creates a new cache connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the cache schema
func (s *Store) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signatures (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_unix INTEGER NOT NULL,
		hash_size INTEGER NOT NULL,
		timestamps TEXT NOT NULL,
		signature TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Get returns the cached signature for key when every key field matches
func (s *Store) Get(key CacheKey) (models.Signature, bool, error) {
	var (
		size, modUnix       int64
		hashSize            int
		timestamps, encoded string
	)
	err := s.db.QueryRow(
		`SELECT size, mod_unix, hash_size, timestamps, signature FROM signatures WHERE path = ?`,
		key.Path,
	).Scan(&size, &modUnix, &hashSize, &timestamps, &encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if size != key.Size || modUnix != key.ModUnix || hashSize != key.HashSize || timestamps != key.Timestamps {
		return nil, false, nil
	}

	sig, err := models.DecodeSignature(encoded)
	if err != nil {
		// a row that no longer parses is as good as a miss
		return nil, false, nil
	}
	return sig, true, nil
}

// Put inserts or replaces the cached signature for key
func (s *Store) Put(key CacheKey, sig models.Signature) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO signatures (path, size, mod_unix, hash_size, timestamps, signature)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key.Path, key.Size, key.ModUnix, key.HashSize, key.Timestamps, sig.Encode(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache signature for %s: %w", key.Path, err)
	}
	return nil
}

// Clear removes all cached signatures and returns how many were removed
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM signatures`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached signatures
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM signatures`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
