package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/swdee/go-objsize"

	_ "modernc.org/sqlite"
)

// DefaultKey is the identifier the calibration value is stored under
const DefaultKey = "pixels_per_cm"

const schema = `CREATE TABLE IF NOT EXISTS calibration (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLite stores the calibration in a key value table so several scales (for
// example one per camera) can share a database file
type SQLite struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens or creates the database at path and prepares the
// calibration table
func OpenSQLite(path, key string) (*SQLite, error) {
	if key == "" {
		key = DefaultKey
	}

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("error executing %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating calibration table: %w", err)
	}

	return &SQLite{db: db, key: key}, nil
}

// Key returns the identifier the value is stored under
func (s *SQLite) Key() string {
	return s.key
}

// ReadScale returns the value stored under the key or objsize.ErrNoScale
func (s *SQLite) ReadScale() (float64, error) {

	var text string

	err := s.db.QueryRow(`SELECT value FROM calibration WHERE key = ?`, s.key).Scan(&text)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, objsize.ErrNoScale
	}

	if err != nil {
		return 0, fmt.Errorf("error querying calibration: %w", err)
	}

	v, err := strconv.ParseFloat(text, 64)

	if err != nil {
		return 0, fmt.Errorf("error parsing calibration %q: %w", text, err)
	}

	return v, nil
}

// WriteScale upserts the value under the key
func (s *SQLite) WriteScale(v float64) error {

	_, err := s.db.Exec(`INSERT INTO calibration (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, strconv.FormatFloat(v, 'f', -1, 64))

	if err != nil {
		return fmt.Errorf("error saving calibration: %w", err)
	}

	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
