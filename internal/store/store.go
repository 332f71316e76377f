// Package store handles SQLite persistence.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/rangebook/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInUse is returned when deleting a record that other records still reference.
var ErrInUse = errors.New("still referenced")

// Store wraps SQLite access for logbook data.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS guns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			caliber TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ammo (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			caliber TEXT NOT NULL,
			price_per_round REAL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			gun_id TEXT NOT NULL REFERENCES guns(id),
			ammo_id TEXT NOT NULL REFERENCES ammo(id),
			date TEXT NOT NULL,
			shots INTEGER NOT NULL,
			hits INTEGER,
			distance_m REAL,
			group_cm REAL,
			cost REAL,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS maintenance (
			id TEXT PRIMARY KEY,
			gun_id TEXT NOT NULL REFERENCES guns(id),
			date TEXT NOT NULL,
			activities TEXT NOT NULL,
			notes TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS rates (
			code TEXT PRIMARY KEY,
			rate REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			rounds_limit INTEGER NOT NULL,
			days_limit INTEGER NOT NULL,
			display_currency TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_gun_date ON sessions(gun_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);`,
		`CREATE INDEX IF NOT EXISTS idx_maintenance_gun_date ON maintenance(gun_id, date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func parseDate(v string) (time.Time, error) {
	parsed, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", v, err)
	}
	return parsed, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
