// Package store records built gene panels in DuckDB so that many queries can
// be accumulated and exported as one panel.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding panel runs and their regions.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS panel_runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		query VARCHAR,
		gene VARCHAR,
		reference VARCHAR,
		reference_size BIGINT,
		reference_modtime TIMESTAMP,
		padding BIGINT,
		collapse_columns VARCHAR,
		region_count INTEGER
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS panel_regions (
		run_id VARCHAR,
		chrom VARCHAR,
		start BIGINT,
		end_ BIGINT,
		annotations VARCHAR
	)`)
	return err
}
