// Package duckdb provides a queryable store for the reference dataset.
// Samples are bulk-loaded with the Appender API and summarised in SQL.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding reference samples.
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
			return nil, fmt.Errorf("create database directory: %w", err)
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

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS reference_samples (
		sample VARCHAR,
		country VARCHAR,
		level_1 VARCHAR,
		level_2 VARCHAR,
		level_3 VARCHAR,
		level_4 VARCHAR,
		level_5 VARCHAR,
		snps INTEGER,
		gc DOUBLE,
		total_sequences BIGINT,
		avg_sequence_length DOUBLE,
		reads_mapped DOUBLE,
		coverage_depth DOUBLE,
		seq INTEGER
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS dataset_source (
		path VARCHAR,
		size BIGINT,
		mod_time_ns BIGINT
	)`)
	return err
}
