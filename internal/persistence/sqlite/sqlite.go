// Package sqlite implements the directory store over an embedded SQLite
// database. Every document row carries a version counter; updates assert the
// version read at fetch time so concurrent writers cannot silently clobber
// each other.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store owns the database handle and hands out repositories bound to it.
type Store struct {
	pool *ConnectionPool
}

// Open creates a store for the given SQLite DSN.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		modules       TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		version       INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_students_name ON students(name)`,
	`CREATE TABLE IF NOT EXISTS lecturers (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		modules       TEXT NOT NULL,
		lectures      TEXT NOT NULL,
		bookings      TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		version       INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_lecturers_name ON lecturers(name)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		lecturer   TEXT NOT NULL DEFAULT '',
		module     TEXT NOT NULL DEFAULT '',
		students   TEXT NOT NULL DEFAULT '[]',
		started_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version    INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS lectures (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		module       TEXT NOT NULL,
		lecturer     TEXT NOT NULL,
		lecture_date TEXT NOT NULL,
		lecture_time TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_lectures_title ON lectures(title)`,
}

// Migrate applies the schema. It is idempotent and safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(raw), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}
