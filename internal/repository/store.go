// Package repository persists parse jobs and extracted invoice records.
//
// Storage is database/sql over either embedded SQLite (the default, zero
// setup for CLI use) or PostgreSQL when the DSN says so. Extracted fields
// are stored as a JSON document; queries that need individual fields read
// the record's flat columns.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "modernc.org/sqlite"             // cgo-free SQLite driver

	"github.com/rmtsu9/OCRdocTH/internal/common"
)

// Store is the shared handle for all persistence. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string // "sqlite" | "pgx"
}

// Open connects per the DSN: postgres:// and postgresql:// URLs go to
// PostgreSQL, anything else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, common.NewAppError("DB_OPEN", "open postgres", err)
		}
		return initStore(&Store{db: db, driver: "pgx"})
	}
	return openSQLite(dsn)
}

func openSQLite(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(".", "ocrdocth.db")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.NewAppError("DB_OPEN", "create data directory", err)
		}
	}
	// WAL keeps concurrent batch writers from tripping over readers
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, common.NewAppError("DB_OPEN", "open sqlite", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_OPEN", "enable foreign keys", err)
	}
	return initStore(&Store{db: db, driver: "sqlite"})
}

func initStore(s *Store) (*Store, error) {
	if err := s.createSchema(context.Background()); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// PoolConfig bounds the database/sql connection pool. Zero values leave the
// driver defaults in place, which is right for single-shot CLI runs.
type PoolConfig struct {
	MaxConns        int
	MaxConnLifetime time.Duration
}

func (s *Store) ApplyPool(p PoolConfig) {
	if p.MaxConns > 0 {
		s.db.SetMaxOpenConns(p.MaxConns)
	}
	if p.MaxConnLifetime > 0 {
		s.db.SetConnMaxLifetime(p.MaxConnLifetime)
	}
}

// rebind converts ?-style placeholders to the $n style PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
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

func (s *Store) createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parse_jobs (
			id          TEXT PRIMARY KEY,
			source_file TEXT NOT NULL,
			format      TEXT NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_records (
			id           TEXT PRIMARY KEY,
			job_id       TEXT NOT NULL REFERENCES parse_jobs(id),
			source_file  TEXT NOT NULL,
			engine       TEXT NOT NULL,
			processed_at TIMESTAMP NOT NULL,
			incomplete   BOOLEAN NOT NULL,
			refined      BOOLEAN NOT NULL,
			score        REAL NOT NULL,
			fields_json  TEXT NOT NULL,
			ocr_text     TEXT NOT NULL DEFAULT '',
			llm_raw      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_records_processed_at
			ON invoice_records(processed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_jobs_status
			ON parse_jobs(status)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return common.NewAppError("DB_SCHEMA", "create schema", err)
		}
	}
	return nil
}

// sqlTime keeps timestamps comparable across both backends.
func sqlTime(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }
