// Package store implements the Local Store: an embedded SQLite database
// holding the authoritative local copy of projects, milestones, issues,
// comments, and the bookkeeping tables (remote_links, sync_state,
// file_sync_state, action_queue) the rest of the sync pipeline reads and
// writes.
//
// Grounded on the teacher's internal/sync/baseline.go (connection
// discipline, upsert SQL idiom) and internal/sync/migrations.go (goose
// wiring), plus original_source/roadmap/adapters/persistence/
// sync_orchestrator.py for the safety-probe semantics.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// walJournalSizeLimit caps WAL file growth, matching the teacher's
// connection setup.
const walJournalSizeLimit = 64 * 1024 * 1024

// Store owns the database connection for one roadmap directory. Single
// writer per connection (db.SetMaxOpenConns(1)) — the same sole-writer
// discipline the teacher's BaselineManager uses, since SQLite rejects
// concurrent writers and this module has no need for one.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite database at dbPath, applies
// pragmas, and runs pending migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"+
			"&_pragma=journal_size_limit(%d)",
		dbPath, walJournalSizeLimit,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("local store initialized", slog.String("db_path", dbPath))

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying *sql.DB for components (the ledger) that
// need direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database connection, checkpointing the WAL first so
// a crash immediately after Close does not lose durable writes.
func (s *Store) Close() error {
	_, _ = s.db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Vacuum reclaims space from deleted rows, part of spec.md §4.3's
// maintenance contract.
func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// IsSafeForWrites reports whether the connection's journal mode is WAL.
// It is a cheap sanity read only: it does not detect writes from another
// process, does not scan managed files for conflict markers, and nothing
// in the sync path calls it before writing.
func (s *Store) IsSafeForWrites(ctx context.Context) (bool, error) {
	var walMode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&walMode); err != nil {
		return false, fmt.Errorf("store: safety probe: %w", err)
	}

	return walMode == "wal", nil
}
