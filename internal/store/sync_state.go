package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ghsync/ghsync/internal/model"
)

// GetSyncState returns the raw value stored under key, or ("", false) if absent.
func (s *Store) GetSyncState(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("store: get sync_state %s: %w", key, err)
	}

	return value, true, nil
}

// SetSyncState upserts key/value.
func (s *Store) SetSyncState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: set sync_state %s: %w", key, err)
	}

	return nil
}

// LastSyncedCommit and SetLastSyncedCommit satisfy internal/vcs.SyncState,
// backing the Change Monitor's incremental-diff bookkeeping with the
// sync_state table rather than a flat file.
func (s *Store) LastSyncedCommit(ctx context.Context) (string, bool, error) {
	return s.GetSyncState(ctx, model.KVLastSyncedCommit)
}

func (s *Store) SetLastSyncedCommit(ctx context.Context, commit string) error {
	return s.SetSyncState(ctx, model.KVLastSyncedCommit, commit)
}
