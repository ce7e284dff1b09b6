package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghsync/ghsync/internal/model"
)

// GetFileSyncState returns the recorded {hash, size, mtime} for path, or
// ErrNotFound if the path has never been synced.
func (s *Store) GetFileSyncState(ctx context.Context, path string) (*model.FileSyncState, error) {
	var (
		st           model.FileSyncState
		lastModified int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT path, content_hash, size, last_modified FROM file_sync_state WHERE path = ?`, path).
		Scan(&st.Path, &st.ContentHash, &st.Size, &lastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: get file_sync_state %s: %w", path, err)
	}

	st.LastModified = time.Unix(lastModified, 0).UTC()

	return &st, nil
}

// UpsertFileSyncState records path's current {hash, size, mtime}.
func (s *Store) UpsertFileSyncState(ctx context.Context, st *model.FileSyncState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_sync_state (path, content_hash, size, last_modified) VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				content_hash = excluded.content_hash,
				size = excluded.size,
				last_modified = excluded.last_modified`,
		st.Path, st.ContentHash, st.Size, st.LastModified.Unix())
	if err != nil {
		return fmt.Errorf("store: upsert file_sync_state %s: %w", st.Path, err)
	}

	return nil
}

// DeleteFileSyncState removes the recorded state for path, called when a
// managed file is deleted.
func (s *Store) DeleteFileSyncState(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_sync_state WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("store: delete file_sync_state %s: %w", path, err)
	}

	return nil
}
