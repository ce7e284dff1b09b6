package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghsync/ghsync/internal/model"
)

// UpsertRemoteLink records the {local entity, remote id} binding for
// backend, used by the detector's ID-collision check and the executor's
// link action.
func (s *Store) UpsertRemoteLink(ctx context.Context, l *model.RemoteLink) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO remote_links (local_entity_id, entity_type, backend_name, remote_id, last_sync)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(local_entity_id, entity_type, backend_name) DO UPDATE SET
				remote_id = excluded.remote_id,
				last_sync = excluded.last_sync`,
		l.LocalEntityID, l.EntityType, l.BackendName, l.RemoteID, l.LastSync.Unix())
	if err != nil {
		return fmt.Errorf("store: upsert remote_link %s/%s: %w", l.EntityType, l.LocalEntityID, err)
	}

	return nil
}

// GetRemoteLink returns the link for (localEntityID, entityType,
// backendName), or ErrNotFound.
func (s *Store) GetRemoteLink(ctx context.Context, localEntityID, entityType, backendName string) (*model.RemoteLink, error) {
	var (
		l        model.RemoteLink
		lastSync int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT local_entity_id, entity_type, backend_name, remote_id, last_sync
			FROM remote_links WHERE local_entity_id = ? AND entity_type = ? AND backend_name = ?`,
		localEntityID, entityType, backendName).
		Scan(&l.LocalEntityID, &l.EntityType, &l.BackendName, &l.RemoteID, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: get remote_link %s/%s: %w", entityType, localEntityID, err)
	}

	l.LastSync = time.Unix(lastSync, 0).UTC()

	return &l, nil
}

// LinkAndTouch records the {local, remote} binding and bumps the local
// entity's updated_at, in one transaction — spec.md §4.8 point 1's
// requirement that a push's remote-id link and the local updated_at
// bump are atomic with respect to each other. entityType is "issue" or
// "milestone".
func (s *Store) LinkAndTouch(ctx context.Context, entityType, localID, backendName, remoteID string) error {
	table := "issues"
	if entityType == "milestone" {
		table = "milestones"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: link and touch begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now()

	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET updated_at = ? WHERE id = ?`, now.Unix(), localID); err != nil {
		return fmt.Errorf("store: touch %s %s: %w", entityType, localID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO remote_links (local_entity_id, entity_type, backend_name, remote_id, last_sync)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(local_entity_id, entity_type, backend_name) DO UPDATE SET
				remote_id = excluded.remote_id,
				last_sync = excluded.last_sync`,
		localID, entityType, backendName, remoteID, now.Unix()); err != nil {
		return fmt.Errorf("store: link %s %s: %w", entityType, localID, err)
	}

	return tx.Commit()
}

// ListRemoteLinksByBackend returns every link recorded for backendName,
// the shape the detector's ID-collision pass consumes.
func (s *Store) ListRemoteLinksByBackend(ctx context.Context, backendName string) ([]*model.RemoteLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT local_entity_id, entity_type, backend_name, remote_id, last_sync
			FROM remote_links WHERE backend_name = ? ORDER BY local_entity_id`, backendName)
	if err != nil {
		return nil, fmt.Errorf("store: list remote_links for %s: %w", backendName, err)
	}
	defer rows.Close()

	var out []*model.RemoteLink

	for rows.Next() {
		var (
			l        model.RemoteLink
			lastSync int64
		)

		if err := rows.Scan(&l.LocalEntityID, &l.EntityType, &l.BackendName, &l.RemoteID, &lastSync); err != nil {
			return nil, fmt.Errorf("store: scan remote_link: %w", err)
		}

		l.LastSync = time.Unix(lastSync, 0).UTC()
		out = append(out, &l)
	}

	return out, rows.Err()
}
