package store

import (
	"context"
	"fmt"
)

// ClearForRebuild wipes file_sync_state and issues ahead of a full
// rebuild; projects and milestones are left in place since
// reconstructing the issue graph from managed files is the common,
// cheap path. Grounded on
// original_source/roadmap/adapters/persistence/sync_orchestrator.py's
// _clear_database_for_rebuild.
func (s *Store) ClearForRebuild(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: clear for rebuild: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_sync_state`); err != nil {
		return fmt.Errorf("store: clear for rebuild: file_sync_state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issues`); err != nil {
		return fmt.Errorf("store: clear for rebuild: issues: %w", err)
	}

	return tx.Commit()
}
