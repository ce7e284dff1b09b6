package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Ledger status constants for action_queue.status, adapted from the
// teacher's internal/sync/ledger.go action-queue status machine.
const (
	LedgerStatusPending  = "pending"
	LedgerStatusClaimed  = "claimed"
	LedgerStatusDone     = "done"
	LedgerStatusFailed   = "failed"
	LedgerStatusCanceled = "canceled"
)

// LedgerAction is one crash-recoverable unit of work the Sync Executor
// (§4.8) queues before performing a primitive operation (push, pull,
// update-push, update-pull, link, conflict-record).
type LedgerAction struct {
	CycleID     string
	ActionType  string
	EntityType  string
	EntityID    string
	RemoteID    string
	BackendName string
	Payload     string
}

// LedgerRow is a row read back from action_queue, used for crash
// recovery and status reporting.
type LedgerRow struct {
	ID          int64
	CycleID     string
	ActionType  string
	EntityType  string
	EntityID    string
	RemoteID    string
	BackendName string
	Status      string
	Payload     string
	ErrorMsg    string
}

// Ledger manages the action_queue table: crash-recoverable persistence
// for in-flight executor actions, giving the executor's at-most-once
// guarantee (spec.md §4.8). Grounded on the teacher's
// internal/sync/ledger.go, sharing the sole-writer *sql.DB discipline
// with the rest of Store.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLedger wraps db (normally Store.DB()) with the ledger API.
func NewLedger(db *sql.DB, logger *slog.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// WriteActions inserts actions as pending rows in a single transaction,
// returning their assigned IDs in the same order.
func (l *Ledger) WriteActions(ctx context.Context, actions []LedgerAction) ([]int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: ledger begin write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO action_queue
			(cycle_id, action_type, entity_type, entity_id, remote_id, backend_name, status, payload, created_at)
			VALUES (?, ?, ?, ?, ?, ?, '`+LedgerStatusPending+`', ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("store: ledger prepare: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(actions))
	now := time.Now().Unix()

	for i, a := range actions {
		result, err := stmt.ExecContext(ctx, a.CycleID, a.ActionType, a.EntityType, a.EntityID,
			a.RemoteID, a.BackendName, a.Payload, now)
		if err != nil {
			return nil, fmt.Errorf("store: ledger insert action %d (%s/%s): %w", i, a.EntityType, a.EntityID, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("store: ledger last insert id: %w", err)
		}

		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: ledger commit write: %w", err)
	}

	l.logger.Info("ledger: actions written", slog.Int("count", len(actions)))

	return ids, nil
}

// Claim transitions an action from pending to claimed, returning an
// error if it was not pending (already claimed by another worker, or
// this is a stale retry).
func (l *Ledger) Claim(ctx context.Context, id int64) error {
	now := time.Now().Unix()

	result, err := l.db.ExecContext(ctx,
		`UPDATE action_queue SET status = '`+LedgerStatusClaimed+`', claimed_at = ?
			WHERE id = ? AND status = '`+LedgerStatusPending+`'`, now, id)
	if err != nil {
		return fmt.Errorf("store: ledger claim %d: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("store: ledger claim %d: action not pending", id)
	}

	return nil
}

// Complete transitions an action from claimed to done.
func (l *Ledger) Complete(ctx context.Context, id int64) error {
	now := time.Now().Unix()

	result, err := l.db.ExecContext(ctx,
		`UPDATE action_queue SET status = '`+LedgerStatusDone+`', finished_at = ?
			WHERE id = ? AND status = '`+LedgerStatusClaimed+`'`, now, id)
	if err != nil {
		return fmt.Errorf("store: ledger complete %d: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("store: ledger complete %d: action not claimed", id)
	}

	return nil
}

// Fail transitions an action from claimed to failed, recording errMsg.
func (l *Ledger) Fail(ctx context.Context, id int64, errMsg string) error {
	now := time.Now().Unix()

	result, err := l.db.ExecContext(ctx,
		`UPDATE action_queue SET status = '`+LedgerStatusFailed+`', finished_at = ?, error_msg = ?
			WHERE id = ? AND status = '`+LedgerStatusClaimed+`'`, now, errMsg, id)
	if err != nil {
		return fmt.Errorf("store: ledger fail %d: %w", id, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("store: ledger fail %d: action not claimed", id)
	}

	return nil
}

// Cancel transitions an action to canceled from any status, used when a
// dependency failed and downstream actions can no longer proceed.
func (l *Ledger) Cancel(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx, `UPDATE action_queue SET status = '`+LedgerStatusCanceled+`' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: ledger cancel %d: %w", id, err)
	}

	return nil
}

// FindActive returns the most recent non-terminal row for (entityType,
// entityID, backendName), or ErrNotFound if none exists. The executor
// consults this before a push: a claimed row surviving a prior crash
// means the create call's outcome is unknown, and the executor skips the
// push rather than re-create.
func (l *Ledger) FindActive(ctx context.Context, entityType, entityID, backendName string) (*LedgerRow, error) {
	row := l.db.QueryRowContext(ctx,
		ledgerSelectCols+`WHERE entity_type = ? AND entity_id = ? AND backend_name = ?
			AND status IN ('`+LedgerStatusPending+`', '`+LedgerStatusClaimed+`')
			ORDER BY id DESC LIMIT 1`, entityType, entityID, backendName)

	var r LedgerRow

	err := row.Scan(&r.ID, &r.CycleID, &r.ActionType, &r.EntityType, &r.EntityID,
		&r.RemoteID, &r.BackendName, &r.Status, &r.Payload, &r.ErrorMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: ledger find active %s/%s: %w", entityType, entityID, err)
	}

	return &r, nil
}

// LoadAllPending returns every non-terminal (pending or claimed) row,
// across all cycles.
func (l *Ledger) LoadAllPending(ctx context.Context) ([]LedgerRow, error) {
	return l.queryRows(ctx,
		`WHERE status IN ('`+LedgerStatusPending+`', '`+LedgerStatusClaimed+`')`)
}

// ReclaimStale resets claimed actions older than timeout back to
// pending, recovering from a worker crash mid-execution.
func (l *Ledger) ReclaimStale(ctx context.Context, timeout time.Duration) (int, error) {
	cutoff := time.Now().Add(-timeout).Unix()

	result, err := l.db.ExecContext(ctx,
		`UPDATE action_queue SET status = '`+LedgerStatusPending+`', claimed_at = NULL
			WHERE status = '`+LedgerStatusClaimed+`' AND claimed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: ledger reclaim stale: %w", err)
	}

	n, _ := result.RowsAffected()

	if n > 0 {
		l.logger.Warn("ledger: reclaimed stale actions", slog.Int64("count", n), slog.Duration("timeout", timeout))
	}

	return int(n), nil
}

const ledgerSelectCols = `SELECT id, cycle_id, action_type, entity_type, entity_id,
	remote_id, backend_name, status, payload, error_msg FROM action_queue `

func (l *Ledger) queryRows(ctx context.Context, whereAndArgs string, args ...any) ([]LedgerRow, error) {
	rows, err := l.db.QueryContext(ctx, ledgerSelectCols+whereAndArgs+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: ledger query: %w", err)
	}
	defer rows.Close()

	var out []LedgerRow

	for rows.Next() {
		var r LedgerRow

		if err := rows.Scan(&r.ID, &r.CycleID, &r.ActionType, &r.EntityType, &r.EntityID,
			&r.RemoteID, &r.BackendName, &r.Status, &r.Payload, &r.ErrorMsg); err != nil {
			return nil, fmt.Errorf("store: ledger scan row: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}
