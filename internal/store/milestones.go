package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghsync/ghsync/internal/model"
)

const sqlUpsertMilestone = `INSERT INTO milestones
	(id, project_id, name, headline, due_date, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		project_id = excluded.project_id,
		name = excluded.name,
		headline = excluded.headline,
		due_date = excluded.due_date,
		status = excluded.status,
		updated_at = excluded.updated_at`

// UpsertMilestone inserts or updates m.
func (s *Store) UpsertMilestone(ctx context.Context, m *model.Milestone) error {
	now := time.Now().Unix()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	var due sql.NullInt64
	if m.DueDate != nil {
		due = sql.NullInt64{Int64: m.DueDate.Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, sqlUpsertMilestone,
		m.LocalID, m.ProjectID, m.Name, m.Headline, due, string(m.Status), m.CreatedAt.Unix(), now)
	if err != nil {
		return fmt.Errorf("store: upsert milestone %s: %w", m.LocalID, err)
	}

	return nil
}

// GetMilestone returns the milestone with id, or ErrNotFound.
func (s *Store) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, headline, due_date, status, created_at, updated_at
			FROM milestones WHERE id = ?`, id)

	m, err := scanMilestone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: get milestone %s: %w", id, err)
	}

	return m, nil
}

// ListMilestonesByProject returns every milestone under projectID.
func (s *Store) ListMilestonesByProject(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, headline, due_date, status, created_at, updated_at
			FROM milestones WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list milestones for %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []*model.Milestone

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan milestone: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

// ListAllMilestones returns every milestone across all projects — the
// set the Sync Executor batches ahead of issues (spec.md §4.8).
func (s *Store) ListAllMilestones(ctx context.Context) ([]*model.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, headline, due_date, status, created_at, updated_at
			FROM milestones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list all milestones: %w", err)
	}
	defer rows.Close()

	var out []*model.Milestone

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan milestone: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

func scanMilestone(row rowScanner) (*model.Milestone, error) {
	var (
		m                    model.Milestone
		projectID            sql.NullString
		status               string
		due                  sql.NullInt64
		createdAt, updatedAt int64
	)

	if err := row.Scan(&m.LocalID, &projectID, &m.Name, &m.Headline, &due, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	m.ProjectID = projectID.String
	m.Status = model.MilestoneStatus(status)
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if due.Valid {
		t := time.Unix(due.Int64, 0).UTC()
		m.DueDate = &t
	}

	return &m, nil
}
