package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghsync/ghsync/internal/model"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

const sqlUpsertProject = `INSERT INTO projects (id, name, description, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		status = excluded.status,
		updated_at = excluded.updated_at`

// UpsertProject inserts or updates p, matching spec.md §4.3's idempotent
// CRUD contract.
func (s *Store) UpsertProject(ctx context.Context, p *model.Project) error {
	now := time.Now().Unix()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, sqlUpsertProject,
		p.LocalID, p.Name, p.Description, string(p.Status), p.CreatedAt.Unix(), now)
	if err != nil {
		return fmt.Errorf("store: upsert project %s: %w", p.LocalID, err)
	}

	return nil
}

// GetProject returns the project with id, or ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: get project %s: %w", id, err)
	}

	return p, nil
}

// ListProjects returns every project, ordered by id for deterministic
// output.
func (s *Store) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, status, created_at, updated_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []*model.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

// DeleteProject removes the project and cascades to milestones/issues via
// the foreign-key ON DELETE clauses.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete project %s: %w", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p                    model.Project
		status               string
		createdAt, updatedAt int64
	)

	if err := row.Scan(&p.LocalID, &p.Name, &p.Description, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Status = model.ProjectStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &p, nil
}
