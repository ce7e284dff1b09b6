package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghsync/ghsync/internal/model"
)

const sqlUpsertIssue = `INSERT INTO issues
	(id, project_id, milestone_id, title, body, status, priority, assignee, content_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		project_id = excluded.project_id,
		milestone_id = excluded.milestone_id,
		title = excluded.title,
		body = excluded.body,
		status = excluded.status,
		priority = excluded.priority,
		assignee = excluded.assignee,
		content_hash = excluded.content_hash,
		updated_at = excluded.updated_at`

// UpsertIssue writes i and replaces its dependency/label rows inside one
// transaction, so an upsert is atomic with respect to its edges —
// spec.md §4.3's transaction-atomicity invariant.
func (s *Store) UpsertIssue(ctx context.Context, i *model.Issue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: upsert issue begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().Unix()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, sqlUpsertIssue,
		i.LocalID, nullIfEmpty(i.ProjectID), nullIfEmpty(i.MilestoneID), i.Title, i.Body,
		string(i.Status), string(i.Priority), i.Assignee, "", i.CreatedAt.Unix(), now)
	if err != nil {
		return fmt.Errorf("store: upsert issue %s: %w", i.LocalID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_dependencies WHERE issue_id = ?`, i.LocalID); err != nil {
		return fmt.Errorf("store: clear dependencies for %s: %w", i.LocalID, err)
	}

	for _, dep := range i.DependsOn {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO issue_dependencies (issue_id, depends_on_id) VALUES (?, ?)`,
			i.LocalID, dep); err != nil {
			return fmt.Errorf("store: insert dependency %s->%s: %w", i.LocalID, dep, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_labels WHERE issue_id = ?`, i.LocalID); err != nil {
		return fmt.Errorf("store: clear labels for %s: %w", i.LocalID, err)
	}

	for _, label := range i.Labels {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO issue_labels (issue_id, label) VALUES (?, ?)`, i.LocalID, label); err != nil {
			return fmt.Errorf("store: insert label %s for %s: %w", label, i.LocalID, err)
		}
	}

	return tx.Commit()
}

// GetIssue returns the issue with id (dependencies and labels populated),
// or ErrNotFound.
func (s *Store) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, milestone_id, title, body, status, priority, assignee, created_at, updated_at
			FROM issues WHERE id = ?`, id)

	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("store: get issue %s: %w", id, err)
	}

	if err := s.loadIssueEdges(ctx, issue); err != nil {
		return nil, err
	}

	return issue, nil
}

// ListIssuesByProject returns every issue under projectID, edges
// populated.
func (s *Store) ListIssuesByProject(ctx context.Context, projectID string) ([]*model.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, milestone_id, title, body, status, priority, assignee, created_at, updated_at
			FROM issues WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list issues for %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []*model.Issue

	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan issue: %w", err)
		}

		out = append(out, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, issue := range out {
		if err := s.loadIssueEdges(ctx, issue); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ListAllIssues returns every issue across all projects, edges
// populated — the set the Sync Executor batches for one cycle.
func (s *Store) ListAllIssues(ctx context.Context) ([]*model.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, milestone_id, title, body, status, priority, assignee, created_at, updated_at
			FROM issues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list all issues: %w", err)
	}
	defer rows.Close()

	var out []*model.Issue

	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan issue: %w", err)
		}

		out = append(out, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, issue := range out {
		if err := s.loadIssueEdges(ctx, issue); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *Store) loadIssueEdges(ctx context.Context, issue *model.Issue) error {
	depRows, err := s.db.QueryContext(ctx,
		`SELECT depends_on_id FROM issue_dependencies WHERE issue_id = ? ORDER BY depends_on_id`, issue.LocalID)
	if err != nil {
		return fmt.Errorf("store: load dependencies for %s: %w", issue.LocalID, err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var dep string
		if err := depRows.Scan(&dep); err != nil {
			return err
		}

		issue.DependsOn = append(issue.DependsOn, dep)
	}

	if err := depRows.Err(); err != nil {
		return err
	}

	labelRows, err := s.db.QueryContext(ctx,
		`SELECT label FROM issue_labels WHERE issue_id = ? ORDER BY label`, issue.LocalID)
	if err != nil {
		return fmt.Errorf("store: load labels for %s: %w", issue.LocalID, err)
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var label string
		if err := labelRows.Scan(&label); err != nil {
			return err
		}

		issue.Labels = append(issue.Labels, label)
	}

	return labelRows.Err()
}

func scanIssue(row rowScanner) (*model.Issue, error) {
	var (
		issue                model.Issue
		projectID, milestone sql.NullString
		status, priority     string
		createdAt, updatedAt int64
	)

	if err := row.Scan(&issue.LocalID, &projectID, &milestone, &issue.Title, &issue.Body,
		&status, &priority, &issue.Assignee, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	issue.ProjectID = projectID.String
	issue.MilestoneID = milestone.String
	issue.Status = model.Status(status)
	issue.Priority = model.Priority(priority)
	issue.CreatedAt = time.Unix(createdAt, 0).UTC()
	issue.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &issue, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}
