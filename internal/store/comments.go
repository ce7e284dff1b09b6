package store

import (
	"context"
	"fmt"
	"time"
)

// Comment is a row of the comments table, restored per SPEC_FULL.md
// §3's expansion (named in spec.md §4.3's own schema text but absent
// from the distilled model).
type Comment struct {
	ID        string
	IssueID   string
	Author    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertComment inserts or updates c.
func (s *Store) UpsertComment(ctx context.Context, c *Comment) error {
	now := time.Now().Unix()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author, body, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				author = excluded.author,
				body = excluded.body,
				updated_at = excluded.updated_at`,
		c.ID, c.IssueID, c.Author, c.Body, c.CreatedAt.Unix(), now)
	if err != nil {
		return fmt.Errorf("store: upsert comment %s: %w", c.ID, err)
	}

	return nil
}

// ListCommentsByIssue returns every comment on issueID, oldest first.
func (s *Store) ListCommentsByIssue(ctx context.Context, issueID string) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, author, body, created_at, updated_at
			FROM comments WHERE issue_id = ? ORDER BY created_at`, issueID)
	if err != nil {
		return nil, fmt.Errorf("store: list comments for %s: %w", issueID, err)
	}
	defer rows.Close()

	var out []*Comment

	for rows.Next() {
		var (
			c                    Comment
			createdAt, updatedAt int64
		)

		if err := rows.Scan(&c.ID, &c.IssueID, &c.Author, &c.Body, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("store: scan comment: %w", err)
		}

		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, &c)
	}

	return out, rows.Err()
}
