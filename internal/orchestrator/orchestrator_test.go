package orchestrator_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/orchestrator"
	"github.com/ghsync/ghsync/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "ghsync.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const issueContent = `---
id: issue-1
title: Fix login bug
status: todo
priority: high
labels:
  - bug
  - urgent
---
# Fix login bug
`

const projectContent = `---
id: proj-1
title: Roadmap
---
# Roadmap
`

func TestRunIncremental_SyncsNewFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "projects/proj-1.md", projectContent)
	writeFile(t, dir, "issues/issue-1.md", issueContent)

	s := newTestStore(t)
	o := orchestrator.New(s, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	stats, err := o.RunIncremental(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesChecked)
	assert.Equal(t, 2, stats.FilesChanged)
	assert.Equal(t, 2, stats.FilesSynced)
	assert.Equal(t, 0, stats.FilesFailed)

	issue, err := s.GetIssue(context.Background(), "issue-1")
	require.NoError(t, err)
	assert.Equal(t, "Fix login bug", issue.Title)
	assert.ElementsMatch(t, []string{"bug", "urgent"}, issue.Labels)
}

func TestRunIncremental_SkipsUnchangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "issues/issue-1.md", issueContent)

	s := newTestStore(t)
	o := orchestrator.New(s, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	_, err := o.RunIncremental(ctx)
	require.NoError(t, err)

	stats, err := o.RunIncremental(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesChecked)
	assert.Equal(t, 0, stats.FilesChanged)
}

func TestRunIncremental_IgnoresArchiveSubtree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "issues/archive/old.md", issueContent)

	s := newTestStore(t)
	o := orchestrator.New(s, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	stats, err := o.RunIncremental(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesChecked)
}

func TestShouldFullRebuild_TrueWithNoCheckpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "issues/issue-1.md", issueContent)

	s := newTestStore(t)
	o := orchestrator.New(s, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.True(t, o.ShouldFullRebuild(context.Background(), false))
}

func TestShouldFullRebuild_ForceAlwaysTrue(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	o := orchestrator.New(s, t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.True(t, o.ShouldFullRebuild(context.Background(), true))
}

func TestRunFull_ClearsIssuesButKeepsProjects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "projects/proj-1.md", projectContent)
	writeFile(t, dir, "issues/issue-1.md", issueContent)

	s := newTestStore(t)
	o := orchestrator.New(s, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	_, err := o.RunIncremental(ctx)
	require.NoError(t, err)

	stats, err := o.RunFull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesFailed)

	_, err = s.GetProject(ctx, "proj-1")
	require.NoError(t, err)

	_, err = s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)
}
