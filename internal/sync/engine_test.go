package sync_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/remote"
	"github.com/ghsync/ghsync/internal/store"
	gsync "github.com/ghsync/ghsync/internal/sync"
	"github.com/ghsync/ghsync/internal/syncerr"
)

type fakeBackend struct {
	issues     map[string]*model.SyncIssue
	milestones map[string]*model.SyncMilestone
	nextID     int
}

func (f *fakeBackend) Name() string { return "github" }
func (f *fakeBackend) Authenticate(context.Context) syncerr.Result[struct{}] {
	return syncerr.Ok(struct{}{})
}

func (f *fakeBackend) ListIssues(context.Context, remote.IssueFilter) syncerr.Result[map[string]*model.SyncIssue] {
	return syncerr.Ok(f.issues)
}

func (f *fakeBackend) GetIssue(context.Context, string) syncerr.Result[*model.SyncIssue] {
	return syncerr.Err[*model.SyncIssue](syncerr.New(syncerr.ResourceNotFound, "not implemented"))
}

func (f *fakeBackend) CreateIssue(_ context.Context, p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
	f.nextID++

	si, _ := model.NewSyncIssue("github", strconv.Itoa(f.nextID), p.Title, "open")

	return syncerr.Ok(si)
}

func (f *fakeBackend) UpdateIssue(_ context.Context, id string, p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
	si, _ := model.NewSyncIssue("github", id, p.Title, "open")
	return syncerr.Ok(si)
}

func (f *fakeBackend) ListMilestones(context.Context) syncerr.Result[map[string]*model.SyncMilestone] {
	return syncerr.Ok(f.milestones)
}

func (f *fakeBackend) GetMilestone(context.Context, string) syncerr.Result[*model.SyncMilestone] {
	return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.ResourceNotFound, "not implemented"))
}

func (f *fakeBackend) CreateMilestone(_ context.Context, p remote.MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	f.nextID++
	sm, _ := model.NewSyncMilestone("github", strconv.Itoa(f.nextID), p.Name, "open")

	return syncerr.Ok(sm)
}

func (f *fakeBackend) UpdateMilestone(_ context.Context, id string, p remote.MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	sm, _ := model.NewSyncMilestone("github", id, p.Name, "open")
	return syncerr.Ok(sm)
}

func (f *fakeBackend) DeleteMilestone(context.Context, string) syncerr.Result[struct{}] {
	return syncerr.Ok(struct{}{})
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "ghsync.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func writeIssueFile(t *testing.T, dir, name, title string) {
	t.Helper()

	content := "---\ntitle: \"" + title + "\"\nstatus: todo\n---\n\nbody\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "issues"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "issues", name), []byte(content), 0o644))
}

func TestRunOnce_PushesNewLocalIssueToEmptyRemote(t *testing.T) {
	t.Parallel()

	roadmapDir := t.TempDir()
	writeIssueFile(t, roadmapDir, "fix-bug.md", "Fix the bug")

	s := newTestStore(t)
	backend := &fakeBackend{issues: map[string]*model.SyncIssue{}, milestones: map[string]*model.SyncMilestone{}}

	engine := gsync.New(s, roadmapDir, map[string]remote.Backend{"github": backend}, gsync.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	report, err := engine.RunOnce(context.Background(), gsync.RunOpts{})
	require.NoError(t, err)
	assert.Nil(t, report.Fatal)
	assert.True(t, report.FullRebuild)
	assert.Equal(t, 1, report.FilesSynced)
	assert.Len(t, report.Pushed, 1)
	assert.Empty(t, report.Errors)
}

func TestRunOnce_PullsRemoteOnlyIssue(t *testing.T) {
	t.Parallel()

	roadmapDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(roadmapDir, "issues"), 0o755))

	s := newTestStore(t)

	si, err := model.NewSyncIssue("github", "42", "Remote-only issue", "open")
	require.NoError(t, err)

	backend := &fakeBackend{
		issues:     map[string]*model.SyncIssue{"42": si},
		milestones: map[string]*model.SyncMilestone{},
	}

	engine := gsync.New(s, roadmapDir, map[string]remote.Backend{"github": backend}, gsync.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	report, err := engine.RunOnce(context.Background(), gsync.RunOpts{})
	require.NoError(t, err)
	assert.Nil(t, report.Fatal)
	require.Len(t, report.Pulled, 1)

	issue, err := s.GetIssue(context.Background(), report.Pulled[0])
	require.NoError(t, err)
	assert.Equal(t, "Remote-only issue", issue.Title)
}
