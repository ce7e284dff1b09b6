package executor_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/executor"
	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/remote"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/syncerr"
)

// fakeBackend is a scriptable remote.Backend stand-in, the teacher's
// client_test.go style of hand-rolled fakes rather than a mocking
// library (none appears anywhere in the pack).
type fakeBackend struct {
	createFn func(remote.IssuePayload) syncerr.Result[*model.SyncIssue]
	updateFn func(string, remote.IssuePayload) syncerr.Result[*model.SyncIssue]
}

func (f *fakeBackend) Name() string { return "github" }
func (f *fakeBackend) Authenticate(context.Context) syncerr.Result[struct{}] {
	return syncerr.Ok(struct{}{})
}

func (f *fakeBackend) ListIssues(context.Context, remote.IssueFilter) syncerr.Result[map[string]*model.SyncIssue] {
	return syncerr.Ok(map[string]*model.SyncIssue{})
}

func (f *fakeBackend) GetIssue(context.Context, string) syncerr.Result[*model.SyncIssue] {
	return syncerr.Err[*model.SyncIssue](syncerr.New(syncerr.ResourceNotFound, "not implemented"))
}

func (f *fakeBackend) CreateIssue(_ context.Context, p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
	return f.createFn(p)
}

func (f *fakeBackend) UpdateIssue(_ context.Context, id string, p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
	return f.updateFn(id, p)
}

func (f *fakeBackend) ListMilestones(context.Context) syncerr.Result[map[string]*model.SyncMilestone] {
	return syncerr.Ok(map[string]*model.SyncMilestone{})
}
func (f *fakeBackend) GetMilestone(context.Context, string) syncerr.Result[*model.SyncMilestone] {
	return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.ResourceNotFound, "not implemented"))
}
func (f *fakeBackend) CreateMilestone(context.Context, remote.MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.UnknownError, "not implemented"))
}
func (f *fakeBackend) UpdateMilestone(context.Context, string, remote.MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.UnknownError, "not implemented"))
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

func TestRunIssues_PushesUnlinkedLocal(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertProject(ctx, &model.Project{LocalID: "proj-1", Name: "P"}))
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-1", ProjectID: "proj-1", Title: "Fix bug"}))

	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec := executor.New(s, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))

	backend := &fakeBackend{
		createFn: func(p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
			si, _ := model.NewSyncIssue("github", "101", p.Title, "open")
			return syncerr.Ok(si)
		},
	}

	local, err := s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)

	report := exec.RunIssues(ctx, "github", backend, []*model.Issue{local}, nil, nil)
	assert.Equal(t, []string{"issue-1"}, report.Pushed)
	assert.Empty(t, report.Errors)

	link, err := s.GetRemoteLink(ctx, "issue-1", "issue", "github")
	require.NoError(t, err)
	assert.Equal(t, "101", link.RemoteID)
}

func TestRunIssues_PullsUnlinkedRemote(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec := executor.New(s, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	backend := &fakeBackend{}

	si, _ := model.NewSyncIssue("github", "202", "Remote-only issue", "open")
	remotes := map[string]*model.SyncIssue{"202": si}

	report := exec.RunIssues(ctx, "github", backend, nil, remotes, nil)
	require.Len(t, report.Pulled, 1)

	issue, err := s.GetIssue(ctx, report.Pulled[0])
	require.NoError(t, err)
	assert.Equal(t, "Remote-only issue", issue.Title)
}

func TestRunIssues_UpdatePushesLocalChange(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-1", Title: "Old title"}))
	require.NoError(t, s.UpsertRemoteLink(ctx, &model.RemoteLink{
		LocalEntityID: "issue-1", EntityType: "issue", BackendName: "github",
		RemoteID: "101", LastSync: time.Now().Add(-time.Hour),
	}))

	local, err := s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)
	local.Title = "New title"
	require.NoError(t, s.UpsertIssue(ctx, local))
	local, err = s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)

	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec := executor.New(s, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var sentTitle string
	backend := &fakeBackend{
		updateFn: func(id string, p remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
			sentTitle = p.Title
			si, _ := model.NewSyncIssue("github", id, p.Title, "open")
			return syncerr.Ok(si)
		},
	}

	remoteSnapshot, _ := model.NewSyncIssue("github", "101", "Old title", "open")
	remoteSnapshot.UpdatedAt = time.Now().Add(-2 * time.Hour)

	report := exec.RunIssues(ctx, "github", backend, []*model.Issue{local}, map[string]*model.SyncIssue{"101": remoteSnapshot}, nil)
	assert.Equal(t, []string{"issue-1"}, report.Pushed)
	assert.Equal(t, "New title", sentTitle)
}

func TestRunIssues_ConflictWhenBothSidesChanged(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-1", Title: "Local edit"}))
	require.NoError(t, s.UpsertRemoteLink(ctx, &model.RemoteLink{
		LocalEntityID: "issue-1", EntityType: "issue", BackendName: "github",
		RemoteID: "101", LastSync: time.Now().Add(-time.Hour),
	}))

	local, err := s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)

	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec := executor.New(s, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	backend := &fakeBackend{}

	remoteSnapshot, _ := model.NewSyncIssue("github", "101", "Remote edit", "open")
	remoteSnapshot.UpdatedAt = time.Now()

	report := exec.RunIssues(ctx, "github", backend, []*model.Issue{local}, map[string]*model.SyncIssue{"101": remoteSnapshot}, nil)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "issue-1", report.Conflicts[0].EntityID)
}

func TestRunIssues_LinkActionPairsWithoutCreating(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-1", Title: "Dup"}))

	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec := executor.New(s, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	backend := &fakeBackend{
		createFn: func(remote.IssuePayload) syncerr.Result[*model.SyncIssue] {
			t.Fatal("link action must not create")
			return syncerr.Result[*model.SyncIssue]{}
		},
	}

	action := &model.ResolutionAction{Action: model.ActionLink, CanonicalID: "issue-1", DuplicateID: "999"}

	report := exec.RunIssues(ctx, "github", backend, []*model.Issue{}, nil, []*model.ResolutionAction{action})
	assert.Empty(t, report.Errors)

	link, err := s.GetRemoteLink(ctx, "issue-1", "issue", "github")
	require.NoError(t, err)
	assert.Equal(t, "999", link.RemoteID)
}
