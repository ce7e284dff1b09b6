package store_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ghsync.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.Open(context.Background(), dbPath, logger)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestProjectRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	p := &model.Project{LocalID: "proj-1", Name: "Roadmap", Status: model.ProjectActive}
	require.NoError(t, s.UpsertProject(ctx, p))

	got, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Name)
	assert.Equal(t, model.ProjectActive, got.Status)

	p.Name = "Roadmap Renamed"
	require.NoError(t, s.UpsertProject(ctx, p))

	got, err = s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap Renamed", got.Name)
}

func TestGetProject_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.GetProject(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestUpsertIssue_AtomicWithEdges covers spec.md §8's transaction
// atomicity invariant: an issue's dependency/label rows are always
// consistent with its latest upsert.
func TestUpsertIssue_AtomicWithEdges(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProject(ctx, &model.Project{LocalID: "proj-1", Name: "P"}))
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-dep", ProjectID: "proj-1", Title: "Dep"}))

	issue := &model.Issue{
		LocalID:   "issue-1",
		ProjectID: "proj-1",
		Title:     "Fix login",
		Labels:    []string{"bug", "urgent"},
		DependsOn: []string{"issue-dep"},
	}
	require.NoError(t, s.UpsertIssue(ctx, issue))

	got, err := s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bug", "urgent"}, got.Labels)
	assert.Equal(t, []string{"issue-dep"}, got.DependsOn)

	// Re-upsert with fewer labels/deps — old edges must not survive.
	issue.Labels = []string{"bug"}
	issue.DependsOn = nil
	require.NoError(t, s.UpsertIssue(ctx, issue))

	got, err = s.GetIssue(ctx, "issue-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, got.Labels)
	assert.Empty(t, got.DependsOn)
}

func TestListIssuesByProject_OrderedAndPopulated(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProject(ctx, &model.Project{LocalID: "proj-1", Name: "P"}))
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-b", ProjectID: "proj-1", Title: "B"}))
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-a", ProjectID: "proj-1", Title: "A"}))

	issues, err := s.ListIssuesByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "issue-a", issues[0].LocalID)
	assert.Equal(t, "issue-b", issues[1].LocalID)
}

func TestDeleteProject_CascadesToMilestonesAndIssues(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProject(ctx, &model.Project{LocalID: "proj-1", Name: "P"}))
	require.NoError(t, s.UpsertMilestone(ctx, &model.Milestone{LocalID: "ms-1", ProjectID: "proj-1", Name: "M"}))
	require.NoError(t, s.UpsertIssue(ctx, &model.Issue{LocalID: "issue-1", ProjectID: "proj-1", Title: "I"}))

	require.NoError(t, s.DeleteProject(ctx, "proj-1"))

	_, err := s.GetMilestone(ctx, "ms-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetIssue(ctx, "issue-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileSyncState_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	st := &model.FileSyncState{Path: "issues/issue-1.md", ContentHash: "abc", Size: 10, LastModified: time.Now()}
	require.NoError(t, s.UpsertFileSyncState(ctx, st))

	got, err := s.GetFileSyncState(ctx, "issues/issue-1.md")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ContentHash)

	require.NoError(t, s.DeleteFileSyncState(ctx, "issues/issue-1.md"))
	_, err = s.GetFileSyncState(ctx, "issues/issue-1.md")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncState_LastSyncedCommit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastSyncedCommit(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLastSyncedCommit(ctx, "deadbeef"))

	commit, ok, err := s.LastSyncedCommit(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", commit)
}

func TestRemoteLink_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	link := &model.RemoteLink{
		LocalEntityID: "issue-1", EntityType: "issue", BackendName: "github",
		RemoteID: "123", LastSync: time.Now(),
	}
	require.NoError(t, s.UpsertRemoteLink(ctx, link))

	got, err := s.GetRemoteLink(ctx, "issue-1", "issue", "github")
	require.NoError(t, err)
	assert.Equal(t, "123", got.RemoteID)

	links, err := s.ListRemoteLinksByBackend(ctx, "github")
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestLedger_Lifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ids, err := ledger.WriteActions(ctx, []store.LedgerAction{
		{CycleID: "cycle-1", ActionType: "push", EntityType: "issue", EntityID: "issue-1", BackendName: "github"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	pending, err := ledger.LoadAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, store.LedgerStatusPending, pending[0].Status)

	require.NoError(t, ledger.Claim(ctx, ids[0]))
	assert.Error(t, ledger.Claim(ctx, ids[0])) // already claimed

	require.NoError(t, ledger.Complete(ctx, ids[0]))

	pending, err = ledger.LoadAllPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLedger_FailAndReclaimStale(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	ledger := store.NewLedger(s.DB(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ids, err := ledger.WriteActions(ctx, []store.LedgerAction{
		{CycleID: "cycle-1", ActionType: "pull", EntityType: "issue", EntityID: "issue-2", BackendName: "github"},
	})
	require.NoError(t, err)

	require.NoError(t, ledger.Claim(ctx, ids[0]))
	require.NoError(t, ledger.Fail(ctx, ids[0], "boom"))

	n, err := ledger.ReclaimStale(ctx, time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, 0, n) // already terminal (failed), nothing to reclaim
}

func TestIsSafeForWrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	safe, err := s.IsSafeForWrites(context.Background())
	require.NoError(t, err)
	assert.True(t, safe)
}
