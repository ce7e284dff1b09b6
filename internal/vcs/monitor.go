// Package vcs implements the Change Monitor: cheap change detection via
// `git diff --name-status` against a last-synced commit recorded in the
// store, falling back to `git ls-files` on first run.
//
// Grounded on original_source/roadmap/adapters/git/sync_monitor.go. The
// teacher has no analogue here — tonimelisma-onedrive-go watches a local
// filesystem with fsnotify, not a VCS — so this package's shape comes
// entirely from original_source.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ChangeType is the classification git assigns a path between two
// commits.
type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Deleted  ChangeType = "deleted"
)

// legacyStateFile is the Phase-1 flat-file sentinel spec.md §6 requires
// Change Monitor to migrate, once, into the store.
const legacyStateFile = "sync_git_state.txt"

// SyncState is the narrow persistence contract Monitor needs from the
// Local Store (§4.3): the last git commit the store was synced to. The
// real implementation is internal/store's sync_state table; this
// interface lets vcs compile and test independently of internal/store.
type SyncState interface {
	LastSyncedCommit(ctx context.Context) (string, bool, error)
	SetLastSyncedCommit(ctx context.Context, commit string) error
}

// Monitor detects filesystem changes under the managed subtrees
// (projects/, milestones/, issues/, each with an archive/ counterpart)
// by shelling out to git, per spec.md §4.2.
type Monitor struct {
	repoRoot string
	state    SyncState
	runGit   func(ctx context.Context, args ...string) (string, error)

	cachedCurrent string
	cachedLast    string
	haveLast      bool
}

// New constructs a Monitor rooted at repoRoot, backed by state.
func New(repoRoot string, state SyncState) *Monitor {
	m := &Monitor{repoRoot: repoRoot, state: state}
	m.runGit = m.execGit

	return m
}

// managedDirs lists the subtree names spec.md §6 names as sync-relevant,
// generalized per SPEC_FULL.md §4.2 from the original's issues-only
// filter to all three entity kinds, each with an archive/ counterpart.
var managedDirs = []string{
	"projects", "archive/projects",
	"milestones", "archive/milestones",
	"issues", "archive/issues",
}

func isManagedPath(path string) bool {
	for _, dir := range managedDirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	return false
}

// IsGitRepository reports whether repoRoot is inside a working git tree.
func (m *Monitor) IsGitRepository(ctx context.Context) bool {
	_, err := m.runGit(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// DetectChanges returns the set of changed managed-subtree paths since
// the last synced commit, or every managed file (as Added) on first run.
// Any git failure is swallowed and reported as "no changes," matching
// spec.md §4.2's VCS failure model: git unavailability degrades to a
// no-op rather than aborting the sync.
func (m *Monitor) DetectChanges(ctx context.Context) (map[string]ChangeType, error) {
	if !m.IsGitRepository(ctx) {
		return map[string]ChangeType{}, nil
	}

	current, err := m.currentCommit(ctx)
	if err != nil || current == "" {
		return map[string]ChangeType{}, nil
	}

	last, err := m.lastSyncedCommit(ctx)
	if err != nil {
		return map[string]ChangeType{}, nil
	}

	if last == current {
		return map[string]ChangeType{}, nil
	}

	if last == "" {
		return m.allManagedFiles(ctx)
	}

	return m.changedFiles(ctx, last)
}

func (m *Monitor) changedFiles(ctx context.Context, base string) (map[string]ChangeType, error) {
	out, err := m.runGit(ctx, "diff", "--name-status", base, "HEAD")
	if err != nil {
		return map[string]ChangeType{}, nil
	}

	changes := make(map[string]ChangeType)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}

		status, path := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if !isManagedPath(path) {
			continue
		}

		switch status {
		case "A":
			changes[path] = Added
		case "D":
			changes[path] = Deleted
		default:
			changes[path] = Modified
		}
	}

	return changes, nil
}

func (m *Monitor) allManagedFiles(ctx context.Context) (map[string]ChangeType, error) {
	out, err := m.runGit(ctx, "ls-files")
	if err != nil {
		return map[string]ChangeType{}, nil
	}

	changes := make(map[string]ChangeType)

	for _, path := range strings.Split(out, "\n") {
		path = strings.TrimSpace(path)
		if path != "" && isManagedPath(path) {
			changes[path] = Added
		}
	}

	return changes, nil
}

// SyncToStore records the current commit as synced, so the next
// DetectChanges call computes an incremental diff. The memoized HEAD is
// dropped so that call re-reads it; call ClearCache to force re-reading
// both commits.
func (m *Monitor) SyncToStore(ctx context.Context) error {
	current, err := m.currentCommit(ctx)
	if err != nil || current == "" {
		return fmt.Errorf("vcs: cannot save synced commit: no current commit")
	}

	if err := m.state.SetLastSyncedCommit(ctx, current); err != nil {
		return err
	}

	m.cachedLast = current
	m.haveLast = true
	m.cachedCurrent = ""

	return nil
}

// ClearCache drops the in-memory commit caches, forcing the next call to
// re-query git and the store.
func (m *Monitor) ClearCache() {
	m.cachedCurrent = ""
	m.cachedLast = ""
	m.haveLast = false
}

func (m *Monitor) currentCommit(ctx context.Context) (string, error) {
	if m.cachedCurrent != "" {
		return m.cachedCurrent, nil
	}

	out, err := m.runGit(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}

	m.cachedCurrent = out

	return out, nil
}

// lastSyncedCommit reads the store's recorded commit, migrating the
// legacy sync_git_state.txt file into the store exactly once if the
// store has no value yet and the legacy file exists (spec.md §6).
func (m *Monitor) lastSyncedCommit(ctx context.Context) (string, error) {
	if m.haveLast {
		return m.cachedLast, nil
	}

	commit, ok, err := m.state.LastSyncedCommit(ctx)
	if err != nil {
		return "", err
	}

	if !ok {
		if legacy, legacyOK := m.readLegacyState(); legacyOK {
			if err := m.state.SetLastSyncedCommit(ctx, legacy); err != nil {
				return "", err
			}

			commit, ok = legacy, true
		}
	}

	if !ok {
		m.cachedLast, m.haveLast = "", true
		return "", nil
	}

	m.cachedLast, m.haveLast = commit, true

	return commit, nil
}

func (m *Monitor) readLegacyState() (string, bool) {
	raw, err := os.ReadFile(filepath.Join(m.repoRoot, legacyStateFile))
	if err != nil {
		return "", false
	}

	commit := strings.TrimSpace(string(raw))
	if commit == "" {
		return "", false
	}

	return commit, true
}

func (m *Monitor) execGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = m.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("vcs: git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}
