package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/parser"
)

// managedFile is one file discovered under a managed subtree, tagged
// with the entity kind its directory implies.
type managedFile struct {
	path string
	kind string // "project" | "milestone" | "issue"
}

// walkManaged walks projects/, milestones/, issues/ (in that fixed
// order, skipping archive/ subtrees, which the orchestrator does not
// push to the remote) and returns every *.md file found.
func (o *Orchestrator) walkManaged() ([]managedFile, error) {
	var out []managedFile

	for _, dir := range managedPatterns {
		root := filepath.Join(o.roadmapDir, dir)

		entries, err := collectMarkdown(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, err
		}

		for _, path := range entries {
			out = append(out, managedFile{path: path, kind: strings.TrimSuffix(dir, "s")})
		}
	}

	return out, nil
}

func collectMarkdown(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, nil
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if d.Name() == "archive" {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasSuffix(path, ".md") {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

// hasFileChanged compares the file's current hash against its recorded
// file_sync_state row; a missing file or a missing row both count as
// changed, matching _has_file_changed's fail-open behavior.
func (o *Orchestrator) hasFileChanged(ctx context.Context, f managedFile) bool {
	if _, err := os.Stat(f.path); err != nil {
		return true
	}

	current := parser.Hash(f.path)

	st, err := o.store.GetFileSyncState(ctx, f.path)
	if err != nil {
		return true
	}

	return current != st.ContentHash
}

// syncFile parses f and dispatches to the matching entity upsert,
// recording the new file_sync_state row on success. Returns false
// (never an error) so a single bad file never aborts the pass.
func (o *Orchestrator) syncFile(ctx context.Context, f managedFile) bool {
	meta, err := parser.ParseFrontmatter(f.path)
	if err != nil {
		o.logger.Warn("skipping file with malformed frontmatter", "path", f.path, "error", err)
		return false
	}

	var syncErr error

	switch f.kind {
	case "project":
		syncErr = o.syncProject(ctx, f.path, meta)
	case "milestone":
		syncErr = o.syncMilestone(ctx, f.path, meta)
	case "issue":
		syncErr = o.syncIssue(ctx, f.path, meta)
	}

	if syncErr != nil {
		o.logger.Warn("failed to sync file", "path", f.path, "kind", f.kind, "error", syncErr)
		return false
	}

	stat := parser.Stat(f.path)
	if err := o.store.UpsertFileSyncState(ctx, &model.FileSyncState{
		Path:         f.path,
		ContentHash:  stat.Hash,
		Size:         stat.Size,
		LastModified: unixToTime(stat.LastModified),
	}); err != nil {
		o.logger.Warn("failed to record file_sync_state", "path", f.path, "error", err)
		return false
	}

	return true
}

func (o *Orchestrator) syncProject(ctx context.Context, path string, meta parser.Metadata) error {
	p := &model.Project{
		LocalID:     localIDFromPath(path, meta),
		Name:        metaString(meta, "title", "name"),
		Description: metaString(meta, "description"),
		Status:      model.ProjectActive,
	}

	if metaString(meta, "status") == string(model.ProjectArchived) {
		p.Status = model.ProjectArchived
	}

	return o.store.UpsertProject(ctx, p)
}

func (o *Orchestrator) syncMilestone(ctx context.Context, path string, meta parser.Metadata) error {
	m := &model.Milestone{
		LocalID:   localIDFromPath(path, meta),
		Name:      metaString(meta, "title", "name"),
		Headline:  metaString(meta, "headline", "description"),
		ProjectID: metaString(meta, "project", "project_id"),
		Status:    model.MilestoneOpen,
	}

	if metaString(meta, "status") == string(model.MilestoneClosed) {
		m.Status = model.MilestoneClosed
	}

	return o.store.UpsertMilestone(ctx, m)
}

func (o *Orchestrator) syncIssue(ctx context.Context, path string, meta parser.Metadata) error {
	i := &model.Issue{
		LocalID:     localIDFromPath(path, meta),
		Title:       metaString(meta, "title"),
		Status:      model.Status(metaStringDefault(meta, "backlog", "status")),
		Priority:    model.Priority(metaString(meta, "priority")),
		Assignee:    metaString(meta, "assignee"),
		MilestoneID: metaString(meta, "milestone", "milestone_id"),
		ProjectID:   metaString(meta, "project", "project_id"),
		Labels:      metaStringSlice(meta, "labels"),
		DependsOn:   metaStringSlice(meta, "depends_on", "dependencies"),
	}

	return o.store.UpsertIssue(ctx, i)
}

// clearForRebuild drops file_sync_state and issues; projects and
// milestones survive since rebuilding the issue graph is the common,
// cheap path (spec.md §4.4 point 1).
func (o *Orchestrator) clearForRebuild(ctx context.Context) error {
	return o.store.ClearForRebuild(ctx)
}

func unixToTime(unixSeconds int64) time.Time {
	return time.Unix(unixSeconds, 0).UTC()
}

// localIDFromPath derives the stable local ID for a managed file: an
// explicit "id" frontmatter field wins, otherwise the file's basename
// without extension (matching the original's filename-as-key convention
// for files that predate explicit ids).
func localIDFromPath(path string, meta parser.Metadata) string {
	if id := metaString(meta, "id"); id != "" {
		return id
	}

	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// metaString returns the first non-empty string value found under any
// of keys.
func metaString(meta parser.Metadata, keys ...string) string {
	for _, k := range keys {
		if v, ok := meta[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}

	return ""
}

// metaStringDefault is metaString with a fallback when no key matches.
func metaStringDefault(meta parser.Metadata, fallback string, keys ...string) string {
	if s := metaString(meta, keys...); s != "" {
		return s
	}

	return fallback
}

// metaStringSlice reads a YAML list-of-strings field under any of keys.
func metaStringSlice(meta parser.Metadata, keys ...string) []string {
	for _, k := range keys {
		v, ok := meta[k]
		if !ok {
			continue
		}

		items, ok := v.([]any)
		if !ok {
			continue
		}

		out := make([]string, 0, len(items))

		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		if len(out) > 0 {
			return out
		}
	}

	return nil
}
