// Package orchestrator implements the Sync Orchestrator: deciding between
// an incremental sync pass and a full rebuild, and driving the File
// Parser + Local Store across the three managed subtrees in dependency
// order.
//
// Grounded on
// original_source/roadmap/adapters/persistence/sync_orchestrator.py
// (_has_file_changed, sync_directory_incremental, full_rebuild_from_git,
// should_do_full_rebuild), retargeted onto internal/store and
// internal/parser.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/store"
)

// DefaultRebuildThreshold is the fraction of changed-to-total managed
// files that triggers a full rebuild instead of an incremental pass,
// matching spec.md §4.4's default.
const DefaultRebuildThreshold = 0.50

// managedPatterns is the fixed dependency order every pass walks in:
// projects first (milestones reference them), then milestones (issues
// reference them), then issues.
var managedPatterns = []string{"projects", "milestones", "issues"}

// IncrementalStats mirrors the Python original's counters dict.
type IncrementalStats struct {
	FilesChecked int
	FilesChanged int
	FilesSynced  int
	FilesFailed  int
	SyncTime     time.Time
}

// RebuildStats mirrors the full-rebuild counters dict.
type RebuildStats struct {
	FilesProcessed int
	FilesChanged   int
	FilesSynced    int
	FilesFailed    int
	RebuildTime    time.Time
}

// Orchestrator drives one managed directory tree into the store.
type Orchestrator struct {
	store      *store.Store
	roadmapDir string
	threshold  float64
	logger     *slog.Logger
}

// New builds an Orchestrator rooted at roadmapDir (the directory holding
// projects/, milestones/, issues/).
func New(st *store.Store, roadmapDir string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{store: st, roadmapDir: roadmapDir, threshold: DefaultRebuildThreshold, logger: logger}
}

// WithThreshold overrides the rebuild threshold (spec.md §4.4's default
// is 0.50; operators may tune it via config).
func (o *Orchestrator) WithThreshold(threshold float64) *Orchestrator {
	o.threshold = threshold
	return o
}

// ShouldFullRebuild implements spec.md §4.4's decision rule: rebuild if
// there is no incremental-sync checkpoint, or if changed/total managed
// files meets the threshold.
func (o *Orchestrator) ShouldFullRebuild(ctx context.Context, force bool) bool {
	if force {
		return true
	}

	if _, ok, err := o.store.GetSyncState(ctx, model.KVLastIncrementalSync); err != nil || !ok {
		return true
	}

	files, err := o.walkManaged()
	if err != nil {
		return true
	}

	if len(files) == 0 {
		return false
	}

	changed := 0

	for _, f := range files {
		if o.hasFileChanged(ctx, f) {
			changed++
		}
	}

	return float64(changed)/float64(len(files)) >= o.threshold
}

// RunIncremental processes only files whose content hash differs from
// the last recorded file_sync_state row. A single file's failure is
// folded into FilesFailed and does not abort the pass.
func (o *Orchestrator) RunIncremental(ctx context.Context) (IncrementalStats, error) {
	stats := IncrementalStats{SyncTime: time.Now().UTC()}

	files, err := o.walkManaged()
	if err != nil {
		return stats, fmt.Errorf("orchestrator: walking %s: %w", o.roadmapDir, err)
	}

	for _, f := range files {
		stats.FilesChecked++

		if !o.hasFileChanged(ctx, f) {
			continue
		}

		stats.FilesChanged++

		if o.syncFile(ctx, f) {
			stats.FilesSynced++
		} else {
			stats.FilesFailed++
		}
	}

	if err := o.store.SetSyncState(ctx, model.KVLastIncrementalSync, stats.SyncTime.Format(time.RFC3339)); err != nil {
		return stats, fmt.Errorf("orchestrator: recording incremental checkpoint: %w", err)
	}

	o.logger.Info("incremental sync completed",
		slog.Int("files_checked", stats.FilesChecked),
		slog.Int("files_changed", stats.FilesChanged),
		slog.Int("files_synced", stats.FilesSynced),
		slog.Int("files_failed", stats.FilesFailed),
	)

	return stats, nil
}

// RunFull clears file_sync_state and issues (projects/milestones survive
// since reconstructing the issue graph is the common, cheap case) and
// resynchronizes every managed file from scratch.
func (o *Orchestrator) RunFull(ctx context.Context) (RebuildStats, error) {
	stats := RebuildStats{RebuildTime: time.Now().UTC()}

	if err := o.clearForRebuild(ctx); err != nil {
		return stats, fmt.Errorf("orchestrator: clearing for rebuild: %w", err)
	}

	o.logger.Info("starting full rebuild from managed files")

	files, err := o.walkManaged()
	if err != nil {
		return stats, fmt.Errorf("orchestrator: walking %s: %w", o.roadmapDir, err)
	}

	for _, f := range files {
		stats.FilesProcessed++
		stats.FilesChanged++

		if o.syncFile(ctx, f) {
			stats.FilesSynced++
		} else {
			stats.FilesFailed++
		}
	}

	if err := o.store.SetSyncState(ctx, model.KVLastFullRebuild, stats.RebuildTime.Format(time.RFC3339)); err != nil {
		return stats, fmt.Errorf("orchestrator: recording rebuild checkpoint: %w", err)
	}

	o.logger.Info("full rebuild completed",
		slog.Int("files_processed", stats.FilesProcessed),
		slog.Int("files_synced", stats.FilesSynced),
		slog.Int("files_failed", stats.FilesFailed),
	)

	return stats, nil
}
