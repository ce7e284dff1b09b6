package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/config"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/sync"
)

// watchSafetyScanInterval is the fallback full-rebuild cadence in case
// fsnotify misses events (watcher gaps, editors that replace files via
// rename-into-place). Mirrors the teacher's local observer safety scan.
const watchSafetyScanInterval = 5 * time.Minute

// watchDebounce coalesces bursts of fsnotify events (e.g. an editor's
// write-then-rename save sequence) into a single sync cycle.
const watchDebounce = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the managed subtree and sync on change",
		Long: `Runs as a long-lived foreground process: an fsnotify watch on
.roadmap triggers an incremental sync shortly after any managed file
changes, with a periodic full rebuild as a safety net. A PID file at
.roadmap/watch.pid prevents more than one watcher running against the
same repository at once. SIGINT/SIGTERM trigger a graceful stop after
the in-flight cycle finishes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "force a full rebuild on the first cycle")

	return cmd
}

func runWatch(cmd *cobra.Command, force bool) error {
	cc := mustCLIContext(cmd.Context())

	pidPath := filepath.Join(config.RoadmapDir(cc.RepoRoot), "watch.pid")

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := shutdownContext(cmd.Context(), cc.Logger)

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := newEngine(ctx, cc, st)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	roadmapDir := config.RoadmapDir(cc.RepoRoot)

	if err := addWatchesRecursive(watcher, roadmapDir); err != nil {
		return fmt.Errorf("adding watches under %s: %w", roadmapDir, err)
	}

	statusf("Watching %s (PID %d)\n", roadmapDir, os.Getpid())

	runAndReport(ctx, engine, st, cc.Logger, force)

	return watchLoop(ctx, watcher, engine, st, cc.Logger)
}

// addWatchesRecursive adds an fsnotify watch on every directory under
// root, so new subdirectories created after startup (archive/ folders,
// a freshly-created project) aren't missed.
func addWatchesRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}

			return walkErr
		}

		if !d.IsDir() {
			return nil
		}

		return watcher.Add(path)
	})
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, engine *sync.Engine, st *store.Store, logger *slog.Logger) error {
	safetyTicker := time.NewTicker(watchSafetyScanInterval)
	defer safetyTicker.Stop()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) && isLikelyDir(ev.Name) {
				_ = watcher.Add(ev.Name)
			}

			if debounce == nil {
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(watchDebounce)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watcher error", slog.String("error", werr.Error()))

		case <-pending:
			runAndReport(ctx, engine, st, logger, false)

		case <-safetyTicker.C:
			runAndReport(ctx, engine, st, logger, true)
		}
	}
}

// isLikelyDir guesses whether a Create event names a directory, since
// fsnotify doesn't carry that in the event itself. A mistaken Add on a
// plain file is harmless — fsnotify.Watcher.Add just watches it too.
func isLikelyDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func runAndReport(ctx context.Context, engine *sync.Engine, st *store.Store, logger *slog.Logger, force bool) {
	report, err := engine.RunOnce(ctx, sync.RunOpts{Force: force})
	if err != nil {
		logger.Error("sync cycle failed", slog.String("error", err.Error()))
		return
	}

	if err := persistConflicts(ctx, st, report); err != nil {
		logger.Warn("failed to persist conflicts", slog.String("error", err.Error()))
	}

	logger.Info("sync cycle complete",
		slog.Int("files_changed", report.FilesChanged),
		slog.Int("files_synced", report.FilesSynced),
		slog.Int("conflicts", len(report.Conflicts)),
	)
}
