package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/sync"
)

func newSyncCmd() *cobra.Command {
	var flagForce, flagInteractive bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the configured remote",
		Long: `Run a single sync cycle: rebuild or incrementally update the local
store from the managed markdown subtree, then push/pull/link issues and
milestones against every configured backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), flagForce, flagInteractive)
		},
	}

	cmd.Flags().BoolVar(&flagForce, "force", false, "force a full rebuild regardless of the incremental threshold")
	cmd.Flags().BoolVar(&flagInteractive, "interactive", false, "prompt for merge/keep/skip on non-automatic duplicate matches")

	return cmd
}

func runSync(ctx context.Context, force, interactive bool) error {
	cc := mustCLIContext(ctx)

	st, err := openStore(ctx, cc)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	engine, err := newEngine(ctx, cc, st)
	if err != nil {
		return err
	}

	opts := sync.RunOpts{Force: force, Interactive: interactive}
	if interactive {
		opts.Prompt = terminalPrompt()
	}

	report, err := engine.RunOnce(ctx, opts)
	if err != nil && report == nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if err := persistConflicts(ctx, st, report); err != nil {
		cc.Logger.Warn("could not persist conflicts for later listing", "error", err.Error())
	}

	if flagJSON {
		if jsonErr := printSyncJSON(report); jsonErr != nil {
			return jsonErr
		}
	} else {
		printSyncText(report)
	}

	if report.Fatal != nil {
		return fmt.Errorf("sync cycle failed: %w", report.Fatal)
	}

	if len(report.Errors) > 0 {
		return fmt.Errorf("sync completed with %d backend error(s)", len(report.Errors))
	}

	return nil
}

func printSyncText(report *sync.SyncReport) {
	if report.FullRebuild {
		statusf("Full rebuild: %d files checked, %d changed, %d synced, %d failed\n",
			report.FilesChecked, report.FilesChanged, report.FilesSynced, report.FilesFailed)
	} else {
		statusf("Incremental sync: %d files checked, %d changed, %d synced, %d failed\n",
			report.FilesChecked, report.FilesChanged, report.FilesSynced, report.FilesFailed)
	}

	statusf("Pushed: %d  Pulled: %d  Conflicts: %d  Errors: %d  (%s)\n",
		len(report.Pushed), len(report.Pulled), len(report.Conflicts), len(report.Errors), report.Duration)
}

type syncJSONOutput struct {
	DurationMs   int64             `json:"duration_ms"`
	FullRebuild  bool              `json:"full_rebuild"`
	FilesChecked int               `json:"files_checked"`
	FilesChanged int               `json:"files_changed"`
	FilesSynced  int               `json:"files_synced"`
	FilesFailed  int               `json:"files_failed"`
	Pushed       []string          `json:"pushed"`
	Pulled       []string          `json:"pulled"`
	Conflicts    int               `json:"conflicts"`
	Errors       map[string]string `json:"errors"`
}

func printSyncJSON(report *sync.SyncReport) error {
	out := syncJSONOutput{
		DurationMs:   report.Duration.Milliseconds(),
		FullRebuild:  report.FullRebuild,
		FilesChecked: report.FilesChecked,
		FilesChanged: report.FilesChanged,
		FilesSynced:  report.FilesSynced,
		FilesFailed:  report.FilesFailed,
		Pushed:       report.Pushed,
		Pulled:       report.Pulled,
		Conflicts:    len(report.Conflicts),
		Errors:       report.Errors,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
