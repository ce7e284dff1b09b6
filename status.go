package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show last sync timestamps and pending conflict count",
		Long: `Display when the local store was last incrementally updated and
last fully rebuilt, the last synced git commit, and how many unresolved
conflicts are pending from the most recent sync.`,
		RunE: runStatus,
	}
}

type statusOutput struct {
	LastSyncedCommit     string `json:"last_synced_commit,omitempty"`
	LastIncrementalSync  string `json:"last_incremental_sync,omitempty"`
	LastFullRebuild      string `json:"last_full_rebuild,omitempty"`
	PendingConflicts     int    `json:"pending_conflicts"`
	GitConflictsDetected bool   `json:"git_conflicts_detected"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	out := statusOutput{}

	if commit, ok, err := st.LastSyncedCommit(ctx); err != nil {
		return fmt.Errorf("reading last synced commit: %w", err)
	} else if ok {
		out.LastSyncedCommit = commit
	}

	if v, ok, err := st.GetSyncState(ctx, model.KVLastIncrementalSync); err != nil {
		return err
	} else if ok {
		out.LastIncrementalSync = formatRFC3339(v)
	}

	if v, ok, err := st.GetSyncState(ctx, model.KVLastFullRebuild); err != nil {
		return err
	} else if ok {
		out.LastFullRebuild = formatRFC3339(v)
	}

	if v, ok, err := st.GetSyncState(ctx, model.KVGitConflictsFound); err != nil {
		return err
	} else if ok {
		out.GitConflictsDetected = v == "true"
	}

	conflicts, err := loadPersistedConflicts(ctx, st)
	if err != nil {
		return err
	}

	out.PendingConflicts = len(conflicts)

	if flagJSON {
		return printStatusJSON(out)
	}

	printStatusText(out)

	return nil
}

// formatRFC3339 parses v (as stored by the orchestrator, RFC3339) and
// renders it for display; on parse failure, returns v unchanged.
func formatRFC3339(v string) string {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}

	return formatTime(t)
}

func printStatusJSON(out statusOutput) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printStatusText(out statusOutput) {
	if out.LastSyncedCommit != "" {
		fmt.Printf("Last synced commit:     %s\n", out.LastSyncedCommit)
	} else {
		fmt.Println("Last synced commit:     (never synced)")
	}

	if out.LastIncrementalSync != "" {
		fmt.Printf("Last incremental sync:  %s\n", out.LastIncrementalSync)
	}

	if out.LastFullRebuild != "" {
		fmt.Printf("Last full rebuild:      %s\n", out.LastFullRebuild)
	}

	fmt.Printf("Pending conflicts:      %d\n", out.PendingConflicts)

	if out.GitConflictsDetected {
		fmt.Println("Git merge conflicts detected in managed files.")
	}
}
