package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/executor"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/sync"
)

// kvLastConflicts is the sync_state key the most recent sync cycle's
// unresolved version conflicts (both sides changed since last sync) are
// persisted under, so `ghsync conflicts` can list them after the run
// that found them has exited.
const kvLastConflicts = "last_conflicts"

// persistConflicts JSON-encodes report.Conflicts into the store's
// generic sync_state table, so they survive past the sync run that
// produced them.
func persistConflicts(ctx context.Context, st *store.Store, report *sync.SyncReport) error {
	data, err := json.Marshal(report.Conflicts)
	if err != nil {
		return fmt.Errorf("encoding conflicts: %w", err)
	}

	return st.SetSyncState(ctx, kvLastConflicts, string(data))
}

func loadPersistedConflicts(ctx context.Context, st *store.Store) ([]executor.SyncConflict, error) {
	raw, ok, err := st.GetSyncState(ctx, kvLastConflicts)
	if err != nil {
		return nil, fmt.Errorf("reading conflicts: %w", err)
	}

	if !ok || raw == "" {
		return nil, nil
	}

	var conflicts []executor.SyncConflict
	if err := json.Unmarshal([]byte(raw), &conflicts); err != nil {
		return nil, fmt.Errorf("decoding conflicts: %w", err)
	}

	return conflicts, nil
}

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List unresolved version conflicts from the last sync",
		Long: `Display entities that changed on both the local and remote side
since the last sync, recorded by the most recent 'ghsync sync' run.

Use 'ghsync resolve' to resolve pending duplicate matches interactively.`,
		RunE: runConflicts,
	}
}

func runConflicts(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	st, err := openStore(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer st.Close()

	conflicts, err := loadPersistedConflicts(cmd.Context(), st)
	if err != nil {
		return err
	}

	if len(conflicts) == 0 {
		fmt.Println("No unresolved conflicts.")
		return nil
	}

	if flagJSON {
		return printConflictsJSON(conflicts)
	}

	printConflictsTable(conflicts)

	return nil
}

func printConflictsJSON(conflicts []executor.SyncConflict) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(conflicts)
}

func printConflictsTable(conflicts []executor.SyncConflict) {
	headers := []string{"ID", "TYPE"}
	rows := make([][]string, len(conflicts))

	for i, c := range conflicts {
		rows[i] = []string{truncateID(c.EntityID), c.EntityType}
	}

	printTable(os.Stdout, headers, rows)
}
