package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage issue dependencies",
	}

	cmd.AddCommand(newDepsAddCmd())

	return cmd
}

func newDepsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <issue-id> <depends-on-id>",
		Short: "Record that one issue depends on another",
		Long: `Append depends-on-id to issue-id's depends-on list. The relationship
is ordered and no-self-reference is enforced here; cycles across more
than one hop are a soft invariant this command does not check.`,
		Args: cobra.ExactArgs(2),
		RunE: runDepsAdd,
	}
}

func runDepsAdd(cmd *cobra.Command, args []string) error {
	issueID, dependsOnID := args[0], args[1]

	if issueID == dependsOnID {
		return fmt.Errorf("an issue cannot depend on itself")
	}

	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetIssue(ctx, dependsOnID); err != nil {
		return fmt.Errorf("looking up dependency %s: %w", dependsOnID, err)
	}

	issue, err := st.GetIssue(ctx, issueID)
	if err != nil {
		return fmt.Errorf("looking up issue %s: %w", issueID, err)
	}

	if hasDependency(issue.DependsOn, dependsOnID) {
		statusf("%s already depends on %s\n", issueID, dependsOnID)
		return nil
	}

	issue.DependsOn = append(issue.DependsOn, dependsOnID)

	if err := st.UpsertIssue(ctx, issue); err != nil {
		return fmt.Errorf("saving dependency: %w", err)
	}

	statusf("%s now depends on %s\n", issueID, dependsOnID)

	return nil
}

func hasDependency(deps []string, id string) bool {
	for _, d := range deps {
		if d == id {
			return true
		}
	}

	return false
}
