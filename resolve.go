package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/dedup"
	"github.com/ghsync/ghsync/internal/model"
)

func newResolveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Interactively resolve pending duplicate matches",
		Long: `Run a sync cycle with interactive duplicate resolution: every
non-automatic duplicate match (below the auto-resolve threshold, or not
recommended for auto-merge) is presented side-by-side and you choose
merge, keep both, or skip.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), force, true)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "force a full local rebuild before resolving")

	return cmd
}

// terminalPrompt renders each match via dedup.FormatMatch and reads the
// operator's merge/keep/skip choice from stdin. Falls back to "skip" for
// every match when stdout isn't a terminal, so a non-interactive run
// (e.g. piped output, cron) never blocks waiting on input it can't get.
func terminalPrompt() dedup.PromptFunc {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return func(*model.DuplicateMatch) dedup.InteractiveChoice {
			return dedup.ChoiceSkip
		}
	}

	scanner := bufio.NewScanner(os.Stdin)

	return func(m *model.DuplicateMatch) dedup.InteractiveChoice {
		fmt.Fprintln(os.Stdout, "---")

		if err := dedup.FormatMatch(os.Stdout, m); err != nil {
			fmt.Fprintln(os.Stderr, "formatting match:", err)
		}

		fmt.Fprint(os.Stdout, "[m]erge / [k]eep both / [s]kip? ")

		if !scanner.Scan() {
			return dedup.ChoiceSkip
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "m", "merge":
			return dedup.ChoiceMerge
		case "k", "keep":
			return dedup.ChoiceKeep
		default:
			return dedup.ChoiceSkip
		}
	}
}
