package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/config"
)

// exitCodeAlreadyInitialized is returned when `ghsync init` finds an
// existing lockfile — spec.md §6's "Persisted state layout" clause.
const exitCodeAlreadyInitialized = 2

func newInitCmd() *cobra.Command {
	var owner, repo, userName, userEmail string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a repository for ghsync",
		Long: `Create the managed .roadmap/ subtree and config.yaml, and write
the init-guard lockfile. Fails with exit code 2 if the repository is
already initialized.`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(owner, repo, userName, userEmail)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "GitHub repository owner (required)")
	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository name (required)")
	cmd.Flags().StringVar(&userName, "user-name", "", "local user name, attributed to locally authored issues")
	cmd.Flags().StringVar(&userEmail, "user-email", "", "local user email")

	cmd.MarkFlagRequired("owner") //nolint:errcheck
	cmd.MarkFlagRequired("repo")  //nolint:errcheck

	return cmd
}

func runInit(owner, repo, userName, userEmail string) error {
	root, err := repoRoot()
	if err != nil {
		return fmt.Errorf("resolving repo root: %w", err)
	}

	lockPath := config.LockFilePath(root)

	if _, err := os.Stat(lockPath); err == nil {
		exitCode = exitCodeAlreadyInitialized
		return fmt.Errorf("repository already initialized (found %s)", lockPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking lockfile %s: %w", lockPath, err)
	}

	if err := os.MkdirAll(config.RoadmapDir(root), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", config.RoadmapDir(root), err)
	}

	cfgPath := config.ConfigPath(root)
	if err := config.CreateConfig(cfgPath, owner, repo, userName, userEmail); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(lockPath, []byte(root+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing lockfile %s: %w", lockPath, err)
	}

	statusf("Initialized ghsync in %s\n", config.RoadmapDir(root))
	statusf("Config written to %s\n", cfgPath)
	statusf("Set GITHUB_TOKEN in your environment before running 'ghsync sync'.\n")

	return nil
}
