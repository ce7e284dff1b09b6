package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// exitCode is set by command handlers that need a specific process exit
// status (e.g. 2 for "already initialized"); main reads it after
// Execute returns. Defaults to 0, bumped to 1 by exitOnError.
var exitCode int

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagRepoRoot   string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that handle config loading
// themselves (init, before any config.yaml exists).
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles the resolved configuration and logger built once in
// PersistentPreRunE, mirroring the teacher's cliContextKey/
// mustCLIContext pattern so RunE handlers don't each re-resolve config.
type CLIContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	RepoRoot string
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics — a programmer error,
// since the command tree guarantees PersistentPreRunE populates it
// before any RunE without skipConfigAnnotation runs.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — command is missing skipConfigAnnotation or RunE ran before PersistentPreRunE")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with
// all subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ghsync",
		Short:         "File-backed issue tracker sync engine",
		Long:          "ghsync keeps a markdown-frontmatter issue tracker in a git repo in sync with GitHub Issues.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default <repo>/.roadmap/config.yaml)")
	cmd.PersistentFlags().StringVar(&flagRepoRoot, "repo", "", "repository root (default: current directory)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDepsCmd())
	cmd.AddCommand(newIssueCmd())
	cmd.AddCommand(newConflictsCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// repoRoot returns the configured repository root, defaulting to the
// current working directory.
func repoRoot() (string, error) {
	if flagRepoRoot != "" {
		return flagRepoRoot, nil
	}

	return os.Getwd()
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in the command's context for use
// by subcommands.
func loadConfig(cmd *cobra.Command) error {
	logger := buildLogger(nil)

	root, err := repoRoot()
	if err != nil {
		return fmt.Errorf("resolving repo root: %w", err)
	}

	env := config.ReadEnvOverrides()
	cfgPath := config.ResolveConfigPath(root, env, flagConfigPath, logger)

	cfg, err := config.Load(cfgPath, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	finalLogger := buildLogger(cfg)
	cc := &CLIContext{Cfg: cfg, Logger: finalLogger, RepoRoot: root}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config
// and CLI flags. Pass nil for pre-config bootstrap. Config-file log
// level is the baseline; --verbose/--debug/--quiet (mutually exclusive)
// always override it.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and sets
// the process exit code to 1 (unless a handler already set a more
// specific code, e.g. 2 for "already initialized").
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if exitCode == 0 {
		exitCode = 1
	}
}
