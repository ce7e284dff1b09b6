package main

import (
	"context"
	"fmt"

	"github.com/ghsync/ghsync/internal/config"
	"github.com/ghsync/ghsync/internal/remote"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/sync"
)

// openStore opens the embedded store at its default path
// (~/.roadmap/roadmap.db per spec.md §6), creating it and running
// migrations if necessary.
func openStore(ctx context.Context, cc *CLIContext) (*store.Store, error) {
	path := config.DefaultStorePath()
	if path == "" {
		return nil, fmt.Errorf("cannot determine store path (no home directory)")
	}

	return store.Open(ctx, path, cc.Logger)
}

// backendsFromConfig builds the name->Backend map the Sync Engine syncs
// against. Only the github backend is wired today; a "git" backend
// (push/pull against a second clone, no API) is left for a future pass —
// cfg.SyncBackend selects it but backendsFromConfig currently only
// constructs the one this module implements.
func backendsFromConfig(ctx context.Context, cc *CLIContext) (map[string]remote.Backend, error) {
	env := config.ReadEnvOverrides()
	token := config.ResolveToken(cc.Cfg, env)

	if token == "" {
		return nil, fmt.Errorf("no GitHub token found — set %s (or GHSYNC_TOKEN)", cc.Cfg.GitHub.TokenEnv)
	}

	backend := remote.NewGitHubBackend(ctx, cc.Cfg.GitHub.Owner, cc.Cfg.GitHub.Repo, token)

	return map[string]remote.Backend{"github": backend}, nil
}

// newEngine wires a sync.Engine from the resolved config, store, and
// configured backends.
func newEngine(ctx context.Context, cc *CLIContext, st *store.Store) (*sync.Engine, error) {
	backends, err := backendsFromConfig(ctx, cc)
	if err != nil {
		return nil, err
	}

	roadmapDir := config.RoadmapDir(cc.RepoRoot)

	engCfg := sync.Config{
		RoadmapDir:       roadmapDir,
		RebuildThreshold: cc.Cfg.Roadmap.RebuildThreshold,
		DetectorConfig:   cc.Cfg.Dedup.ToDetectorConfig(),
		Logger:           cc.Logger,
	}

	return sync.New(st, roadmapDir, backends, engCfg), nil
}
