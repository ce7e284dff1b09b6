// Package sync houses the top-level Sync Engine: the run-cycle that ties
// the Change Monitor, Sync Orchestrator, Remote Backend, Duplicate
// Detector/Resolver, and Sync Executor into one cycle producing a
// consolidated SyncReport.
//
// Grounded on the teacher's own internal/sync/engine.go RunOnce, whose
// nine-step shape (load baseline -> observe -> buffer/flush -> plan ->
// execute -> commit) is kept as the run-cycle's overall structure, with
// every step's body replaced: "observe" becomes the Change Monitor plus
// Sync Orchestrator's incremental/full-rebuild pass, "plan" becomes the
// Duplicate Detector and Resolver, and "execute/commit" becomes the Sync
// Executor's per-entity-type batches followed by recording the synced
// git commit.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ghsync/ghsync/internal/dedup"
	"github.com/ghsync/ghsync/internal/executor"
	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/orchestrator"
	"github.com/ghsync/ghsync/internal/remote"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/vcs"
)

// Config holds the options for New.
type Config struct {
	RoadmapDir       string
	RebuildThreshold float64 // 0 means orchestrator.DefaultRebuildThreshold
	DetectorConfig   dedup.Config
	Logger           *slog.Logger
}

// RunOpts holds per-cycle options for RunOnce.
type RunOpts struct {
	Force       bool             // force a full rebuild regardless of the orchestrator's threshold rule
	Interactive bool             // resolve non-automatic duplicate matches interactively; otherwise they produce no action
	Prompt      dedup.PromptFunc // required when Interactive is true
}

// SyncReport summarizes one complete sync cycle across every configured
// backend: local rebuild/incremental stats folded in, plus each
// backend's pushed/pulled/conflict/error sets merged together.
type SyncReport struct {
	Duration time.Duration

	FilesChecked int
	FilesChanged int
	FilesSynced  int
	FilesFailed  int
	FullRebuild  bool

	Pushed    []string
	Pulled    []string
	Conflicts []executor.SyncConflict
	Errors    map[string]string

	Fatal error
}

func newSyncReport() *SyncReport {
	return &SyncReport{Errors: make(map[string]string)}
}

func (r *SyncReport) merge(er *executor.Report) {
	r.Pushed = append(r.Pushed, er.Pushed...)
	r.Pulled = append(r.Pulled, er.Pulled...)
	r.Conflicts = append(r.Conflicts, er.Conflicts...)

	for id, msg := range er.Errors {
		r.Errors[id] = msg
	}
}

// Engine orchestrates a complete sync cycle: detect local/remote change,
// dedup within and across sides, resolve matches, execute the six
// primitives against every configured backend.
type Engine struct {
	store        *store.Store
	ledger       *store.Ledger
	orchestrator *orchestrator.Orchestrator
	monitor      *vcs.Monitor
	executor     *executor.Executor
	resolver     *dedup.Resolver
	detectorCfg  dedup.Config
	backends     map[string]remote.Backend
	roadmapDir   string
	logger       *slog.Logger
}

// New builds an Engine bound to st, walking roadmapDir, syncing against
// backends (keyed by backend name, e.g. "github").
func New(st *store.Store, roadmapDir string, backends map[string]remote.Backend, cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	orch := orchestrator.New(st, roadmapDir, cfg.Logger)
	if cfg.RebuildThreshold > 0 {
		orch = orch.WithThreshold(cfg.RebuildThreshold)
	}

	detectorCfg := cfg.DetectorConfig
	if detectorCfg == (dedup.Config{}) {
		detectorCfg = dedup.DefaultConfig()
	}

	ledger := store.NewLedger(st.DB(), cfg.Logger)

	return &Engine{
		store:        st,
		ledger:       ledger,
		orchestrator: orch,
		monitor:      vcs.New(roadmapDir, st),
		executor:     executor.New(st, ledger, cfg.Logger),
		resolver:     dedup.NewResolver(detectorCfg),
		detectorCfg:  detectorCfg,
		backends:     backends,
		roadmapDir:   roadmapDir,
		logger:       cfg.Logger,
	}
}

// RunOnce executes a single sync cycle:
//  1. Sync local managed files into the store (incremental, or a full
//     rebuild if the orchestrator's threshold rule or opts.Force says so).
//  2. For each configured backend: list remote milestones and issues.
//  3. Self-dedup each side independently, then cross-match local against
//     remote.
//  4. Resolve matches: automatic link actions always; non-automatic
//     matches go interactive (if opts.Interactive) and otherwise produce
//     no action. The executor records a conflict only for a linked pair
//     changed on both sides since its last sync.
//  5. Run the Sync Executor's six primitives, milestones before issues
//     (issues reference them).
//  6. Record the synced git commit, so the next run's Change Monitor
//     pass is incremental.
func (e *Engine) RunOnce(ctx context.Context, opts RunOpts) (*SyncReport, error) {
	start := time.Now()
	report := newSyncReport()

	e.logger.Info("sync cycle starting", slog.Bool("force", opts.Force))

	if err := e.syncLocal(ctx, opts.Force, report); err != nil {
		report.Fatal = err
		report.Duration = time.Since(start)

		return report, err
	}

	for name, backend := range e.backends {
		if err := e.runBackend(ctx, name, backend, opts, report); err != nil {
			report.recordFatalBackendError(name, err)
		}
	}

	if e.monitor.IsGitRepository(ctx) {
		if err := e.monitor.SyncToStore(ctx); err != nil {
			e.logger.Warn("could not record synced commit", slog.String("error", err.Error()))
		}
	}

	report.Duration = time.Since(start)

	e.logger.Info("sync cycle complete",
		slog.Duration("duration", report.Duration),
		slog.Int("pushed", len(report.Pushed)),
		slog.Int("pulled", len(report.Pulled)),
		slog.Int("conflicts", len(report.Conflicts)),
		slog.Int("errors", len(report.Errors)),
	)

	return report, nil
}

func (r *SyncReport) recordFatalBackendError(backendName string, err error) {
	r.Errors["backend:"+backendName] = err.Error()
}

// syncLocal runs the Sync Orchestrator's incremental-vs-full-rebuild
// decision and folds its counters into report.
func (e *Engine) syncLocal(ctx context.Context, force bool, report *SyncReport) error {
	if e.orchestrator.ShouldFullRebuild(ctx, force) {
		stats, err := e.orchestrator.RunFull(ctx)
		if err != nil {
			return fmt.Errorf("sync: full rebuild: %w", err)
		}

		report.FullRebuild = true
		report.FilesChecked = stats.FilesProcessed
		report.FilesChanged = stats.FilesChanged
		report.FilesSynced = stats.FilesSynced
		report.FilesFailed = stats.FilesFailed

		return nil
	}

	stats, err := e.orchestrator.RunIncremental(ctx)
	if err != nil {
		return fmt.Errorf("sync: incremental pass: %w", err)
	}

	report.FilesChecked = stats.FilesChecked
	report.FilesChanged = stats.FilesChanged
	report.FilesSynced = stats.FilesSynced
	report.FilesFailed = stats.FilesFailed

	return nil
}

// runBackend dedups, resolves, and executes one backend's sync batch,
// milestones before issues.
func (e *Engine) runBackend(ctx context.Context, name string, backend remote.Backend, opts RunOpts, report *SyncReport) error {
	localMilestones, err := e.store.ListAllMilestones(ctx)
	if err != nil {
		return fmt.Errorf("sync: listing local milestones: %w", err)
	}

	remoteMilestonesRes := backend.ListMilestones(ctx)
	if remoteMilestonesRes.IsErr() {
		return fmt.Errorf("sync: listing %s milestones: %w", name, remoteMilestonesRes.UnwrapErr())
	}

	remoteMilestones := remoteMilestonesRes.Unwrap()

	milestoneActions, err := e.resolveDuplicates(milestoneEntities(localMilestones), syncMilestoneEntities(remoteMilestones), "milestone", name, opts)
	if err != nil {
		return err
	}

	milestoneReport := e.executor.RunMilestones(ctx, name, backend, localMilestones, remoteMilestones, milestoneActions)
	report.merge(milestoneReport)

	localIssues, err := e.store.ListAllIssues(ctx)
	if err != nil {
		return fmt.Errorf("sync: listing local issues: %w", err)
	}

	remoteIssuesRes := backend.ListIssues(ctx, remote.IssueFilter{})
	if remoteIssuesRes.IsErr() {
		return fmt.Errorf("sync: listing %s issues: %w", name, remoteIssuesRes.UnwrapErr())
	}

	remoteIssues := remoteIssuesRes.Unwrap()

	issueActions, err := e.resolveDuplicates(issueEntities(localIssues), syncIssueEntities(remoteIssues), "issue", name, opts)
	if err != nil {
		return err
	}

	issueReport := e.executor.RunIssues(ctx, name, backend, localIssues, remoteIssues, issueActions)
	report.merge(issueReport)

	return nil
}

// resolveDuplicates runs the Duplicate Detector's self-dedup and
// cross-match passes, then the Resolver's automatic pass, followed by an
// interactive pass over the remaining non-automatic matches when
// opts.Interactive is set.
func (e *Engine) resolveDuplicates(local, remote []model.Entity, entityType, backendName string, opts RunOpts) ([]*model.ResolutionAction, error) {
	localCanonical, _, err := dedup.SelfDedup(context.Background(), local, backendName, e.detectorCfg)
	if err != nil {
		return nil, fmt.Errorf("sync: self-dedup local: %w", err)
	}

	remoteCanonical, _, err := dedup.SelfDedup(context.Background(), remote, backendName, e.detectorCfg)
	if err != nil {
		return nil, fmt.Errorf("sync: self-dedup remote: %w", err)
	}

	matches := dedup.CrossMatch(localCanonical, remoteCanonical, backendName, e.detectorCfg)

	actions := e.resolver.ResolveAutomatic(matches)

	if !opts.Interactive || opts.Prompt == nil {
		return actions, nil
	}

	var manual []*model.DuplicateMatch

	automaticPairs := make(map[[2]string]bool, len(actions))

	for _, a := range actions {
		automaticPairs[[2]string{a.CanonicalID, a.DuplicateID}] = true
	}

	for _, m := range matches {
		if automaticPairs[[2]string{m.LocalEntity.ID(), m.RemoteEntity.ID()}] {
			continue
		}

		manual = append(manual, m)
	}

	interactive := e.resolver.ResolveInteractive(manual, opts.Prompt, e.mergeFunc(entityType, backendName))
	actions = append(actions, interactive...)

	return actions, nil
}

// mergeFunc adapts the store's LinkAndTouch into the resolver's
// MergeFunc contract: "merge" means adopt the local entity as canonical
// and link it to the remote ID. entityType selects which local table
// LinkAndTouch updates ("issue" or "milestone").
func (e *Engine) mergeFunc(entityType, backendName string) dedup.MergeFunc {
	return func(localID, remoteID string) (string, error) {
		if err := e.store.LinkAndTouch(context.Background(), entityType, localID, backendName, remoteID); err != nil {
			return "", err
		}

		return localID, nil
	}
}

func issueEntities(issues []*model.Issue) []model.Entity {
	out := make([]model.Entity, len(issues))
	for i, issue := range issues {
		out[i] = issue.View()
	}

	return out
}

func syncIssueEntities(issues map[string]*model.SyncIssue) []model.Entity {
	out := make([]model.Entity, 0, len(issues))
	for _, si := range issues {
		out = append(out, si.View())
	}

	return out
}

func milestoneEntities(milestones []*model.Milestone) []model.Entity {
	out := make([]model.Entity, len(milestones))
	for i, m := range milestones {
		out[i] = m.View()
	}

	return out
}

func syncMilestoneEntities(milestones map[string]*model.SyncMilestone) []model.Entity {
	out := make([]model.Entity, 0, len(milestones))
	for _, sm := range milestones {
		out = append(out, sm.View())
	}

	return out
}
