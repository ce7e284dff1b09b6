package executor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/remote"
	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/syncerr"
)

// RunMilestones executes the same six primitives as RunIssues, for the
// milestone entity type. Callers run this before RunIssues: issues
// reference milestones by local ID, so a milestone must be linked
// before the issue referencing it is pushed (spec.md §4.8).
func (e *Executor) RunMilestones(
	ctx context.Context,
	backendName string,
	backend remote.Backend,
	locals []*model.Milestone,
	remotes map[string]*model.SyncMilestone,
	linkActions []*model.ResolutionAction,
) *Report {
	report := newReport()

	handled := make(map[string]bool)

	for _, action := range linkActions {
		if action.Action != model.ActionLink {
			continue
		}

		if err := e.st.LinkAndTouch(ctx, "milestone", action.CanonicalID, backendName, action.DuplicateID); err != nil {
			report.recordError(action.CanonicalID, err)
			continue
		}

		handled[action.DuplicateID] = true
	}

	for _, local := range locals {
		link, err := e.st.GetRemoteLink(ctx, local.LocalID, "milestone", backendName)

		switch {
		case errors.Is(err, store.ErrNotFound):
			e.pushMilestone(ctx, backendName, backend, local, report)
		case err != nil:
			report.recordError(local.LocalID, err)
		default:
			e.reconcileLinkedMilestone(ctx, backendName, backend, local, link, remotes[link.RemoteID], report)
			handled[link.RemoteID] = true
		}
	}

	for remoteID, sm := range remotes {
		if handled[remoteID] {
			continue
		}

		e.pullMilestone(ctx, backendName, sm, report)
	}

	return report
}

// pushMilestone mirrors pushIssue's at-most-once shape: FindActive guards
// against re-creating a milestone whose prior create outcome is unknown.
func (e *Executor) pushMilestone(ctx context.Context, backendName string, backend remote.Backend, local *model.Milestone, report *Report) {
	if row, err := e.ledger.FindActive(ctx, "milestone", local.LocalID, backendName); err == nil {
		e.logger.Warn("push: found surviving claimed ledger row, skipping re-create", "local_id", local.LocalID, "ledger_id", row.ID)
		return
	}

	ids, err := e.ledger.WriteActions(ctx, []store.LedgerAction{
		{CycleID: "", ActionType: "push", EntityType: "milestone", EntityID: local.LocalID, BackendName: backendName},
	})
	if err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	ledgerID := ids[0]
	if err := e.ledger.Claim(ctx, ledgerID); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	payload := milestonePayloadFromLocal(local)

	res := retryCall(ctx, e, backendName, func() syncerr.Result[*model.SyncMilestone] {
		return backend.CreateMilestone(ctx, payload)
	})
	if res.IsErr() {
		_ = e.ledger.Fail(ctx, ledgerID, res.UnwrapErr().Error())
		report.recordError(local.LocalID, res.UnwrapErr())

		return
	}

	sm := res.Unwrap()

	if err := e.st.LinkAndTouch(ctx, "milestone", local.LocalID, backendName, sm.BackendID); err != nil {
		_ = e.ledger.Fail(ctx, ledgerID, err.Error())
		report.recordError(local.LocalID, err)

		return
	}

	_ = e.ledger.Complete(ctx, ledgerID)

	report.Pushed = append(report.Pushed, local.LocalID)
}

// pullMilestone materializes a remote-only milestone locally.
func (e *Executor) pullMilestone(ctx context.Context, backendName string, sm *model.SyncMilestone, report *Report) {
	milestone := milestoneFromSync(sm)
	milestone.LocalID = uuid.NewString()

	if err := e.st.UpsertMilestone(ctx, milestone); err != nil {
		report.recordError(sm.BackendID, err)
		return
	}

	if err := e.st.LinkAndTouch(ctx, "milestone", milestone.LocalID, backendName, sm.BackendID); err != nil {
		report.recordError(milestone.LocalID, err)
		return
	}

	report.Pulled = append(report.Pulled, milestone.LocalID)
}

func (e *Executor) reconcileLinkedMilestone(
	ctx context.Context, backendName string, backend remote.Backend,
	local *model.Milestone, link *model.RemoteLink, sm *model.SyncMilestone, report *Report,
) {
	if sm == nil {
		return
	}

	localChanged := local.UpdatedAt.After(link.LastSync)
	remoteChanged := sm.UpdatedAt.After(link.LastSync)

	switch {
	case localChanged && remoteChanged:
		report.Conflicts = append(report.Conflicts, SyncConflict{
			EntityType: "milestone", EntityID: local.LocalID, Local: local, Remote: sm,
		})
	case localChanged:
		e.updatePushMilestone(ctx, backendName, backend, local, link, report)
	case remoteChanged:
		e.updatePullMilestone(ctx, backendName, local, sm, report)
	}
}

func (e *Executor) updatePushMilestone(ctx context.Context, backendName string, backend remote.Backend, local *model.Milestone, link *model.RemoteLink, report *Report) {
	payload := milestonePayloadFromLocal(local)

	res := retryCall(ctx, e, backendName, func() syncerr.Result[*model.SyncMilestone] {
		return backend.UpdateMilestone(ctx, link.RemoteID, payload)
	})
	if res.IsErr() {
		report.recordError(local.LocalID, res.UnwrapErr())
		return
	}

	if err := e.st.LinkAndTouch(ctx, "milestone", local.LocalID, backendName, link.RemoteID); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	report.Pushed = append(report.Pushed, local.LocalID)
}

// updatePullMilestone mirrors updatePullIssue: the remote snapshot wins
// for wire fields; the local-only project binding is preserved.
func (e *Executor) updatePullMilestone(ctx context.Context, backendName string, local *model.Milestone, sm *model.SyncMilestone, report *Report) {
	updated := milestoneFromSync(sm)
	updated.LocalID = local.LocalID
	updated.ProjectID = local.ProjectID

	if err := e.st.UpsertMilestone(ctx, updated); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	if err := e.st.LinkAndTouch(ctx, "milestone", local.LocalID, backendName, sm.BackendID); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	report.Pulled = append(report.Pulled, local.LocalID)
}

func milestonePayloadFromLocal(local *model.Milestone) remote.MilestonePayload {
	state := "open"
	if local.Status == model.MilestoneClosed {
		state = "closed"
	}

	due := ""
	if local.DueDate != nil {
		due = local.DueDate.Format("2006-01-02")
	}

	return remote.MilestonePayload{
		Name:        local.Name,
		Description: local.Headline,
		DueOn:       due,
		State:       state,
	}
}

func milestoneFromSync(sm *model.SyncMilestone) *model.Milestone {
	status := model.MilestoneOpen
	if sm.State == "closed" {
		status = model.MilestoneClosed
	}

	return &model.Milestone{
		Name:      sm.Title,
		Status:    status,
		DueDate:   sm.DueOn,
		CreatedAt: sm.CreatedAt,
		UpdatedAt: sm.UpdatedAt,
	}
}
