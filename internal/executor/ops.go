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

// RunIssues executes the six primitives for the issue entity type:
// locals not yet linked are pushed, remotes not yet linked are pulled,
// linked pairs with a local-side change are pushed as updates, linked
// pairs with a remote-side change are pulled as updates, both-sides-
// changed pairs are recorded as conflicts rather than resolved, and
// linkActions (from the duplicate resolver) pair existing rows without
// creating or fetching anything.
func (e *Executor) RunIssues(
	ctx context.Context,
	backendName string,
	backend remote.Backend,
	locals []*model.Issue,
	remotes map[string]*model.SyncIssue,
	linkActions []*model.ResolutionAction,
) *Report {
	report := newReport()

	handled := make(map[string]bool) // remote ids already accounted for

	for _, action := range linkActions {
		if action.Action != model.ActionLink {
			continue
		}

		if err := e.st.LinkAndTouch(ctx, "issue", action.CanonicalID, backendName, action.DuplicateID); err != nil {
			report.recordError(action.CanonicalID, err)
			continue
		}

		handled[action.DuplicateID] = true
	}

	for _, local := range locals {
		link, err := e.st.GetRemoteLink(ctx, local.LocalID, "issue", backendName)

		switch {
		case errors.Is(err, store.ErrNotFound):
			e.pushIssue(ctx, backendName, backend, local, report)
		case err != nil:
			report.recordError(local.LocalID, err)
		default:
			e.reconcileLinkedIssue(ctx, backendName, backend, local, link, remotes[link.RemoteID], report)
			handled[link.RemoteID] = true
		}
	}

	for remoteID, si := range remotes {
		if handled[remoteID] {
			continue
		}

		e.pullIssue(ctx, backendName, si, report)
	}

	return report
}

// pushIssue implements primitive 1: create the remote side for a local
// entity with no existing link, then link+touch atomically. Called only
// when GetRemoteLink reports ErrNotFound.
//
// At-most-once effects: a ledger row is claimed before the create call
// and completed after. If a prior run crashed between the claim and the
// completion, FindActive finds the surviving claimed row here instead of
// ErrNotFound, and the push is skipped with a warning so no second remote
// record is created. No remote record is looked up or linked for it, and
// the row stays claimed, so later runs skip this push as well.
func (e *Executor) pushIssue(ctx context.Context, backendName string, backend remote.Backend, local *model.Issue, report *Report) {
	if row, err := e.ledger.FindActive(ctx, "issue", local.LocalID, backendName); err == nil {
		e.logger.Warn("push: found surviving claimed ledger row, skipping re-create", "local_id", local.LocalID, "ledger_id", row.ID)
		return
	}

	ids, err := e.ledger.WriteActions(ctx, []store.LedgerAction{
		{CycleID: "", ActionType: "push", EntityType: "issue", EntityID: local.LocalID, BackendName: backendName},
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

	payload := issuePayloadFromLocal(local)

	res := retryCall(ctx, e, backendName, func() syncerr.Result[*model.SyncIssue] {
		return backend.CreateIssue(ctx, payload)
	})
	if res.IsErr() {
		_ = e.ledger.Fail(ctx, ledgerID, res.UnwrapErr().Error())
		report.recordError(local.LocalID, res.UnwrapErr())

		return
	}

	si := res.Unwrap()

	if err := e.st.LinkAndTouch(ctx, "issue", local.LocalID, backendName, si.BackendID); err != nil {
		_ = e.ledger.Fail(ctx, ledgerID, err.Error())
		report.recordError(local.LocalID, err)

		return
	}

	_ = e.ledger.Complete(ctx, ledgerID)

	report.Pushed = append(report.Pushed, local.LocalID)
}

// pullIssue implements primitive 2: materialize a remote-only issue
// locally under a freshly minted local id, then link+touch.
func (e *Executor) pullIssue(ctx context.Context, backendName string, si *model.SyncIssue, report *Report) {
	issue := issueFromSync(si)
	issue.LocalID = uuid.NewString()

	if err := e.st.UpsertIssue(ctx, issue); err != nil {
		report.recordError(si.BackendID, err)
		return
	}

	if err := e.st.LinkAndTouch(ctx, "issue", issue.LocalID, backendName, si.BackendID); err != nil {
		report.recordError(issue.LocalID, err)
		return
	}

	report.Pulled = append(report.Pulled, issue.LocalID)
}

// reconcileLinkedIssue dispatches a linked pair to primitive 3
// (update-push), primitive 4 (update-pull), or primitive 6
// (conflict-record), per which side changed after link.LastSync. A nil
// si means the remote side is gone from the listed set (deleted or
// outside the filter); left untouched rather than guessed at.
func (e *Executor) reconcileLinkedIssue(
	ctx context.Context, backendName string, backend remote.Backend,
	local *model.Issue, link *model.RemoteLink, si *model.SyncIssue, report *Report,
) {
	if si == nil {
		return
	}

	localChanged := local.UpdatedAt.After(link.LastSync)
	remoteChanged := si.UpdatedAt.After(link.LastSync)

	switch {
	case localChanged && remoteChanged:
		report.Conflicts = append(report.Conflicts, SyncConflict{
			EntityType: "issue", EntityID: local.LocalID, Local: local, Remote: si,
		})
	case localChanged:
		e.updatePushIssue(ctx, backendName, backend, local, link, report)
	case remoteChanged:
		e.updatePullIssue(ctx, backendName, local, si, report)
	}
}

// updatePushIssue implements primitive 3.
func (e *Executor) updatePushIssue(ctx context.Context, backendName string, backend remote.Backend, local *model.Issue, link *model.RemoteLink, report *Report) {
	payload := issuePayloadFromLocal(local)

	res := retryCall(ctx, e, backendName, func() syncerr.Result[*model.SyncIssue] {
		return backend.UpdateIssue(ctx, link.RemoteID, payload)
	})
	if res.IsErr() {
		report.recordError(local.LocalID, res.UnwrapErr())
		return
	}

	if err := e.st.LinkAndTouch(ctx, "issue", local.LocalID, backendName, link.RemoteID); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	report.Pushed = append(report.Pushed, local.LocalID)
}

// updatePullIssue implements primitive 4: the remote snapshot wins for
// every field the wire carries; local-only bookkeeping (project,
// milestone, dependencies) is preserved from the existing row.
func (e *Executor) updatePullIssue(ctx context.Context, backendName string, local *model.Issue, si *model.SyncIssue, report *Report) {
	updated := issueFromSync(si)
	updated.LocalID = local.LocalID
	updated.ProjectID = local.ProjectID
	updated.MilestoneID = local.MilestoneID
	updated.DependsOn = local.DependsOn

	if err := e.st.UpsertIssue(ctx, updated); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	if err := e.st.LinkAndTouch(ctx, "issue", local.LocalID, backendName, si.BackendID); err != nil {
		report.recordError(local.LocalID, err)
		return
	}

	report.Pulled = append(report.Pulled, local.LocalID)
}

func issuePayloadFromLocal(local *model.Issue) remote.IssuePayload {
	state := "open"
	if local.Status == model.StatusClosed {
		state = "closed"
	}

	return remote.IssuePayload{
		Title:    local.Title,
		Body:     local.Body,
		Labels:   local.Labels,
		Assignee: local.Assignee,
		State:    state,
	}
}

func issueFromSync(si *model.SyncIssue) *model.Issue {
	status := model.StatusTodo
	if si.State == "closed" {
		status = model.StatusClosed
	}

	return &model.Issue{
		Title:     si.Title,
		Body:      si.Body,
		Status:    status,
		Assignee:  si.Assignee,
		Labels:    si.Labels,
		CreatedAt: si.CreatedAt,
		UpdatedAt: si.UpdatedAt,
	}
}
