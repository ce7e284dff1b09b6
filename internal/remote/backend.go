// Package remote implements the Remote Backend Port: an
// implementation-agnostic interface over a GitHub-class issue tracker,
// satisfied here by a GitHub REST backend built on go-github.
//
// Grounded on the teacher's internal/graph package (client shape,
// status-code classification) and spec.md §4.5's operation list.
package remote

import (
	"context"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/syncerr"
)

// IssueFilter narrows list_issues; backend-specific fields are passed
// through when the concrete backend supports them (spec.md §9: pass-
// through permitted, not required).
type IssueFilter struct {
	Labels    []string
	Milestone string
	Assignee  string
	State     string
}

// IssuePayload is the creation/update payload for an issue. The GitHub
// backend sends Labels and Assignee as given, without checking them
// against the remote, so an unknown label or assignee is not dropped from
// the request; Milestone is not sent.
type IssuePayload struct {
	Title     string
	Body      string
	Labels    []string
	Assignee  string
	Milestone string
	State     string // mapped from local status: closed -> closed, else open
}

type MilestonePayload struct {
	Name        string
	Description string
	DueOn       string
	State       string
}

// Backend is the abstract contract every sync backend ("github", "git",
// ...) implements. Every method returns a syncerr.Result so no error
// crosses as a bare Go panic; the concrete implementation is responsible
// for translating transport/HTTP failures into a *syncerr.SyncError.
type Backend interface {
	Name() string

	Authenticate(ctx context.Context) syncerr.Result[struct{}]

	ListIssues(ctx context.Context, filter IssueFilter) syncerr.Result[map[string]*model.SyncIssue]
	GetIssue(ctx context.Context, remoteID string) syncerr.Result[*model.SyncIssue]
	CreateIssue(ctx context.Context, payload IssuePayload) syncerr.Result[*model.SyncIssue]
	UpdateIssue(ctx context.Context, remoteID string, payload IssuePayload) syncerr.Result[*model.SyncIssue]

	ListMilestones(ctx context.Context) syncerr.Result[map[string]*model.SyncMilestone]
	GetMilestone(ctx context.Context, remoteID string) syncerr.Result[*model.SyncMilestone]
	CreateMilestone(ctx context.Context, payload MilestonePayload) syncerr.Result[*model.SyncMilestone]
	UpdateMilestone(ctx context.Context, remoteID string, payload MilestonePayload) syncerr.Result[*model.SyncMilestone]
	DeleteMilestone(ctx context.Context, remoteID string) syncerr.Result[struct{}]
}
