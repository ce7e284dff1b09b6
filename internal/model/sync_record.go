package model

import (
	"fmt"
	"time"
)

// SyncIssue is the wire-normalized shape the remote backend port produces
// for an issue, regardless of the concrete remote. Validation invariants
// (id, title, status all non-empty) are enforced at construction via
// NewSyncIssue, not by the zero value.
type SyncIssue struct {
	BackendName string
	BackendID   string
	Title       string
	Body        string
	State       string // normalized status string, e.g. "open"/"closed"
	Labels      []string
	Assignee    string
	Milestone   string // milestone title, as carried on the wire
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RawResponse map[string]any // debugging capture of the original payload
}

// NewSyncIssue validates id, title and state are non-empty before
// returning a SyncIssue, matching the data model's construction
// invariant for canonical remote records.
func NewSyncIssue(backendName, backendID, title, state string) (*SyncIssue, error) {
	if backendID == "" || title == "" || state == "" {
		return nil, fmt.Errorf("model: sync issue requires non-empty id, title and state (backend=%s id=%q title=%q state=%q)",
			backendName, backendID, title, state)
	}

	return &SyncIssue{BackendName: backendName, BackendID: backendID, Title: title, State: state}, nil
}

type syncIssueView struct{ s *SyncIssue }

func (v syncIssueView) ID() string       { return v.s.BackendID }
func (v syncIssueView) Title() string    { return v.s.Title }
func (v syncIssueView) Content() string  { return v.s.Body }
func (v syncIssueView) Labels() []string { return v.s.Labels }
func (v syncIssueView) RemoteID(backend string) (string, bool) {
	if backend != v.s.BackendName {
		return "", false
	}

	return v.s.BackendID, true
}

// View returns the Entity-interface adapter for this sync record.
func (s *SyncIssue) View() Entity { return syncIssueView{s: s} }

// SyncMilestone is the wire-normalized shape for a milestone.
type SyncMilestone struct {
	BackendName string
	BackendID   string
	Title       string
	State       string
	DueOn       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RawResponse map[string]any
}

// NewSyncMilestone enforces the same non-empty id/title/state invariant.
func NewSyncMilestone(backendName, backendID, title, state string) (*SyncMilestone, error) {
	if backendID == "" || title == "" || state == "" {
		return nil, fmt.Errorf("model: sync milestone requires non-empty id, title and state")
	}

	return &SyncMilestone{BackendName: backendName, BackendID: backendID, Title: title, State: state}, nil
}

type syncMilestoneView struct{ s *SyncMilestone }

func (v syncMilestoneView) ID() string       { return v.s.BackendID }
func (v syncMilestoneView) Title() string    { return v.s.Title }
func (v syncMilestoneView) Content() string  { return "" }
func (v syncMilestoneView) Labels() []string { return nil }
func (v syncMilestoneView) RemoteID(backend string) (string, bool) {
	if backend != v.s.BackendName {
		return "", false
	}

	return v.s.BackendID, true
}

// View returns the Entity-interface adapter for this sync record.
func (s *SyncMilestone) View() Entity { return syncMilestoneView{s: s} }

// SyncProject is the wire-normalized shape for a project.
type SyncProject struct {
	BackendName string
	BackendID   string
	Title       string
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RawResponse map[string]any
}

// NewSyncProject enforces the same non-empty id/title/state invariant.
func NewSyncProject(backendName, backendID, title, state string) (*SyncProject, error) {
	if backendID == "" || title == "" || state == "" {
		return nil, fmt.Errorf("model: sync project requires non-empty id, title and state")
	}

	return &SyncProject{BackendName: backendName, BackendID: backendID, Title: title, State: state}, nil
}
