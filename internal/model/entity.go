// Package model defines the local entity types (Issue, Milestone, Project)
// and the canonical wire-normalized records the remote backend port
// produces (SyncIssue, SyncMilestone, SyncProject). Local entities are
// owned exclusively by the store; every other component holds only values
// copied out of a transaction.
package model

import "time"

// Status is the local issue lifecycle state.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusClosed     Status = "closed"
	StatusArchived   Status = "archived"
)

// Priority is an optional issue priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ProjectStatus is a project's lifecycle state.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// MilestoneStatus is a milestone's lifecycle state.
type MilestoneStatus string

const (
	MilestoneOpen   MilestoneStatus = "open"
	MilestoneClosed MilestoneStatus = "closed"
)

// Entity is the small closed trait every local record satisfies, used by
// the duplicate detector and resolver so they need not know concrete
// field layout. Sync records (SyncIssue etc.) implement it too, via
// adapters, so both sides of a cross-match share one shape.
type Entity interface {
	ID() string
	Title() string
	Content() string
	Labels() []string
	RemoteID(backend string) (string, bool)
}

// Issue is the local representation of a tracked issue. Identity is the
// opaque local ID, stable and never reused.
type Issue struct {
	LocalID     string
	Title       string
	Body        string
	Status      Status
	Priority    Priority
	Assignee    string
	MilestoneID string // milestone reference from frontmatter or the CLI, stored as given; a name is not resolved to a local ID
	ProjectID   string
	Labels      []string // set semantics; order irrelevant
	DependsOn   []string // ordered; no self-reference; acyclic is a soft invariant
	RemoteIDs   map[string]string // backend name -> backend-native ID, at most one per backend
	CreatedAt   time.Time
	UpdatedAt   time.Time // monotone non-decreasing on update
	LastSync    time.Time // sync-metadata: last-sync timestamp for conflict detection
}

// entityView adapts an *Issue to the Entity interface without colliding
// the exported Title field with an interface method of the same name.
type issueView struct{ issue *Issue }

func (v issueView) ID() string      { return v.issue.LocalID }
func (v issueView) Title() string   { return v.issue.Title }
func (v issueView) Content() string { return v.issue.Body }
func (v issueView) Labels() []string { return v.issue.Labels }
func (v issueView) RemoteID(backend string) (string, bool) {
	id, ok := v.issue.RemoteIDs[backend]
	return id, ok
}

// View returns the Entity-interface adapter for this issue.
func (i *Issue) View() Entity { return issueView{issue: i} }

// Milestone is the local representation of a milestone.
type Milestone struct {
	LocalID   string
	Name      string // required, unique among non-archived milestones
	Headline  string
	DueDate   *time.Time // optional, timezone-aware
	Status    MilestoneStatus
	ProjectID string
	RemoteIDs map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// milestoneView adapts a *Milestone to the Entity interface, mirroring
// issueView.
type milestoneView struct{ m *Milestone }

func (v milestoneView) ID() string       { return v.m.LocalID }
func (v milestoneView) Title() string    { return v.m.Name }
func (v milestoneView) Content() string  { return v.m.Headline }
func (v milestoneView) Labels() []string { return nil }
func (v milestoneView) RemoteID(backend string) (string, bool) {
	id, ok := v.m.RemoteIDs[backend]
	return id, ok
}

// View returns the Entity-interface adapter for this milestone.
func (m *Milestone) View() Entity { return milestoneView{m: m} }

// Progress returns closedIssues/totalIssues, or 0 when there are no issues.
func Progress(closedIssues, totalIssues int) float64 {
	if totalIssues == 0 {
		return 0
	}

	return float64(closedIssues) / float64(totalIssues)
}

// Project is the local representation of a project.
type Project struct {
	LocalID     string
	Name        string // required
	Description string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
