package remote

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"

	"github.com/ghsync/ghsync/internal/model"
	"github.com/ghsync/ghsync/internal/syncerr"
)

// listPageSize mirrors the teacher's pagination page size for Graph API
// list calls (items.go); go-github paginates with the same Link-header
// convention, so the same page size carries over unchanged.
const listPageSize = 100

// GitHubBackend implements Backend against the GitHub REST API via
// go-github. Pagination is delegated entirely to go-github's
// Response.NextPage/ListOptions rather than reproducing the teacher's
// hand-rolled Link-header walk (DESIGN.md records this substitution).
type GitHubBackend struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubBackend builds a backend authenticated with a static bearer
// PAT, replacing the teacher's refreshable device-code TokenSource with
// oauth2.StaticTokenSource since spec.md §6 commits to a single token.
func NewGitHubBackend(ctx context.Context, owner, repo, token string) *GitHubBackend {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	return &GitHubBackend{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

func (b *GitHubBackend) Name() string { return "github" }

// Authenticate verifies the token by fetching the authenticated user,
// the cheapest authenticated call the API offers.
func (b *GitHubBackend) Authenticate(ctx context.Context) syncerr.Result[struct{}] {
	_, _, err := b.client.Users.Get(ctx, "")
	if err != nil {
		return syncerr.Err[struct{}](wrapGitHubError(err, "backend", "github"))
	}

	return syncerr.Ok(struct{}{})
}

func (b *GitHubBackend) ListIssues(ctx context.Context, filter IssueFilter) syncerr.Result[map[string]*model.SyncIssue] {
	opts := &github.IssueListByRepoOptions{
		State:       stateOrAll(filter.State),
		Labels:      filter.Labels,
		Milestone:   filter.Milestone,
		Assignee:    filter.Assignee,
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}

	out := make(map[string]*model.SyncIssue)

	for {
		issues, resp, err := b.client.Issues.ListByRepo(ctx, b.owner, b.repo, opts)
		if err != nil {
			return syncerr.Err[map[string]*model.SyncIssue](wrapGitHubError(err, "issue", ""))
		}

		for _, gi := range issues {
			// GitHub's issues API returns pull requests too; they have no
			// place in an issue tracker sync and are skipped.
			if gi.IsPullRequest() {
				continue
			}

			si, convErr := toSyncIssue(b.Name(), gi)
			if convErr != nil {
				return syncerr.Err[map[string]*model.SyncIssue](syncerr.FromError(convErr, "issue", strconv.Itoa(gi.GetNumber())))
			}

			out[si.BackendID] = si
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return syncerr.Ok(out)
}

func (b *GitHubBackend) GetIssue(ctx context.Context, remoteID string) syncerr.Result[*model.SyncIssue] {
	number, err := strconv.Atoi(remoteID)
	if err != nil {
		return syncerr.Err[*model.SyncIssue](syncerr.New(syncerr.InvalidData, "remote id is not a valid issue number").WithEntity("issue", remoteID))
	}

	gi, _, apiErr := b.client.Issues.Get(ctx, b.owner, b.repo, number)
	if apiErr != nil {
		return syncerr.Err[*model.SyncIssue](wrapGitHubError(apiErr, "issue", remoteID))
	}

	si, convErr := toSyncIssue(b.Name(), gi)
	if convErr != nil {
		return syncerr.Err[*model.SyncIssue](syncerr.FromError(convErr, "issue", remoteID))
	}

	return syncerr.Ok(si)
}

func (b *GitHubBackend) CreateIssue(ctx context.Context, payload IssuePayload) syncerr.Result[*model.SyncIssue] {
	req := issueRequestFromPayload(payload)

	gi, _, err := b.client.Issues.Create(ctx, b.owner, b.repo, req)
	if err != nil {
		return syncerr.Err[*model.SyncIssue](wrapGitHubError(err, "issue", ""))
	}

	si, convErr := toSyncIssue(b.Name(), gi)
	if convErr != nil {
		return syncerr.Err[*model.SyncIssue](syncerr.FromError(convErr, "issue", strconv.Itoa(gi.GetNumber())))
	}

	return syncerr.Ok(si)
}

func (b *GitHubBackend) UpdateIssue(ctx context.Context, remoteID string, payload IssuePayload) syncerr.Result[*model.SyncIssue] {
	number, err := strconv.Atoi(remoteID)
	if err != nil {
		return syncerr.Err[*model.SyncIssue](syncerr.New(syncerr.InvalidData, "remote id is not a valid issue number").WithEntity("issue", remoteID))
	}

	req := issueRequestFromPayload(payload)

	gi, _, apiErr := b.client.Issues.Edit(ctx, b.owner, b.repo, number, req)
	if apiErr != nil {
		return syncerr.Err[*model.SyncIssue](wrapGitHubError(apiErr, "issue", remoteID))
	}

	si, convErr := toSyncIssue(b.Name(), gi)
	if convErr != nil {
		return syncerr.Err[*model.SyncIssue](syncerr.FromError(convErr, "issue", remoteID))
	}

	return syncerr.Ok(si)
}

func (b *GitHubBackend) ListMilestones(ctx context.Context) syncerr.Result[map[string]*model.SyncMilestone] {
	opts := &github.MilestoneListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}

	out := make(map[string]*model.SyncMilestone)

	for {
		milestones, resp, err := b.client.Issues.ListMilestones(ctx, b.owner, b.repo, opts)
		if err != nil {
			return syncerr.Err[map[string]*model.SyncMilestone](wrapGitHubError(err, "milestone", ""))
		}

		for _, gm := range milestones {
			sm, convErr := toSyncMilestone(b.Name(), gm)
			if convErr != nil {
				return syncerr.Err[map[string]*model.SyncMilestone](syncerr.FromError(convErr, "milestone", strconv.Itoa(gm.GetNumber())))
			}

			out[sm.BackendID] = sm
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return syncerr.Ok(out)
}

func (b *GitHubBackend) GetMilestone(ctx context.Context, remoteID string) syncerr.Result[*model.SyncMilestone] {
	number, err := strconv.Atoi(remoteID)
	if err != nil {
		return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.InvalidData, "remote id is not a valid milestone number").WithEntity("milestone", remoteID))
	}

	gm, _, apiErr := b.client.Issues.GetMilestone(ctx, b.owner, b.repo, number)
	if apiErr != nil {
		return syncerr.Err[*model.SyncMilestone](wrapGitHubError(apiErr, "milestone", remoteID))
	}

	sm, convErr := toSyncMilestone(b.Name(), gm)
	if convErr != nil {
		return syncerr.Err[*model.SyncMilestone](syncerr.FromError(convErr, "milestone", remoteID))
	}

	return syncerr.Ok(sm)
}

func (b *GitHubBackend) CreateMilestone(ctx context.Context, payload MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	req := milestoneRequestFromPayload(payload)

	gm, _, err := b.client.Issues.CreateMilestone(ctx, b.owner, b.repo, req)
	if err != nil {
		return syncerr.Err[*model.SyncMilestone](wrapGitHubError(err, "milestone", ""))
	}

	sm, convErr := toSyncMilestone(b.Name(), gm)
	if convErr != nil {
		return syncerr.Err[*model.SyncMilestone](syncerr.FromError(convErr, "milestone", strconv.Itoa(gm.GetNumber())))
	}

	return syncerr.Ok(sm)
}

func (b *GitHubBackend) UpdateMilestone(ctx context.Context, remoteID string, payload MilestonePayload) syncerr.Result[*model.SyncMilestone] {
	number, err := strconv.Atoi(remoteID)
	if err != nil {
		return syncerr.Err[*model.SyncMilestone](syncerr.New(syncerr.InvalidData, "remote id is not a valid milestone number").WithEntity("milestone", remoteID))
	}

	req := milestoneRequestFromPayload(payload)

	gm, _, apiErr := b.client.Issues.EditMilestone(ctx, b.owner, b.repo, number, req)
	if apiErr != nil {
		return syncerr.Err[*model.SyncMilestone](wrapGitHubError(apiErr, "milestone", remoteID))
	}

	sm, convErr := toSyncMilestone(b.Name(), gm)
	if convErr != nil {
		return syncerr.Err[*model.SyncMilestone](syncerr.FromError(convErr, "milestone", remoteID))
	}

	return syncerr.Ok(sm)
}

func (b *GitHubBackend) DeleteMilestone(ctx context.Context, remoteID string) syncerr.Result[struct{}] {
	number, err := strconv.Atoi(remoteID)
	if err != nil {
		return syncerr.Err[struct{}](syncerr.New(syncerr.InvalidData, "remote id is not a valid milestone number").WithEntity("milestone", remoteID))
	}

	if _, apiErr := b.client.Issues.DeleteMilestone(ctx, b.owner, b.repo, number); apiErr != nil {
		return syncerr.Err[struct{}](wrapGitHubError(apiErr, "milestone", remoteID))
	}

	return syncerr.Ok(struct{}{})
}

func stateOrAll(state string) string {
	if state == "" {
		return "all"
	}

	return state
}

func toSyncIssue(backendName string, gi *github.Issue) (*model.SyncIssue, error) {
	si, err := model.NewSyncIssue(backendName, strconv.Itoa(gi.GetNumber()), gi.GetTitle(), gi.GetState())
	if err != nil {
		return nil, fmt.Errorf("remote: converting issue #%d: %w", gi.GetNumber(), err)
	}

	si.Body = gi.GetBody()
	si.CreatedAt = gi.GetCreatedAt().Time
	si.UpdatedAt = gi.GetUpdatedAt().Time

	for _, l := range gi.Labels {
		si.Labels = append(si.Labels, l.GetName())
	}

	if gi.Assignee != nil {
		si.Assignee = gi.Assignee.GetLogin()
	}

	if gi.Milestone != nil {
		si.Milestone = gi.Milestone.GetTitle()
	}

	return si, nil
}

func toSyncMilestone(backendName string, gm *github.Milestone) (*model.SyncMilestone, error) {
	sm, err := model.NewSyncMilestone(backendName, strconv.Itoa(gm.GetNumber()), gm.GetTitle(), gm.GetState())
	if err != nil {
		return nil, fmt.Errorf("remote: converting milestone #%d: %w", gm.GetNumber(), err)
	}

	sm.CreatedAt = gm.GetCreatedAt().Time
	sm.UpdatedAt = gm.GetUpdatedAt().Time

	if gm.DueOn != nil {
		due := gm.GetDueOn().Time
		sm.DueOn = &due
	}

	return sm, nil
}

func issueRequestFromPayload(p IssuePayload) *github.IssueRequest {
	req := &github.IssueRequest{
		Title: github.String(p.Title),
		Body:  github.String(p.Body),
	}

	if len(p.Labels) > 0 {
		req.Labels = &p.Labels
	}

	if p.Assignee != "" {
		req.Assignee = github.String(p.Assignee)
	}

	if p.State != "" {
		req.State = github.String(p.State)
	}

	return req
}

func milestoneRequestFromPayload(p MilestonePayload) *github.Milestone {
	m := &github.Milestone{
		Title: github.String(p.Name),
	}

	if p.Description != "" {
		m.Description = github.String(p.Description)
	}

	if p.State != "" {
		m.State = github.String(p.State)
	}

	if p.DueOn != "" {
		if due, err := time.Parse("2006-01-02", p.DueOn); err == nil {
			m.DueOn = &github.Timestamp{Time: due}
		}
	}

	return m
}
