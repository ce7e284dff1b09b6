package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ghsync/ghsync/internal/model"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Manage local issues",
	}

	cmd.AddCommand(newIssueCreateCmd())
	cmd.AddCommand(newIssueListCmd())
	cmd.AddCommand(newIssueViewCmd())
	cmd.AddCommand(newIssueLinkGitHubCmd())
	cmd.AddCommand(newIssueLookupGitHubCmd())

	return cmd
}

func newIssueCreateCmd() *cobra.Command {
	var title, body, status, priority, assignee, milestone, project string
	var labels []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a local issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssueCreate(cmd, title, body, status, priority, assignee, milestone, project, labels)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "issue title (required)")
	cmd.Flags().StringVar(&body, "body", "", "issue body")
	cmd.Flags().StringVar(&status, "status", string(model.StatusBacklog), "issue status")
	cmd.Flags().StringVar(&priority, "priority", "", "issue priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "issue assignee")
	cmd.Flags().StringVar(&milestone, "milestone", "", "milestone local ID or name")
	cmd.Flags().StringVar(&project, "project", "", "project local ID")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "label (repeatable)")
	cmd.MarkFlagRequired("title") //nolint:errcheck

	return cmd
}

func runIssueCreate(cmd *cobra.Command, title, body, status, priority, assignee, milestone, project string, labels []string) error {
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	issue := &model.Issue{
		LocalID:     uuid.NewString(),
		Title:       title,
		Body:        body,
		Status:      model.Status(status),
		Priority:    model.Priority(priority),
		Assignee:    assignee,
		MilestoneID: milestone,
		ProjectID:   project,
		Labels:      labels,
	}

	if err := st.UpsertIssue(ctx, issue); err != nil {
		return fmt.Errorf("creating issue: %w", err)
	}

	statusf("Created issue %s\n", issue.LocalID)
	fmt.Println(issue.LocalID)

	return nil
}

func newIssueListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssueList(cmd, project)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "limit to issues under this project ID")

	return cmd
}

func runIssueList(cmd *cobra.Command, project string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	var issues []*model.Issue
	if project != "" {
		issues, err = st.ListIssuesByProject(ctx, project)
	} else {
		issues, err = st.ListAllIssues(ctx)
	}

	if err != nil {
		return fmt.Errorf("listing issues: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(issues)
	}

	headers := []string{"ID", "TITLE", "STATUS", "PRIORITY", "MILESTONE"}
	rows := make([][]string, len(issues))

	for i, issue := range issues {
		rows[i] = []string{truncateID(issue.LocalID), issue.Title, string(issue.Status), string(issue.Priority), issue.MilestoneID}
	}

	printTable(os.Stdout, headers, rows)

	return nil
}

func newIssueViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <issue-id>",
		Short: "Show a single local issue, with its remote links",
		Args:  cobra.ExactArgs(1),
		RunE:  runIssueView,
	}
}

func runIssueView(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	issue, err := st.GetIssue(ctx, args[0])
	if err != nil {
		return fmt.Errorf("looking up issue %s: %w", args[0], err)
	}

	link, linkErr := st.GetRemoteLink(ctx, issue.LocalID, "issue", "github")

	if flagJSON {
		out := struct {
			*model.Issue
			GitHubID string `json:"github_id,omitempty"`
		}{Issue: issue}

		if linkErr == nil {
			out.GitHubID = link.RemoteID
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Printf("ID:        %s\n", issue.LocalID)
	fmt.Printf("Title:     %s\n", issue.Title)
	fmt.Printf("Status:    %s\n", issue.Status)

	if issue.Priority != "" {
		fmt.Printf("Priority:  %s\n", issue.Priority)
	}

	if issue.Assignee != "" {
		fmt.Printf("Assignee:  %s\n", issue.Assignee)
	}

	if issue.MilestoneID != "" {
		fmt.Printf("Milestone: %s\n", issue.MilestoneID)
	}

	if len(issue.Labels) > 0 {
		fmt.Printf("Labels:    %s\n", strings.Join(issue.Labels, ", "))
	}

	if len(issue.DependsOn) > 0 {
		fmt.Printf("Depends on: %s\n", strings.Join(issue.DependsOn, ", "))
	}

	if linkErr == nil {
		fmt.Printf("GitHub:    #%s\n", link.RemoteID)
	}

	if issue.Body != "" {
		fmt.Printf("\n%s\n", issue.Body)
	}

	return nil
}

func newIssueLinkGitHubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-github <issue-id> <github-issue-number>",
		Short: "Link a local issue to an existing GitHub issue",
		Long: `Binds issue-id to the given GitHub issue number, so the next sync
reconciles them as one entity instead of creating a duplicate remote
issue. Fails if github-issue-number does not exist on the configured
repository.`,
		Args: cobra.ExactArgs(2),
		RunE: runIssueLinkGitHub,
	}
}

func runIssueLinkGitHub(cmd *cobra.Command, args []string) error {
	issueID, remoteID := args[0], args[1]

	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	st, err := openStore(ctx, cc)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetIssue(ctx, issueID); err != nil {
		return fmt.Errorf("looking up issue %s: %w", issueID, err)
	}

	backends, err := backendsFromConfig(ctx, cc)
	if err != nil {
		return err
	}

	backend := backends["github"]

	res := backend.GetIssue(ctx, remoteID)
	if res.IsErr() {
		return fmt.Errorf("looking up GitHub issue #%s: %w", remoteID, res.UnwrapErr())
	}

	link := &model.RemoteLink{
		LocalEntityID: issueID,
		EntityType:    "issue",
		BackendName:   "github",
		RemoteID:      remoteID,
	}

	if err := st.UpsertRemoteLink(ctx, link); err != nil {
		return fmt.Errorf("saving link: %w", err)
	}

	statusf("Linked %s to github#%s (%q)\n", issueID, remoteID, res.Unwrap().Title)

	return nil
}

func newIssueLookupGitHubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup-github <github-issue-number>",
		Short: "Show a GitHub issue's current remote state",
		Args:  cobra.ExactArgs(1),
		RunE:  runIssueLookupGitHub,
	}
}

func runIssueLookupGitHub(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	backends, err := backendsFromConfig(ctx, cc)
	if err != nil {
		return err
	}

	backend := backends["github"]

	res := backend.GetIssue(ctx, args[0])
	if res.IsErr() {
		return fmt.Errorf("looking up GitHub issue #%s: %w", args[0], res.UnwrapErr())
	}

	si := res.Unwrap()

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(si)
	}

	fmt.Printf("Title:   %s\n", si.Title)
	fmt.Printf("State:   %s\n", si.State)

	if si.Assignee != "" {
		fmt.Printf("Assignee: %s\n", si.Assignee)
	}

	if si.Milestone != "" {
		fmt.Printf("Milestone: %s\n", si.Milestone)
	}

	if len(si.Labels) > 0 {
		fmt.Printf("Labels:  %s\n", strings.Join(si.Labels, ", "))
	}

	return nil
}
