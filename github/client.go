package github

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

const (
	listPageSize = 100
	runsPageSize = 10

	dispatchEvent = "workflow_dispatch"
)

// API is the subset of the GitHub REST API the directory, catalog and
// trigger need. *Client implements it.
type API interface {
	ListRepositories(ctx context.Context) ([]RepositoryRef, error)
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)
	ListWorkflows(ctx context.Context, owner, repo string) ([]WorkflowRef, error)
	DispatchWorkflow(ctx context.Context, owner, repo string, workflowID int64, ref string) error
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string, since time.Time) ([]WorkflowRun, error)
}

type Client struct {
	api *gh.Client
}

// NewClient returns a client authenticated with a static token. baseURL
// points the client at a GitHub Enterprise API; empty means github.com.
func NewClient(token, baseURL string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	api := gh.NewClient(httpClient)

	if baseURL != "" {
		var err error
		api, err = api.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
	}
	return &Client{api: api}, nil
}

func (c *Client) ListRepositories(ctx context.Context) ([]RepositoryRef, error) {
	var allRepos []RepositoryRef
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	}
	for {
		repos, resp, err := c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, classify("list repositories", err, nil)
		}
		for _, r := range repos {
			allRepos = append(allRepos, toRepositoryRef(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return allRepos, nil
}

func (c *Client) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", classify(fmt.Sprintf("get repository %s/%s", owner, repo), err, ErrRepositoryNotFound)
	}
	return r.GetDefaultBranch(), nil
}

func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]WorkflowRef, error) {
	fullName := owner + "/" + repo
	var all []WorkflowRef
	opts := &gh.ListOptions{PerPage: listPageSize}
	for {
		page, resp, err := c.api.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, classify("list workflows of "+fullName, err, ErrRepositoryNotFound)
		}
		for _, w := range page.Workflows {
			all = append(all, WorkflowRef{
				ID:         w.GetID(),
				Name:       w.GetName(),
				Path:       w.GetPath(),
				State:      w.GetState(),
				Repository: fullName,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (c *Client) DispatchWorkflow(ctx context.Context, owner, repo string, workflowID int64, ref string) error {
	event := gh.CreateWorkflowDispatchEventRequest{Ref: ref}
	_, err := c.api.Actions.CreateWorkflowDispatchEventByID(ctx, owner, repo, workflowID, event)
	if err == nil {
		return nil
	}
	if msg, ok := isRejection(err); ok {
		return fmt.Errorf("dispatch workflow %d in %s/%s: %w: %s", workflowID, owner, repo, ErrDispatchRejected, msg)
	}
	return classify(fmt.Sprintf("dispatch workflow %d in %s/%s", workflowID, owner, repo), err, ErrWorkflowNotFound)
}

// ListWorkflowRuns returns the most recent manually dispatched runs of a
// workflow on branch, newest first. A non-zero since limits the result to
// runs created at or after it.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string, since time.Time) ([]WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		Branch:      branch,
		Event:       dispatchEvent,
		ListOptions: gh.ListOptions{PerPage: runsPageSize},
	}
	if !since.IsZero() {
		opts.Created = ">=" + since.UTC().Format(time.RFC3339)
	}
	runs, _, err := c.api.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, opts)
	if err != nil {
		return nil, classify(fmt.Sprintf("list runs of workflow %d in %s/%s", workflowID, owner, repo), err, ErrWorkflowNotFound)
	}

	out := make([]WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, r := range runs.WorkflowRuns {
		out = append(out, WorkflowRun{
			ID:        r.GetID(),
			Status:    r.GetStatus(),
			URL:       r.GetHTMLURL(),
			CreatedAt: r.GetCreatedAt().Time,
		})
	}
	return out, nil
}

func toRepositoryRef(r *gh.Repository) RepositoryRef {
	return RepositoryRef{
		FullName:  r.GetFullName(),
		Name:      r.GetName(),
		Owner:     r.GetOwner().GetLogin(),
		Stars:     r.GetStargazersCount(),
		Forks:     r.GetForksCount(),
		UpdatedAt: r.GetUpdatedAt().Time,
		URL:       r.GetHTMLURL(),
	}
}

var workflowRunURLPattern = regexp.MustCompile(`^https://[^/]+/([^/]+)/([^/]+)/actions/runs/(\d+)$`)

// ParseWorkflowRunURL extracts owner, repo and run ID from a run page URL.
func ParseWorkflowRunURL(rawURL string) (owner, repo string, runID int64, err error) {
	matches := workflowRunURLPattern.FindStringSubmatch(rawURL)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("not a valid GitHub Actions workflow run URL: %s", rawURL)
	}
	runID, err = strconv.ParseInt(matches[3], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid run ID in URL: %w", err)
	}
	return matches[1], matches[2], runID, nil
}
