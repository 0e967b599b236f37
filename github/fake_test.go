package github

import (
	"context"
	"sync"
	"time"
)

type dispatchCall struct {
	Owner, Repo string
	WorkflowID  int64
	Ref         string
}

// fakeAPI is an in-memory API keyed by repository full name.
type fakeAPI struct {
	mu sync.Mutex

	repos     []RepositoryRef
	branches  map[string]string
	workflows map[string][]WorkflowRef
	// runs is consumed one entry per ListWorkflowRuns call; the last entry
	// repeats once the slice is exhausted.
	runs [][]WorkflowRun

	listErr     error
	dispatchErr error
	runsErr     error

	dispatches []dispatchCall
	runLookups int
	runsSince  []time.Time
}

func (f *fakeAPI) ListRepositories(ctx context.Context) ([]RepositoryRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.repos, nil
}

func (f *fakeAPI) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	branch, ok := f.branches[owner+"/"+repo]
	if !ok {
		return "", ErrRepositoryNotFound
	}
	return branch, nil
}

func (f *fakeAPI) ListWorkflows(ctx context.Context, owner, repo string) ([]WorkflowRef, error) {
	return f.workflows[owner+"/"+repo], nil
}

func (f *fakeAPI) DispatchWorkflow(ctx context.Context, owner, repo string, workflowID int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatches = append(f.dispatches, dispatchCall{Owner: owner, Repo: repo, WorkflowID: workflowID, Ref: ref})
	return f.dispatchErr
}

func (f *fakeAPI) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string, since time.Time) ([]WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runsSince = append(f.runsSince, since)
	if f.runsErr != nil {
		return nil, f.runsErr
	}
	if len(f.runs) == 0 {
		return nil, nil
	}
	idx := f.runLookups
	if idx >= len(f.runs) {
		idx = len(f.runs) - 1
	}
	f.runLookups++
	return f.runs[idx], nil
}
