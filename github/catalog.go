package github

import "context"

const workflowStateActive = "active"

// Catalog lists the workflows of a repository that can be dispatched.
type Catalog struct {
	api API
}

func NewCatalog(api API) *Catalog {
	return &Catalog{api: api}
}

// ListWorkflows returns the active workflows of fullName. The repository is
// resolved first so a stale name reports ErrRepositoryNotFound rather than
// an empty list.
func (c *Catalog) ListWorkflows(ctx context.Context, fullName string) ([]WorkflowRef, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	if _, err := c.api.GetDefaultBranch(ctx, owner, repo); err != nil {
		return nil, err
	}

	workflows, err := c.api.ListWorkflows(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	active := make([]WorkflowRef, 0, len(workflows))
	for _, w := range workflows {
		if w.State == workflowStateActive {
			active = append(active, w)
		}
	}
	return active, nil
}
