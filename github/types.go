package github

import (
	"fmt"
	"strings"
	"time"
)

// RepositoryRef is a snapshot of one repository visible to the configured token.
type RepositoryRef struct {
	FullName  string
	Name      string
	Owner     string
	Stars     int
	Forks     int
	UpdatedAt time.Time
	URL       string
}

// WorkflowRef identifies a GitHub Actions workflow inside a repository.
type WorkflowRef struct {
	ID         int64
	Name       string
	Path       string
	State      string
	Repository string
}

// WorkflowRun is one execution of a workflow.
type WorkflowRun struct {
	ID        int64
	Status    string
	URL       string
	CreatedAt time.Time
}

// DispatchResult reports whether a dispatched run could be confirmed.
// RunURL is empty when no run was observed.
type DispatchResult struct {
	Triggered bool
	RunURL    string
}

// SplitFullName splits "owner/name" into its parts.
func SplitFullName(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q is not an owner/name pair", ErrRepositoryNotFound, fullName)
	}
	return parts[0], parts[1], nil
}
