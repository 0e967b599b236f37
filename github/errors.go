package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v60/github"
)

var (
	// ErrUpstreamUnavailable covers auth, rate limit and network failures.
	ErrUpstreamUnavailable = errors.New("github unavailable")
	ErrRepositoryNotFound  = errors.New("repository not found")
	ErrWorkflowNotFound    = errors.New("workflow not found")
	// ErrDispatchRejected means GitHub refused the dispatch, almost always
	// because the workflow has no workflow_dispatch trigger.
	ErrDispatchRejected = errors.New("workflow dispatch rejected")
	// ErrRunUnconfirmed means the dispatch was accepted but no new run was
	// observed before the poll gave up.
	ErrRunUnconfirmed = errors.New("workflow run not confirmed")
)

// classify maps a go-github error onto the package sentinels. notFound is
// used for 404 responses since what was missing depends on the call;
// everything else (auth, rate limit, transport) is upstream unavailability.
func classify(op string, err error, notFound error) error {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if respErr.Response.StatusCode == http.StatusNotFound && notFound != nil {
			return fmt.Errorf("%s: %w: %v", op, notFound, err)
		}
	}

	return fmt.Errorf("%s: %w: %v", op, ErrUpstreamUnavailable, err)
}

// isRejection reports whether GitHub answered 422, which for a dispatch
// means the workflow cannot be started manually.
func isRejection(err error) (string, bool) {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusUnprocessableEntity {
		return respErr.Message, true
	}
	return "", false
}
