package github

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const runURL = "https://github.com/acme/web/actions/runs/4242"

func fastOptions() TriggerOptions {
	return TriggerOptions{
		Wait:         0,
		PollInterval: time.Millisecond,
		PollTimeout:  50 * time.Millisecond,
	}
}

func dispatchableAPI() *fakeAPI {
	return &fakeAPI{
		branches: map[string]string{"acme/web": "trunk"},
		workflows: map[string][]WorkflowRef{
			"acme/web": {
				{ID: 7, Name: "Deploy", State: "active", Repository: "acme/web"},
				{ID: 9, Name: "Release", State: "active", Repository: "acme/web"},
			},
		},
	}
}

func TestTrigger_ResolvesRunningRun(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	api.runs = [][]WorkflowRun{
		{{ID: 1, Status: "completed", URL: "https://github.com/acme/web/actions/runs/1"}},
		{
			{ID: 4242, Status: "queued", URL: runURL},
			{ID: 1, Status: "completed", URL: "https://github.com/acme/web/actions/runs/1"},
		},
	}

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "Release")
	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Equal(t, runURL, result.RunURL)

	require.Len(t, api.dispatches, 1)
	assert.Equal(t, dispatchCall{Owner: "acme", Repo: "web", WorkflowID: 9, Ref: "trunk"}, api.dispatches[0])
	assert.Equal(t, 2, api.runLookups, "first lookup only saw a completed run")

	owner, repo, id, err := ParseWorkflowRunURL(result.RunURL)
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "web", repo)
	assert.Equal(t, int64(4242), id)
}

func TestTrigger_SkipsRunsStartedBeforeDispatch(t *testing.T) {
	t.Parallel()

	dispatchedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	earlier := WorkflowRun{
		ID:        100,
		Status:    "in_progress",
		URL:       "https://github.com/acme/web/actions/runs/100",
		CreatedAt: dispatchedAt.Add(-time.Hour),
	}

	api := dispatchableAPI()
	api.runs = [][]WorkflowRun{
		{earlier},
		{{ID: 4242, Status: "queued", URL: runURL, CreatedAt: dispatchedAt.Add(2 * time.Second)}, earlier},
	}

	tr := NewTrigger(api, fastOptions(), zap.NewNop())
	tr.now = func() time.Time { return dispatchedAt }

	result, err := tr.Trigger(context.Background(), "acme/web", "Deploy")
	require.NoError(t, err)
	assert.Equal(t, runURL, result.RunURL, "a run that was already going is not the dispatched one")
	assert.Equal(t, 2, api.runLookups)

	require.NotEmpty(t, api.runsSince)
	assert.Equal(t, dispatchedAt.Add(-clockSkew), api.runsSince[0])
}

func TestTrigger_DisabledWorkflowNotFound(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	api.workflows["acme/web"][0].State = "disabled_manually"

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "Deploy")
	require.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.NotErrorIs(t, err, ErrDispatchRejected)
	assert.Equal(t, DispatchResult{}, result)
	assert.Empty(t, api.dispatches, "disabled workflows are never dispatched")
}

func TestTrigger_WorkflowNotFound(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "deploy")
	require.ErrorIs(t, err, ErrWorkflowNotFound, "name match is exact")
	assert.False(t, result.Triggered)
	assert.Empty(t, api.dispatches, "nothing may be dispatched for an unknown workflow")
}

func TestTrigger_RepositoryNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewTrigger(dispatchableAPI(), fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/gone", "Deploy")
	require.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestTrigger_DispatchRejected(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	api.dispatchErr = errors.Join(errors.New("Workflow does not have 'workflow_dispatch' trigger"), ErrDispatchRejected)

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "Deploy")
	require.ErrorIs(t, err, ErrDispatchRejected)
	assert.False(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.Equal(t, DispatchResult{}, result)
	assert.Zero(t, api.runLookups, "no run lookup after a rejected dispatch")
}

func TestTrigger_RunUnconfirmed(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	api.runs = [][]WorkflowRun{{{ID: 1, Status: "completed", URL: "https://github.com/acme/web/actions/runs/1"}}}

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "Deploy")
	require.ErrorIs(t, err, ErrRunUnconfirmed)
	assert.False(t, result.Triggered)
	assert.Empty(t, result.RunURL)
	assert.Len(t, api.dispatches, 1, "the dispatch itself happened")
	assert.Greater(t, api.runLookups, 1, "lookups are retried until the timeout")
}

func TestTrigger_RunLookupFailureIsUnconfirmed(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	api.runsErr = ErrUpstreamUnavailable

	result, err := NewTrigger(api, fastOptions(), zap.NewNop()).Trigger(context.Background(), "acme/web", "Deploy")
	require.ErrorIs(t, err, ErrRunUnconfirmed)
	assert.False(t, result.Triggered)
}

func TestTrigger_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	api := dispatchableAPI()
	opts := fastOptions()
	opts.Wait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrigger(api, opts, zap.NewNop()).Trigger(ctx, "acme/web", "Deploy")
	require.ErrorIs(t, err, ErrRunUnconfirmed)
	assert.Len(t, api.dispatches, 1)
}

func TestNewTrigger_Defaults(t *testing.T) {
	t.Parallel()

	tr := NewTrigger(&fakeAPI{}, TriggerOptions{}, zap.NewNop())
	assert.Equal(t, DefaultTriggerOptions().PollInterval, tr.opts.PollInterval)
	assert.Equal(t, DefaultTriggerOptions().PollTimeout, tr.opts.PollTimeout)
	assert.Zero(t, tr.opts.Wait)
}
