package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

const (
	statusCompleted = "completed"

	// Runs created this long before the dispatch still count, so a
	// clock behind GitHub's does not hide the new run.
	clockSkew = 5 * time.Second
)

var errRunPending = errors.New("no running workflow run yet")

// TriggerOptions bounds the wait for a dispatched run to show up. GitHub
// creates runs asynchronously, so the trigger sleeps Wait before the first
// lookup and then polls with exponential backoff for at most PollTimeout.
type TriggerOptions struct {
	Wait         time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func DefaultTriggerOptions() TriggerOptions {
	return TriggerOptions{
		Wait:         3 * time.Second,
		PollInterval: time.Second,
		PollTimeout:  15 * time.Second,
	}
}

// Trigger dispatches workflows and resolves the URL of the run it started.
type Trigger struct {
	api    API
	opts   TriggerOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewTrigger(api API, opts TriggerOptions, logger *zap.Logger) *Trigger {
	defaults := DefaultTriggerOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaults.PollTimeout
	}
	return &Trigger{api: api, opts: opts, logger: logger, now: time.Now}
}

// Trigger dispatches workflowName on the default branch of fullName. The
// returned result has Triggered set only when a run that is not yet
// completed was observed; ErrRunUnconfirmed means the dispatch itself was
// accepted but no run could be matched.
func (t *Trigger) Trigger(ctx context.Context, fullName, workflowName string) (DispatchResult, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return DispatchResult{}, err
	}

	branch, err := t.api.GetDefaultBranch(ctx, owner, repo)
	if err != nil {
		return DispatchResult{}, err
	}

	workflows, err := t.api.ListWorkflows(ctx, owner, repo)
	if err != nil {
		return DispatchResult{}, err
	}
	wf, ok := findWorkflow(workflows, workflowName)
	if !ok {
		return DispatchResult{}, fmt.Errorf("%w: %q in %s", ErrWorkflowNotFound, workflowName, fullName)
	}
	// Only active workflows are offered for selection; one disabled since
	// then is gone as far as the user is concerned.
	if wf.State != workflowStateActive {
		return DispatchResult{}, fmt.Errorf("%w: %q in %s is %s", ErrWorkflowNotFound, workflowName, fullName, wf.State)
	}

	log := t.logger.With(
		zap.String("repository", fullName),
		zap.String("workflow", wf.Name),
		zap.Int64("workflow_id", wf.ID),
		zap.String("ref", branch),
	)

	since := t.now().Add(-clockSkew).Truncate(time.Second)
	if err := t.api.DispatchWorkflow(ctx, owner, repo, wf.ID, branch); err != nil {
		log.Warn("workflow dispatch failed", zap.Error(err))
		return DispatchResult{}, err
	}
	log.Info("workflow dispatched")

	if err := sleep(ctx, t.opts.Wait); err != nil {
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrRunUnconfirmed, err)
	}

	runURL, err := t.findRun(ctx, log, owner, repo, wf.ID, branch, since)
	if err != nil {
		log.Warn("dispatched run not observed", zap.Error(err))
		return DispatchResult{}, err
	}

	log.Info("dispatched run observed", zap.String("run_url", runURL))
	return DispatchResult{Triggered: true, RunURL: runURL}, nil
}

// findRun polls for a run of workflowID created since the dispatch that has
// not completed yet.
func (t *Trigger) findRun(ctx context.Context, log *zap.Logger, owner, repo string, workflowID int64, branch string, since time.Time) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.opts.PollInterval
	bo.MaxInterval = 4 * t.opts.PollInterval
	bo.MaxElapsedTime = t.opts.PollTimeout

	var runURL string
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		runs, err := t.api.ListWorkflowRuns(ctx, owner, repo, workflowID, branch, since)
		if err != nil {
			return backoff.Permanent(err)
		}
		for _, r := range runs {
			if !r.CreatedAt.IsZero() && r.CreatedAt.Before(since) {
				continue
			}
			if r.Status != statusCompleted {
				runURL = r.URL
				return nil
			}
		}
		return errRunPending
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		log.Debug("waiting for dispatched run", zap.Int("attempt", attempt), zap.Duration("next", next))
	})
	if err != nil {
		return "", fmt.Errorf("%w after %d lookups: %v", ErrRunUnconfirmed, attempt, err)
	}
	return runURL, nil
}

func findWorkflow(workflows []WorkflowRef, name string) (WorkflowRef, bool) {
	for _, w := range workflows {
		if w.Name == name {
			return w, true
		}
	}
	return WorkflowRef{}, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
