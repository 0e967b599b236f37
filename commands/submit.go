package commands

import (
	"context"

	slacklib "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/justmike1/slackops/blocks"
	"github.com/justmike1/slackops/github"
)

// submitWorkflow handles the modal submission. Status goes to the user as
// direct messages since a modal has no response_url.
func (c *Controller) submitWorkflow(ctx context.Context, log *zap.Logger, cb slacklib.InteractionCallback) {
	userID := cb.User.ID

	selection, err := DecodeSelection(cb.View.PrivateMetadata)
	if err != nil {
		log.Warn("invalid modal metadata", zap.Error(err))
		c.directMessage(ctx, log, userID, c.messages.Format("invalid_selection"))
		return
	}
	workflow, ok := blocks.SelectedWorkflow(cb.View)
	if !ok {
		log.Warn("modal submitted without a workflow")
		c.directMessage(ctx, log, userID, c.messages.Format("invalid_selection"))
		return
	}
	selection.Workflow = workflow

	log = log.With(zap.String("repository", selection.Repository), zap.String("workflow", selection.Workflow))
	transition(log, StateDialogOpen, StateActionSubmitted)
	defer transition(log, StateActionSubmitted, StateDone)

	c.directMessage(ctx, log, userID, c.messages.Format("dispatch_starting",
		"workflow", selection.Workflow,
		"repository", selection.Repository))

	result, err := c.trigger.Trigger(ctx, selection.Repository, selection.Workflow)
	if err != nil || !result.Triggered {
		log.Warn("dispatch failed", zap.Error(err))
		c.directMessage(ctx, log, userID, c.errorText(err, selection.Repository, selection.Workflow))
		return
	}

	if _, _, runID, perr := github.ParseWorkflowRunURL(result.RunURL); perr == nil {
		log = log.With(zap.Int64("run_id", runID))
	}
	log.Info("workflow run started", zap.String("run_url", result.RunURL))

	c.directMessage(ctx, log, userID, c.messages.Format("dispatch_success",
		"workflow", selection.Workflow,
		"repository", selection.Repository,
		"url", result.RunURL))
}

func (c *Controller) directMessage(ctx context.Context, log *zap.Logger, userID, text string) {
	if err := c.slack.SendDirectMessage(ctx, userID, text); err != nil {
		log.Error("failed to send direct message", zap.Error(err))
	}
}
