package commands

import (
	"context"

	slacklib "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/justmike1/slackops/blocks"
	opsslack "github.com/justmike1/slackops/slack"
)

// selectRepository handles a click on a repository row: it looks up the
// repository's workflows and opens the selection modal.
func (c *Controller) selectRepository(ctx context.Context, log *zap.Logger, cb slacklib.InteractionCallback, value string) {
	repository, err := blocks.RepositoryFromValue(value)
	if err != nil {
		log.Warn("invalid repository in action value", zap.String("value", value), zap.Error(err))
		c.notify(ctx, log, cb.ResponseURL, c.messages.Format("invalid_selection"))
		return
	}
	log = log.With(zap.String("repository", repository))

	workflows, err := c.catalog.ListWorkflows(ctx, repository)
	if err != nil {
		log.Error("failed to list workflows", zap.Error(err))
		c.notify(ctx, log, cb.ResponseURL, c.errorText(err, repository, ""))
		return
	}
	if len(workflows) == 0 {
		log.Info("repository has no workflows")
		c.notify(ctx, log, cb.ResponseURL, c.messages.Format("no_workflows", "repository", repository))
		return
	}

	metadata, err := PendingSelection{Repository: repository}.Encode()
	if err != nil {
		log.Error("failed to encode selection", zap.Error(err))
		c.notify(ctx, log, cb.ResponseURL, c.messages.Format("dialog_error"))
		return
	}

	view := blocks.WorkflowModal(repository, workflows, metadata)
	if err := c.slack.OpenView(ctx, cb.TriggerID, view); err != nil {
		log.Error("failed to open workflow modal", zap.Error(err))
		c.notify(ctx, log, cb.ResponseURL, c.messages.Format("dialog_error"))
		return
	}

	log.Info("workflow modal opened", zap.Int("workflows", len(workflows)))
	transition(log, StateResultsShown, StateDialogOpen)
}

// notify posts an ephemeral note next to the repository list, leaving the
// list in place so another row can be picked.
func (c *Controller) notify(ctx context.Context, log *zap.Logger, responseURL, text string) {
	err := c.slack.Respond(ctx, responseURL, opsslack.Response{Text: text, Ephemeral: true})
	if err != nil {
		log.Error("failed to respond", zap.Error(err))
	}
}
