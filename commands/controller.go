package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	slacklib "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/justmike1/slackops/blocks"
	"github.com/justmike1/slackops/github"
	opsslack "github.com/justmike1/slackops/slack"
)

type Options struct {
	// SlashCommand is quoted in usage hints and the overflow notice.
	SlashCommand string
	MaxVisible   int
	// DocsURL is linked when GitHub refuses a dispatch.
	DocsURL string
}

// Controller drives a user from a slash command to a dispatched workflow
// run. Each entry point handles one inbound Slack event and keeps no state
// between calls.
type Controller struct {
	slack     SlackClient
	directory RepositoryDirectory
	catalog   WorkflowCatalog
	trigger   DispatchTrigger
	messages  MessageProvider
	opts      Options
	logger    *zap.Logger
}

func NewController(
	slackClient SlackClient,
	directory RepositoryDirectory,
	catalog WorkflowCatalog,
	trigger DispatchTrigger,
	messages MessageProvider,
	opts Options,
	logger *zap.Logger,
) *Controller {
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = blocks.DefaultMaxVisible
	}
	return &Controller{
		slack:     slackClient,
		directory: directory,
		catalog:   catalog,
		trigger:   trigger,
		messages:  messages,
		opts:      opts,
		logger:    logger,
	}
}

func (c *Controller) requestLogger(event, userID, channelID string) *zap.Logger {
	return c.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("event", event),
		zap.String("user", userID),
		zap.String("channel", channelID),
	)
}

func transition(log *zap.Logger, from, to State) {
	log.Info("state transition", zap.String("from", string(from)), zap.String("to", string(to)))
}

// recoverPanic keeps a failing handler goroutine from taking the process
// down.
func recoverPanic(log *zap.Logger) {
	if r := recover(); r != nil {
		log.Error("handler panicked", zap.Any("panic", r), zap.Stack("stack"))
	}
}

// HandleCommand answers a slash command. Slack has already been
// acknowledged; the reply replaces the acknowledgement message.
func (c *Controller) HandleCommand(cmd slacklib.SlashCommand) {
	log := c.requestLogger("command", cmd.UserID, cmd.ChannelID)
	defer recoverPanic(log)

	if c.opts.SlashCommand != "" && cmd.Command != "" && !strings.EqualFold(cmd.Command, c.opts.SlashCommand) {
		log.Warn("ignoring unexpected slash command", zap.String("command", cmd.Command))
		return
	}

	ctx := context.Background()
	parsed := ParseCommand(cmd.Text)
	log.Debug("command parsed", zap.Stringer("kind", parsed.Kind), zap.String("query", parsed.Query))

	switch parsed.Kind {
	case KindList:
		transition(log, StateIdle, StateListRequested)
		c.showRepositories(ctx, log, cmd.ResponseURL, parsed, StateListRequested)

	case KindSearch:
		if parsed.Query == "" {
			c.reply(ctx, log, cmd.ResponseURL, c.messages.Format("search_usage", "command", c.opts.SlashCommand))
			return
		}
		transition(log, StateIdle, StateSearchRequested)
		c.showRepositories(ctx, log, cmd.ResponseURL, parsed, StateSearchRequested)

	default:
		c.reply(ctx, log, cmd.ResponseURL, c.messages.Format("usage",
			"text", cmd.Text,
			"command", c.opts.SlashCommand))
	}
}

func (c *Controller) showRepositories(ctx context.Context, log *zap.Logger, responseURL string, cmd Command, from State) {
	var (
		repos []github.RepositoryRef
		err   error
	)
	if cmd.Kind == KindSearch {
		repos, err = c.directory.Search(ctx, cmd.Query)
	} else {
		repos, err = c.directory.ListAll(ctx)
	}
	if err != nil {
		log.Error("failed to fetch repositories", zap.Error(err))
		c.reply(ctx, log, responseURL, c.errorText(err, "", ""))
		return
	}

	if len(repos) == 0 {
		if cmd.Kind == KindSearch {
			c.reply(ctx, log, responseURL, c.messages.Format("no_search_results", "query", cmd.Query))
		} else {
			c.reply(ctx, log, responseURL, c.messages.Format("no_repositories"))
		}
		return
	}

	count := strconv.Itoa(len(repos))
	noun := "repositories"
	if len(repos) == 1 {
		noun = "repository"
	}
	header := c.messages.Format("list_header", "count", count, "noun", noun)
	if cmd.Kind == KindSearch {
		header = c.messages.Format("search_header", "count", count, "noun", noun, "query", cmd.Query)
	}

	rendered := blocks.FormatList(blocks.Repositories(repos), blocks.ListOptions{
		Header:     header,
		MaxVisible: c.opts.MaxVisible,
		ActionID:   blocks.ActionSelectRepository,
		ButtonText: c.messages.Format("select_button"),
		Singular:   "repository",
		Plural:     "repositories",
		NarrowHint: c.messages.Format("narrow_hint", "command", c.opts.SlashCommand),
	})

	err = c.slack.Respond(ctx, responseURL, opsslack.Response{
		Text:    header,
		Blocks:  rendered.Blocks(),
		Replace: true,
	})
	if err != nil {
		log.Error("failed to post repository list", zap.Error(err))
		return
	}
	log.Info("repositories listed", zap.Int("total", len(repos)), zap.Int("hidden", rendered.Hidden))
	transition(log, from, StateResultsShown)
}

// HandleInteraction routes block actions and view submissions.
func (c *Controller) HandleInteraction(cb slacklib.InteractionCallback) {
	log := c.requestLogger(string(cb.Type), cb.User.ID, cb.Channel.ID)
	defer recoverPanic(log)

	ctx := context.Background()
	switch cb.Type {
	case slacklib.InteractionTypeBlockActions:
		for _, action := range cb.ActionCallback.BlockActions {
			if action.ActionID == blocks.ActionSelectRepository {
				c.selectRepository(ctx, log, cb, action.Value)
				return
			}
		}
		log.Debug("ignoring block action")

	case slacklib.InteractionTypeViewSubmission:
		if cb.View.CallbackID != blocks.CallbackDispatchWorkflow {
			log.Debug("ignoring view submission", zap.String("callback_id", cb.View.CallbackID))
			return
		}
		c.submitWorkflow(ctx, log, cb)

	default:
		log.Debug("ignoring interaction")
	}
}

// reply sends a plain text answer over a response_url, replacing the
// message the request came from. Only the invoking user sees it.
func (c *Controller) reply(ctx context.Context, log *zap.Logger, responseURL, text string) {
	err := c.slack.Respond(ctx, responseURL, opsslack.Response{Text: text, Replace: true, Ephemeral: true})
	if err != nil {
		log.Error("failed to respond", zap.Error(err))
	}
}

// errorText maps a github error to the message shown to the user.
func (c *Controller) errorText(err error, repository, workflow string) string {
	switch {
	case errors.Is(err, github.ErrDispatchRejected):
		return c.messages.Format("dispatch_rejected",
			"workflow", workflow,
			"repository", repository,
			"docs", c.opts.DocsURL)
	case errors.Is(err, github.ErrRunUnconfirmed):
		return c.messages.Format("run_unconfirmed", "workflow", workflow, "repository", repository)
	case errors.Is(err, github.ErrWorkflowNotFound):
		return c.messages.Format("not_found", "name", workflow)
	case errors.Is(err, github.ErrRepositoryNotFound):
		return c.messages.Format("not_found", "name", repository)
	default:
		return c.messages.Format("upstream_error")
	}
}
