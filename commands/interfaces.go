package commands

import (
	"context"

	slacklib "github.com/slack-go/slack"

	"github.com/justmike1/slackops/github"
	opsslack "github.com/justmike1/slackops/slack"
)

type SlackClient interface {
	Respond(ctx context.Context, responseURL string, resp opsslack.Response) error
	OpenView(ctx context.Context, triggerID string, view slacklib.ModalViewRequest) error
	SendDirectMessage(ctx context.Context, userID, text string) error
	PostMessage(ctx context.Context, channelID, text string) (string, error)
	PublishView(ctx context.Context, userID string, view slacklib.HomeTabViewRequest) error
}

type RepositoryDirectory interface {
	ListAll(ctx context.Context) ([]github.RepositoryRef, error)
	Search(ctx context.Context, query string) ([]github.RepositoryRef, error)
}

type WorkflowCatalog interface {
	ListWorkflows(ctx context.Context, fullName string) ([]github.WorkflowRef, error)
}

type DispatchTrigger interface {
	Trigger(ctx context.Context, fullName, workflowName string) (github.DispatchResult, error)
}

// MessageProvider abstracts access to the user-facing texts.
type MessageProvider interface {
	Format(key string, args ...string) string
}
