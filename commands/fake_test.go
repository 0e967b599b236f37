package commands

import (
	"context"
	"strings"
	"sync"

	slacklib "github.com/slack-go/slack"

	"github.com/justmike1/slackops/github"
	opsslack "github.com/justmike1/slackops/slack"
)

type sentResponse struct {
	URL  string
	Resp opsslack.Response
}

type sentMessage struct {
	To   string
	Text string
}

type fakeSlack struct {
	mu sync.Mutex

	openErr error

	responses []sentResponse
	views     []slacklib.ModalViewRequest
	triggers  []string
	dms       []sentMessage
	posts     []sentMessage
	homes     map[string]slacklib.HomeTabViewRequest
}

func (f *fakeSlack) Respond(_ context.Context, responseURL string, resp opsslack.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, sentResponse{URL: responseURL, Resp: resp})
	return nil
}

func (f *fakeSlack) OpenView(_ context.Context, triggerID string, view slacklib.ModalViewRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.triggers = append(f.triggers, triggerID)
	f.views = append(f.views, view)
	return nil
}

func (f *fakeSlack) SendDirectMessage(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, sentMessage{To: userID, Text: text})
	return nil
}

func (f *fakeSlack) PostMessage(_ context.Context, channelID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, sentMessage{To: channelID, Text: text})
	return "1700000000.000100", nil
}

func (f *fakeSlack) PublishView(_ context.Context, userID string, view slacklib.HomeTabViewRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.homes == nil {
		f.homes = map[string]slacklib.HomeTabViewRequest{}
	}
	f.homes[userID] = view
	return nil
}

type fakeDirectory struct {
	repos   []github.RepositoryRef
	err     error
	queries []string
}

func (f *fakeDirectory) ListAll(context.Context) ([]github.RepositoryRef, error) {
	return f.repos, f.err
}

func (f *fakeDirectory) Search(_ context.Context, query string) ([]github.RepositoryRef, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	var out []github.RepositoryRef
	for _, r := range f.repos {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	workflows map[string][]github.WorkflowRef
	err       error
}

func (f *fakeCatalog) ListWorkflows(_ context.Context, fullName string) ([]github.WorkflowRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.workflows[fullName], nil
}

type triggerCall struct {
	Repository, Workflow string
}

type fakeTrigger struct {
	result github.DispatchResult
	err    error
	calls  []triggerCall
}

func (f *fakeTrigger) Trigger(_ context.Context, fullName, workflowName string) (github.DispatchResult, error) {
	f.calls = append(f.calls, triggerCall{Repository: fullName, Workflow: workflowName})
	return f.result, f.err
}
