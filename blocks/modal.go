package blocks

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/justmike1/slackops/github"
)

const (
	CallbackDispatchWorkflow = "dispatch_workflow"
	WorkflowBlockID          = "workflow_block"
	WorkflowActionID         = "workflow_select"

	// Slack limits for static selects.
	maxSelectOptions = 100
	maxOptionText    = 75
)

// WorkflowModal builds the workflow picker for repository. metadata is
// stored verbatim in the view's private_metadata.
func WorkflowModal(repository string, workflows []github.WorkflowRef, metadata string) slack.ModalViewRequest {
	if len(workflows) > maxSelectOptions {
		workflows = workflows[:maxSelectOptions]
	}

	options := make([]*slack.OptionBlockObject, 0, len(workflows))
	for _, w := range workflows {
		options = append(options, slack.NewOptionBlockObject(
			w.Name,
			slack.NewTextBlockObject(slack.PlainTextType, truncate(w.Name, maxOptionText), false, false),
			nil,
		))
	}

	selectElement := slack.NewOptionsSelectBlockElement(
		slack.OptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Select a workflow", false, false),
		WorkflowActionID,
		options...,
	)

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackDispatchWorkflow,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Run GitHub Action", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Run", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		PrivateMetadata: metadata,
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType,
						fmt.Sprintf("Choose a workflow to run on the default branch of *%s*.", repository),
						false, false),
					nil, nil),
				slack.NewInputBlock(
					WorkflowBlockID,
					slack.NewTextBlockObject(slack.PlainTextType, "Workflow", false, false),
					nil,
					selectElement,
				),
			},
		},
	}
}

// SelectedWorkflow reads the chosen workflow name from a submitted modal.
func SelectedWorkflow(view slack.View) (string, bool) {
	if view.State == nil {
		return "", false
	}
	action, ok := view.State.Values[WorkflowBlockID][WorkflowActionID]
	if !ok || action.SelectedOption.Value == "" {
		return "", false
	}
	return action.SelectedOption.Value, true
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
