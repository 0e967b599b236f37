// Package blocks renders repositories and workflows as Slack Block Kit
// content.
package blocks

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/justmike1/slackops/github"
)

const (
	// ActionSelectRepository is the action ID of the per-row button. Its
	// value carries the repository full name.
	ActionSelectRepository = "select_repository"

	DefaultMaxVisible = 10
)

// Item is one entry of a rendered list. Key must identify the item on its
// own since it is all the button carries back.
type Item interface {
	Key() string
	Summary() string
}

type Row struct {
	Text     string
	ActionID string
	Value    string
}

type ListOptions struct {
	Header     string
	MaxVisible int
	ActionID   string
	ButtonText string
	// Singular and Plural name the items in the overflow notice.
	Singular string
	Plural   string
	// NarrowHint tells the user how to get a shorter list.
	NarrowHint string
}

// Rendered is a bounded list ready to be converted to blocks.
type Rendered struct {
	Header     string
	Rows       []Row
	ButtonText string
	Hidden     int
	Overflow   string
}

// FormatList keeps the first MaxVisible items and describes the rest in a
// single overflow notice.
func FormatList(items []Item, opts ListOptions) Rendered {
	maxVisible := opts.MaxVisible
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}

	visible := items
	if len(visible) > maxVisible {
		visible = visible[:maxVisible]
	}

	r := Rendered{
		Header:     opts.Header,
		Rows:       make([]Row, 0, len(visible)),
		ButtonText: opts.ButtonText,
		Hidden:     len(items) - len(visible),
	}
	for _, item := range visible {
		r.Rows = append(r.Rows, Row{
			Text:     item.Summary(),
			ActionID: opts.ActionID,
			Value:    item.Key(),
		})
	}

	if r.Hidden > 0 {
		noun, verb := opts.Plural, "are"
		if r.Hidden == 1 {
			noun, verb = opts.Singular, "is"
		}
		r.Overflow = fmt.Sprintf("%d more %s %s hidden. %s", r.Hidden, noun, verb, opts.NarrowHint)
	}
	return r
}

// Blocks converts the list to a header section, one section per row with a
// button accessory, and a trailing context block for the overflow notice.
func (r Rendered) Blocks() []slack.Block {
	blocks := make([]slack.Block, 0, len(r.Rows)+3)
	if r.Header != "" {
		blocks = append(blocks,
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, r.Header, false, false), nil, nil),
			slack.NewDividerBlock(),
		)
	}

	for _, row := range r.Rows {
		button := slack.NewButtonBlockElement(row.ActionID, row.Value,
			slack.NewTextBlockObject(slack.PlainTextType, r.ButtonText, false, false))
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, row.Text, false, false),
			nil,
			slack.NewAccessory(button),
		))
	}

	if r.Overflow != "" {
		blocks = append(blocks, slack.NewContextBlock("overflow",
			slack.NewTextBlockObject(slack.MarkdownType, r.Overflow, false, false)))
	}
	return blocks
}

type repositoryItem github.RepositoryRef

func (r repositoryItem) Key() string { return r.FullName }

func (r repositoryItem) Summary() string {
	name := fmt.Sprintf("*%s*", r.FullName)
	if r.URL != "" {
		name = fmt.Sprintf("*<%s|%s>*", r.URL, r.FullName)
	}
	summary := fmt.Sprintf("%s\n:star: %d   :fork_and_knife: %d", name, r.Stars, r.Forks)
	if !r.UpdatedAt.IsZero() {
		summary += "   updated " + r.UpdatedAt.Format("2006-01-02")
	}
	return summary
}

// Repositories adapts repository snapshots to list items keyed by full name.
func Repositories(refs []github.RepositoryRef) []Item {
	items := make([]Item, 0, len(refs))
	for _, r := range refs {
		items = append(items, repositoryItem(r))
	}
	return items
}

// RepositoryFromValue decodes a button value back into the repository full
// name it was rendered from.
func RepositoryFromValue(value string) (string, error) {
	if _, _, err := github.SplitFullName(value); err != nil {
		return "", err
	}
	return value, nil
}
