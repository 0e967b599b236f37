package blocks

import "github.com/slack-go/slack"

const CallbackHomeView = "home_view"

// HomeView builds the App Home tab: a title, a divider and one section per
// paragraph.
func HomeView(title string, paragraphs ...string) slack.HomeTabViewRequest {
	set := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, title, false, false), nil, nil),
		slack.NewDividerBlock(),
	}
	for _, p := range paragraphs {
		if p == "" {
			continue
		}
		set = append(set, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, p, false, false), nil, nil))
	}

	return slack.HomeTabViewRequest{
		Type:       slack.VTHomeTab,
		CallbackID: CallbackHomeView,
		Blocks:     slack.Blocks{BlockSet: set},
	}
}
