package commands

import "strings"

type Kind int

const (
	KindUnrecognized Kind = iota
	KindList
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindSearch:
		return "search"
	default:
		return "unrecognized"
	}
}

// Command is a parsed slash command text.
type Command struct {
	Kind  Kind
	Query string
}

// ParseCommand reads the first whitespace-delimited token as the verb,
// case-insensitively. For search the remaining tokens joined by single
// spaces form the query, which may be empty.
func ParseCommand(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{Kind: KindUnrecognized}
	}

	switch strings.ToLower(fields[0]) {
	case "list":
		return Command{Kind: KindList}
	case "search":
		return Command{Kind: KindSearch, Query: strings.Join(fields[1:], " ")}
	default:
		return Command{Kind: KindUnrecognized}
	}
}
