package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justmike1/slackops/github"
)

var errEmptySelection = errors.New("selection carries no repository")

// PendingSelection travels in the workflow modal's private_metadata between
// the repository click and the modal submission. Nothing is kept in memory.
type PendingSelection struct {
	Repository string `json:"repo"`
	Workflow   string `json:"workflow,omitempty"`
}

func (p PendingSelection) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode selection: %w", err)
	}
	return string(b), nil
}

// DecodeSelection parses private_metadata written by Encode and checks the
// repository is an owner/name pair.
func DecodeSelection(raw string) (PendingSelection, error) {
	var p PendingSelection
	if raw == "" {
		return p, errEmptySelection
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return PendingSelection{}, fmt.Errorf("failed to decode selection: %w", err)
	}
	if p.Repository == "" {
		return PendingSelection{}, errEmptySelection
	}
	if _, _, err := github.SplitFullName(p.Repository); err != nil {
		return PendingSelection{}, err
	}
	return p, nil
}
