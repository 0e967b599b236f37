package commands

// State is a step of the command/dialog flow. Each handler walks a
// contiguous slice of it and logs every transition.
type State string

const (
	StateIdle            State = "idle"
	StateListRequested   State = "list_requested"
	StateSearchRequested State = "search_requested"
	StateResultsShown    State = "results_shown"
	StateDialogOpen      State = "dialog_open"
	StateActionSubmitted State = "action_submitted"
	StateDone            State = "done"
)
