package core

// Action represents a semantic host action, abstracted from physical key presses.
// This allows the session to work with high-level intents rather than raw input.
type Action int

const (
	ActionNone  Action = iota
	ActionUp           // W, Up arrow - move the human paddle up
	ActionDown         // S, Down arrow - move the human paddle down
	ActionReset        // R key - reset versus scores
	ActionPause        // P key - host-side pause, the session is simply not ticked
	ActionQuit         // Q, Ctrl+C - tear the session down
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionReset:
		return "Reset"
	case ActionPause:
		return "Pause"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
