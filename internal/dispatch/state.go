// ABOUTME: Turn lifecycle states for the dispatch engine
// ABOUTME: Idle, Classifying, Dispatching, Committing, then back to Idle

package dispatch

// State is a phase of a single turn.
type State int

// Turn states in order.
const (
	StateIdle State = iota
	StateClassifying
	StateDispatching
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateDispatching:
		return "dispatching"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}
