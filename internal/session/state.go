package session

import "fmt"

// State is where the controller is in the per-item lifecycle.
type State int

const (
	Idle State = iota
	Displaying
	DecisionPending
	StoppingPlayback
	Relocating
	Complete
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Displaying:
		return "displaying"
	case DecisionPending:
		return "decision_pending"
	case StoppingPlayback:
		return "stopping_playback"
	case Relocating:
		return "relocating"
	case Complete:
		return "complete"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Done reports whether the session has ended.
func (s State) Done() bool {
	return s == Complete || s == Closed
}

// Stats counts items by outcome. Relocated + Skipped + Failed + Remaining,
// plus one while an item is current, always equals Total.
type Stats struct {
	Total     int
	Relocated int
	Skipped   int
	Failed    int
	Remaining int
	Current   bool
}

// Decided is the number of items no longer pending or current.
func (s Stats) Decided() int {
	return s.Relocated + s.Skipped + s.Failed
}
