// Package engine implements the deterministic mission core: phase
// transitions, procedural map and objective generation, action and event
// resolution, and reward math. Everything here is a pure function of the
// session seed and the supplied state; the package knows nothing about
// storage or transport.
package engine

type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseCommitted
	PhaseActive
	PhaseEventPending
	PhaseReadyToComplete
	PhaseCompleted
	PhaseFailed
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseCommitted:
		return "committed"
	case PhaseActive:
		return "active"
	case PhaseEventPending:
		return "event_pending"
	case PhaseReadyToComplete:
		return "ready_to_complete"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseExpired:
		return "expired"
	}
	return "unknown"
}

// Terminal reports whether the phase admits no further mutation.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseExpired
}
