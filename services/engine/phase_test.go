package engine

import "testing"

func TestPhaseTerminal(t *testing.T) {
	terminal := map[Phase]bool{
		PhaseNotStarted:      false,
		PhaseCommitted:       false,
		PhaseActive:          false,
		PhaseEventPending:    false,
		PhaseReadyToComplete: false,
		PhaseCompleted:       true,
		PhaseFailed:          true,
		PhaseExpired:         true,
	}

	for phase, want := range terminal {
		if got := phase.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", phase, got, want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if got := PhaseEventPending.String(); got != "event_pending" {
		t.Fatalf("String = %q, want event_pending", got)
	}
	if got := Phase(200).String(); got != "unknown" {
		t.Fatalf("String = %q, want unknown", got)
	}
}
