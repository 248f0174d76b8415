package engine

import "fmt"

type EventType uint8

const (
	EventPatrol EventType = iota
	EventTrap
	EventAmbush
	EventDiscovery
	EventAlly
	EventEnvironmental
)

func (t EventType) String() string {
	switch t {
	case EventPatrol:
		return "patrol"
	case EventTrap:
		return "trap"
	case EventAmbush:
		return "ambush"
	case EventDiscovery:
		return "discovery"
	case EventAlly:
		return "ally"
	case EventEnvironmental:
		return "environmental"
	}
	return "unknown"
}

type EventResponse uint8

const (
	ResponseFight EventResponse = iota
	ResponseHide
	ResponseFlee
	ResponseAccept
	ResponseDecline
)

func (r EventResponse) String() string {
	switch r {
	case ResponseFight:
		return "fight"
	case ResponseHide:
		return "hide"
	case ResponseFlee:
		return "flee"
	case ResponseAccept:
		return "accept"
	case ResponseDecline:
		return "decline"
	}
	return "unknown"
}

func ParseEventResponse(s string) (EventResponse, error) {
	switch s {
	case "fight":
		return ResponseFight, nil
	case "hide":
		return ResponseHide, nil
	case "flee":
		return ResponseFlee, nil
	case "accept":
		return ResponseAccept, nil
	case "decline":
		return ResponseDecline, nil
	}
	return 0, fmt.Errorf("unknown event response %q", s)
}

// EventFailureDamage is recorded against the session, not a specific
// participant.
const EventFailureDamage = 10

// EventTypeOf maps an event id onto its type.
func EventTypeOf(eventID uint64) EventType {
	return EventType(eventID % 6)
}

// SuccessChance is the percent chance of resolving an event favorably
// with the given response. Discovery is nearly free; the rest hover
// around a coin flip with a few tuned pairings.
func SuccessChance(t EventType, r EventResponse) int {
	if t == EventDiscovery {
		return 90
	}

	switch {
	case t == EventPatrol && r == ResponseHide:
		return 70
	case t == EventPatrol && r == ResponseFight:
		return 40
	case t == EventAlly && r == ResponseAccept:
		return 80
	}
	return 50
}

type EventOutcome struct {
	EventID     uint64        `json:"event_id"`
	Type        EventType     `json:"type"`
	Response    EventResponse `json:"response"`
	Roll        int           `json:"roll"`
	Success     bool          `json:"success"`
	Damage      int           `json:"damage,omitempty"`
	SecretFound bool          `json:"secret_found,omitempty"`
}

// ResolveEvent decides a pending event deterministically from the
// session seed and the event id.
func ResolveEvent(seed int64, eventID uint64, r EventResponse) EventOutcome {
	t := EventTypeOf(eventID)
	roll := rngFor(seed, "event-resolve", eventID).Intn(100)

	out := EventOutcome{
		EventID:  eventID,
		Type:     t,
		Response: r,
		Roll:     roll,
		Success:  roll < SuccessChance(t, r),
	}

	if out.Success {
		if t == EventDiscovery {
			out.SecretFound = true
		}
	} else {
		out.Damage = EventFailureDamage
	}
	return out
}
