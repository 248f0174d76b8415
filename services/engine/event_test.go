package engine

import "testing"

func TestEventTypeOf(t *testing.T) {
	tests := []struct {
		id   uint64
		want EventType
	}{
		{0, EventPatrol},
		{1, EventTrap},
		{2, EventAmbush},
		{3, EventDiscovery},
		{4, EventAlly},
		{5, EventEnvironmental},
		{6, EventPatrol},
		{6000000000000000003, EventDiscovery},
	}

	for _, tt := range tests {
		if got := EventTypeOf(tt.id); got != tt.want {
			t.Errorf("EventTypeOf(%d) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestSuccessChance(t *testing.T) {
	tests := []struct {
		event    EventType
		response EventResponse
		want     int
	}{
		{EventPatrol, ResponseHide, 70},
		{EventPatrol, ResponseFight, 40},
		{EventPatrol, ResponseFlee, 50},
		{EventDiscovery, ResponseDecline, 90},
		{EventDiscovery, ResponseAccept, 90},
		{EventAlly, ResponseAccept, 80},
		{EventAlly, ResponseDecline, 50},
		{EventTrap, ResponseFlee, 50},
		{EventAmbush, ResponseFight, 50},
		{EventEnvironmental, ResponseHide, 50},
	}

	for _, tt := range tests {
		if got := SuccessChance(tt.event, tt.response); got != tt.want {
			t.Errorf("SuccessChance(%s, %s) = %d, want %d", tt.event, tt.response, got, tt.want)
		}
	}
}

// eventIDWithRoll scans for an event id of the wanted type whose
// resolution roll satisfies the predicate.
func eventIDWithRoll(t *testing.T, seed int64, want EventType, pred func(roll int) bool) uint64 {
	t.Helper()
	for id := uint64(1); id < 10000; id++ {
		if EventTypeOf(id) != want {
			continue
		}
		if pred(rngFor(seed, "event-resolve", id).Intn(100)) {
			return id
		}
	}
	t.Fatal("no event id found for requested roll pattern")
	return 0
}

func TestResolveEventDeterminism(t *testing.T) {
	out := ResolveEvent(11, 42, ResponseHide)
	again := ResolveEvent(11, 42, ResponseHide)
	if out != again {
		t.Fatalf("same inputs resolved differently: %+v then %+v", out, again)
	}
}

func TestResolveEventFailureDamage(t *testing.T) {
	const seed = int64(21)
	id := eventIDWithRoll(t, seed, EventPatrol, func(roll int) bool {
		return roll >= SuccessChance(EventPatrol, ResponseFight)
	})

	out := ResolveEvent(seed, id, ResponseFight)
	if out.Success {
		t.Fatalf("outcome = %+v, want failure", out)
	}
	if out.Damage != EventFailureDamage {
		t.Fatalf("damage = %d, want %d", out.Damage, EventFailureDamage)
	}
	if out.SecretFound {
		t.Fatal("failed event granted a secret")
	}
}

func TestResolveEventDiscoverySecret(t *testing.T) {
	const seed = int64(33)
	id := eventIDWithRoll(t, seed, EventDiscovery, func(roll int) bool {
		return roll < SuccessChance(EventDiscovery, ResponseAccept)
	})

	out := ResolveEvent(seed, id, ResponseAccept)
	if !out.Success || !out.SecretFound {
		t.Fatalf("outcome = %+v, want successful discovery with secret", out)
	}
	if out.Damage != 0 {
		t.Fatalf("successful event dealt %d damage", out.Damage)
	}
}

func TestApplyEventOutcome(t *testing.T) {
	m := corridor(t, 3)
	objs, err := NewObjectiveSet([]Objective{
		{ID: 0, Type: ObjectiveSurvive, Target: 1, Required: true},
	})
	if err != nil {
		t.Fatalf("NewObjectiveSet: %v", err)
	}

	st := &State{Map: m, Objectives: objs, PendingEventID: 9}
	st.ApplyEventOutcome(EventOutcome{EventID: 9, Type: EventDiscovery, Success: true, SecretFound: true})

	if st.PendingEventID != 0 {
		t.Fatal("pending event not cleared")
	}
	if st.Counters.EventsResolved != 1 || st.Counters.SecretsFound != 1 {
		t.Fatalf("counters = %+v, want resolved and secret counted", st.Counters)
	}
	if !st.DiscoveryBonus {
		t.Fatal("discovery bonus flag not set")
	}
	if !st.Objectives.Objectives[0].Completed {
		t.Fatal("survive objective not advanced")
	}

	st.PendingEventID = 10
	st.ApplyEventOutcome(EventOutcome{EventID: 10, Type: EventTrap, Success: false, Damage: EventFailureDamage})

	if st.Counters.EventsFailed != 1 {
		t.Fatalf("events failed = %d, want 1", st.Counters.EventsFailed)
	}
	if st.Counters.SessionDamage != EventFailureDamage {
		t.Fatalf("session damage = %d, want %d", st.Counters.SessionDamage, EventFailureDamage)
	}
	if st.PendingEventID != 0 {
		t.Fatal("pending event not cleared on failure")
	}
}
