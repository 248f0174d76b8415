package engine

import "testing"

func singleRequired(t *testing.T, objType ObjectiveType, target int) *ObjectiveSet {
	t.Helper()
	set, err := NewObjectiveSet([]Objective{
		{ID: 0, Type: objType, Target: target, Required: true},
	})
	if err != nil {
		t.Fatalf("NewObjectiveSet: %v", err)
	}
	return set
}

func squadState(t *testing.T, m *MissionMap, objs *ObjectiveSet, charge int) *State {
	t.Helper()
	return &State{
		Map:        m,
		Objectives: objs,
		Squad: []*Participant{
			{OperativeID: "op-1", InitialCharge: charge, Charge: charge},
		},
	}
}

// seedWithActionRolls scans for a seed whose first len(accept) action
// rolls all satisfy their predicate, so outcome-dependent paths stay
// deterministic without fixing magic constants.
func seedWithActionRolls(t *testing.T, accept ...func(roll int) bool) int64 {
	t.Helper()
	for seed := int64(0); seed < 10000; seed++ {
		ok := true
		for n, pred := range accept {
			if !pred(rngFor(seed, "action", uint64(n)).Intn(100)) {
				ok = false
				break
			}
		}
		if ok {
			return seed
		}
	}
	t.Fatal("no seed found for requested roll pattern")
	return 0
}

func TestActionCosts(t *testing.T) {
	tests := []struct {
		action ActionType
		style  CombatStyle
		want   int
	}{
		{ActionMove, StyleBalanced, 2},
		{ActionScan, StyleBalanced, 5},
		{ActionLoot, StyleBalanced, 3},
		{ActionCombat, StyleAggressive, 15},
		{ActionCombat, StyleBalanced, 10},
		{ActionCombat, StyleDefensive, 5},
		{ActionStealth, StyleBalanced, 8},
		{ActionHack, StyleBalanced, 6},
		{ActionRest, StyleBalanced, 0},
	}

	for _, tt := range tests {
		if got := tt.action.Cost(tt.style); got != tt.want {
			t.Errorf("%s/%s cost = %d, want %d", tt.action, tt.style, got, tt.want)
		}
	}
}

func TestCombatMath(t *testing.T) {
	if got := EffectivePower(1); got != 25 {
		t.Fatalf("EffectivePower(1) = %d, want 25", got)
	}
	// 50 + 80 = 130 > 25 + 25 = 50
	if !CombatVictory(50, 80, 1) {
		t.Fatal("aggressive roll 50 vs difficulty 1 should win")
	}
	if got := EffectivePower(1) / 2; got != 12 {
		t.Fatalf("defeat damage = %d, want 12", got)
	}
	// defensive vs difficulty 10: need roll > 45
	if CombatVictory(45, 50, 10) {
		t.Fatal("roll 45 defensive vs difficulty 10 should lose")
	}
	if !CombatVictory(46, 50, 10) {
		t.Fatal("roll 46 defensive vs difficulty 10 should win")
	}
}

func TestMoveAndDiscovery(t *testing.T) {
	m := corridor(t, 4)
	m.Nodes[1].Type = NodeSecret
	m.Nodes[1].HasLoot = true

	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 2), 50)

	results, err := ResolveActions(st, 1, ResolveParams{}, []Action{
		{Type: ActionMove, OperativeID: "op-1", Target: 1},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	res := results[0]
	if !res.Success || res.ChargeSpent != 2 {
		t.Fatalf("move result = %+v, want success at cost 2", res)
	}
	if st.CurrentNode != 1 || !m.Nodes[1].Discovered {
		t.Fatal("move did not relocate and discover")
	}
	if st.Counters.SecretsFound != 1 {
		t.Fatalf("secrets found = %d, want 1 (secret node discovered)", st.Counters.SecretsFound)
	}
	if st.Objectives.Objectives[0].Progress != 1 {
		t.Fatalf("discover progress = %d, want 1", st.Objectives.Objectives[0].Progress)
	}

	// non-adjacent target burns the charge but mutates nothing else
	results, err = ResolveActions(st, 1, ResolveParams{}, []Action{
		{Type: ActionMove, OperativeID: "op-1", Target: 3},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success || results[0].ChargeSpent != 2 {
		t.Fatalf("invalid move = %+v, want silent failure with charge spent", results[0])
	}
	if st.CurrentNode != 1 {
		t.Fatalf("invalid move relocated to %d", st.CurrentNode)
	}
}

func TestScanDiscoversNeighbors(t *testing.T) {
	m := corridor(t, 4)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 3), 50)
	st.CurrentNode = 1
	m.Nodes[1].Discovered = true

	_, err := ResolveActions(st, 3, ResolveParams{}, []Action{
		{Type: ActionScan, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if !m.Nodes[2].Discovered {
		t.Fatal("scan did not discover the forward neighbor")
	}
	// node 0 was already discovered; only node 2 counts as new progress
	if got := st.Objectives.Objectives[0].Progress; got != 1 {
		t.Fatalf("discover progress = %d, want 1", got)
	}
}

func TestLootConsumesFlagOnce(t *testing.T) {
	m := corridor(t, 3)
	m.Nodes[1].Type = NodeLoot
	m.Nodes[1].HasLoot = true

	st := squadState(t, m, singleRequired(t, ObjectiveCollect, 1), 50)
	st.CurrentNode = 1

	results, err := ResolveActions(st, 8, ResolveParams{}, []Action{
		{Type: ActionLoot, OperativeID: "op-1"},
		{Type: ActionLoot, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	first := results[0]
	if !first.Success || first.Loot == nil {
		t.Fatalf("first loot = %+v, want success with grant", first)
	}
	units := first.Loot.Salvage + first.Loot.Crystal
	if units < 1 || units > 3 {
		t.Fatalf("loot units = %d, want 1-3", units)
	}
	if first.Loot.Component < 0 || first.Loot.Component > 1 {
		t.Fatalf("component units = %d, want 0 or 1", first.Loot.Component)
	}
	if m.Nodes[1].HasLoot {
		t.Fatal("loot flag not consumed")
	}
	if !st.Objectives.Objectives[0].Completed {
		t.Fatal("collect objective not completed")
	}

	second := results[1]
	if second.Success || second.ChargeSpent != 3 {
		t.Fatalf("second loot = %+v, want silent failure with charge spent", second)
	}
}

func TestCombatVictoryPath(t *testing.T) {
	seed := seedWithActionRolls(t, func(roll int) bool { return roll > 45 })

	m := corridor(t, 3)
	m.Nodes[1].Type = NodeCombat
	m.Nodes[1].HasEnemy = true
	m.Nodes[1].Difficulty = 10

	st := squadState(t, m, singleRequired(t, ObjectiveDefeat, 1), 100)
	st.CurrentNode = 1

	results, err := ResolveActions(st, seed, ResolveParams{}, []Action{
		{Type: ActionCombat, OperativeID: "op-1", Style: StyleDefensive},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	res := results[0]
	if !res.Success || res.ChargeSpent != 5 {
		t.Fatalf("combat result = %+v, want defensive victory", res)
	}
	node := m.Nodes[1]
	if node.HasEnemy || !node.Completed {
		t.Fatal("victory did not clear enemy and complete node")
	}
	if st.Counters.CombatsWon != 1 || st.Counters.CombatsLost != 0 {
		t.Fatalf("counters = %+v, want one win", st.Counters)
	}
	actor := st.Squad[0]
	if actor.DamageDealt != EffectivePower(10) || actor.XP != 50 {
		t.Fatalf("actor after win = %+v", actor)
	}
	if !st.Objectives.Objectives[0].Completed {
		t.Fatal("defeat objective not completed")
	}
}

func TestCombatDefeatAndIncapacitation(t *testing.T) {
	lose := func(roll int) bool { return roll <= 45 }
	seed := seedWithActionRolls(t, lose, lose)

	m := corridor(t, 3)
	m.Nodes[1].Type = NodeCombat
	m.Nodes[1].HasEnemy = true
	m.Nodes[1].Difficulty = 10 // defeat damage 35

	st := squadState(t, m, singleRequired(t, ObjectiveDefeat, 1), 100)
	st.CurrentNode = 1

	combat := Action{Type: ActionCombat, OperativeID: "op-1", Style: StyleDefensive}
	results, err := ResolveActions(st, seed, ResolveParams{}, []Action{combat, combat})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if results[0].Success || results[1].Success {
		t.Fatalf("results = %+v, want two defeats", results)
	}

	actor := st.Squad[0]
	if actor.DamageTaken != 70 {
		t.Fatalf("damage taken = %d, want 70", actor.DamageTaken)
	}
	// 70 > 100/2 crosses the incapacitation line on the second loss
	if actor.Status != ParticipantIncapacitated {
		t.Fatalf("status = %s, want incapacitated", actor.Status)
	}
	if st.Counters.CombatsLost != 2 {
		t.Fatalf("combats lost = %d, want 2", st.Counters.CombatsLost)
	}
	if m.Nodes[1].HasEnemy != true {
		t.Fatal("enemy should survive both defeats")
	}

	// an incapacitated operative can no longer act
	results, err = ResolveActions(st, seed, ResolveParams{}, []Action{
		{Type: ActionScan, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success || results[0].ChargeSpent != 0 {
		t.Fatalf("incapacitated action = %+v, want refusal without charge", results[0])
	}
}

func TestStealthBypass(t *testing.T) {
	seed := seedWithActionRolls(t, func(roll int) bool { return roll > 8 })

	m := corridor(t, 3)
	m.Nodes[1].Type = NodeCombat
	m.Nodes[1].HasEnemy = true
	m.Nodes[1].Difficulty = 1

	st := squadState(t, m, singleRequired(t, ObjectiveStealth, 1), 50)
	st.CurrentNode = 1

	results, err := ResolveActions(st, seed, ResolveParams{}, []Action{
		{Type: ActionStealth, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if !results[0].Success || results[0].ChargeSpent != 8 {
		t.Fatalf("stealth result = %+v, want success at cost 8", results[0])
	}
	node := m.Nodes[1]
	if node.HasEnemy {
		t.Fatal("stealth did not clear the enemy")
	}
	if node.Completed {
		t.Fatal("bypass must not complete the node")
	}
	if st.Counters.StealthSuccesses != 1 {
		t.Fatalf("stealth successes = %d, want 1", st.Counters.StealthSuccesses)
	}
}

func TestHackTerminal(t *testing.T) {
	seed := seedWithActionRolls(t, func(roll int) bool { return roll > 12 })

	m := corridor(t, 3)
	m.Nodes[1].Type = NodeTerminal
	m.Nodes[1].Difficulty = 2

	st := squadState(t, m, singleRequired(t, ObjectiveHack, 1), 50)
	st.CurrentNode = 1

	results, err := ResolveActions(st, seed, ResolveParams{}, []Action{
		{Type: ActionHack, OperativeID: "op-1"},
		{Type: ActionHack, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	first := results[0]
	if !first.Success || first.Loot == nil || first.Loot.Crystal != 4 {
		t.Fatalf("hack result = %+v, want success with difficulty-scaled crystal", first)
	}
	if !m.Nodes[1].Completed {
		t.Fatal("hack did not complete the terminal")
	}
	if st.Counters.HacksCompleted != 1 {
		t.Fatalf("hacks completed = %d, want 1", st.Counters.HacksCompleted)
	}

	if results[1].Success {
		t.Fatal("re-hacking a breached terminal must fail")
	}

	// hack away from a terminal is an invalid combination
	st.CurrentNode = 0
	results, err = ResolveActions(st, seed, ResolveParams{}, []Action{
		{Type: ActionHack, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success || results[0].ChargeSpent != 6 {
		t.Fatalf("off-terminal hack = %+v, want silent failure with charge spent", results[0])
	}
}

func TestRest(t *testing.T) {
	m := corridor(t, 3)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 1), 50)
	params := ResolveParams{MaxRests: 1}

	// resting at full charge has nothing to restore
	results, err := ResolveActions(st, 2, params, []Action{
		{Type: ActionRest, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success {
		t.Fatal("rest at full charge should fail")
	}

	st.Squad[0].Charge = 44
	results, err = ResolveActions(st, 2, params, []Action{
		{Type: ActionRest, OperativeID: "op-1"},
		{Type: ActionRest, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	first := results[0]
	if !first.Success || first.Restored != 6 || first.ChargeSpent != 0 {
		t.Fatalf("rest result = %+v, want 6 restored for free", first)
	}
	if st.Squad[0].Charge != 50 {
		t.Fatalf("charge = %d, want restored to initial 50", st.Squad[0].Charge)
	}
	if results[1].Success {
		t.Fatal("second rest should hit the per-mission cap")
	}

	st.Squad[0].Charge = 10
	results, err = ResolveActions(st, 2, ResolveParams{}, []Action{
		{Type: ActionRest, OperativeID: "op-1"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success {
		t.Fatal("rest must be disabled when the variant allows none")
	}
}

func TestInsufficientChargeSpendsNothing(t *testing.T) {
	m := corridor(t, 3)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 1), 1)

	results, err := ResolveActions(st, 5, ResolveParams{}, []Action{
		{Type: ActionMove, OperativeID: "op-1", Target: 1},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	res := results[0]
	if res.Success || res.ChargeSpent != 0 {
		t.Fatalf("broke action = %+v, want failure without spend", res)
	}
	if st.Squad[0].Charge != 1 || st.Counters.ChargeUsed != 0 {
		t.Fatal("charge mutated despite insufficient balance")
	}
	if st.Counters.TotalActions != 1 || st.Squad[0].Actions != 1 {
		t.Fatal("attempt should still count as an action")
	}
}

func TestUnknownOperativeRejected(t *testing.T) {
	m := corridor(t, 3)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 1), 50)

	results, err := ResolveActions(st, 5, ResolveParams{}, []Action{
		{Type: ActionScan, OperativeID: "ghost"},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if results[0].Success || results[0].ChargeSpent != 0 {
		t.Fatalf("ghost action = %+v, want refusal", results[0])
	}
	if st.Squad[0].Actions != 0 {
		t.Fatal("squad member charged with a ghost's action")
	}
}

func TestBatchBounds(t *testing.T) {
	m := corridor(t, 3)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 1), 50)

	if _, err := ResolveActions(st, 1, ResolveParams{}, nil); err == nil {
		t.Fatal("empty batch accepted")
	}

	six := make([]Action, MaxBatchActions+1)
	for i := range six {
		six[i] = Action{Type: ActionScan, OperativeID: "op-1"}
	}
	if _, err := ResolveActions(st, 1, ResolveParams{}, six); err == nil {
		t.Fatal("oversized batch accepted")
	}
}

func TestEventTriggerStopsBatch(t *testing.T) {
	m := corridor(t, 6)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 5), 100)
	params := ResolveParams{EventFrequency: 10, MaxEvents: 2} // 100% per action

	scan := Action{Type: ActionScan, OperativeID: "op-1"}
	results, err := ResolveActions(st, 77, params, []Action{scan, scan, scan})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("resolved %d actions, want batch stopped at 1", len(results))
	}
	if results[0].EventID == 0 || st.PendingEventID != results[0].EventID {
		t.Fatalf("result = %+v pending=%d, want matching event id", results[0], st.PendingEventID)
	}
	if st.Counters.EventsTriggered != 1 {
		t.Fatalf("events triggered = %d, want 1", st.Counters.EventsTriggered)
	}

	if _, err := ResolveActions(st, 77, params, []Action{scan}); err == nil {
		t.Fatal("acting with a pending event must be rejected")
	}
}

func TestEventQuotaSuppressesTriggers(t *testing.T) {
	m := corridor(t, 6)
	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 5), 100)
	params := ResolveParams{EventFrequency: 10, MaxEvents: 0}

	scan := Action{Type: ActionScan, OperativeID: "op-1"}
	results, err := ResolveActions(st, 77, params, []Action{scan, scan})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("resolved %d actions, want full batch with quota exhausted", len(results))
	}
	if st.PendingEventID != 0 || st.Counters.EventsTriggered != 0 {
		t.Fatal("event triggered past the quota")
	}
}

func TestEventNodeForcesTrigger(t *testing.T) {
	m := corridor(t, 4)
	m.Nodes[1].Type = NodeEvent

	st := squadState(t, m, singleRequired(t, ObjectiveDiscover, 3), 100)
	params := ResolveParams{EventFrequency: 0, MaxEvents: 3}

	results, err := ResolveActions(st, 4, params, []Action{
		{Type: ActionMove, OperativeID: "op-1", Target: 1},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}

	if results[0].EventID == 0 {
		t.Fatal("event node did not force a trigger")
	}
	if !m.Nodes[1].Completed {
		t.Fatal("event node should spend itself on the forced trigger")
	}

	// the spent node never re-triggers
	st.PendingEventID = 0
	_, err = ResolveActions(st, 4, params, []Action{
		{Type: ActionMove, OperativeID: "op-1", Target: 0},
		{Type: ActionMove, OperativeID: "op-1", Target: 1},
	})
	if err != nil {
		t.Fatalf("ResolveActions: %v", err)
	}
	if st.PendingEventID != 0 {
		t.Fatal("spent event node triggered again")
	}
}
