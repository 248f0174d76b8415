package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

type ActionType uint8

const (
	ActionMove ActionType = iota
	ActionScan
	ActionLoot
	ActionCombat
	ActionStealth
	ActionHack
	ActionRest
)

func (a ActionType) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionScan:
		return "scan"
	case ActionLoot:
		return "loot"
	case ActionCombat:
		return "combat"
	case ActionStealth:
		return "stealth"
	case ActionHack:
		return "hack"
	case ActionRest:
		return "rest"
	}
	return "unknown"
}

func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "move":
		return ActionMove, nil
	case "scan":
		return ActionScan, nil
	case "loot":
		return ActionLoot, nil
	case "combat":
		return ActionCombat, nil
	case "stealth":
		return ActionStealth, nil
	case "hack":
		return ActionHack, nil
	case "rest":
		return ActionRest, nil
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

type CombatStyle uint8

const (
	StyleBalanced CombatStyle = iota
	StyleAggressive
	StyleDefensive
)

func (s CombatStyle) String() string {
	switch s {
	case StyleAggressive:
		return "aggressive"
	case StyleDefensive:
		return "defensive"
	}
	return "balanced"
}

func ParseCombatStyle(s string) (CombatStyle, error) {
	switch s {
	case "", "balanced":
		return StyleBalanced, nil
	case "aggressive":
		return StyleAggressive, nil
	case "defensive":
		return StyleDefensive, nil
	}
	return 0, fmt.Errorf("unknown combat style %q", s)
}

// AttackerPower is the offensive weight a style brings to the combat
// roll. Heavier styles cost proportionally more charge.
func (s CombatStyle) AttackerPower() int {
	switch s {
	case StyleAggressive:
		return 80
	case StyleDefensive:
		return 50
	}
	return 65
}

// Cost is the fixed charge price of an action.
func (a ActionType) Cost(style CombatStyle) int {
	switch a {
	case ActionMove:
		return 2
	case ActionScan:
		return 5
	case ActionLoot:
		return 3
	case ActionCombat:
		switch style {
		case StyleAggressive:
			return 15
		case StyleDefensive:
			return 5
		}
		return 10
	case ActionStealth:
		return 8
	case ActionHack:
		return 6
	}
	return 0
}

const (
	MinParticipants = 1
	MaxParticipants = 5
	MaxBatchActions = 5

	DefaultRestRestore = 10

	rareComponentChance = 5
)

type ParticipantStatus uint8

const (
	ParticipantActive ParticipantStatus = iota
	ParticipantIncapacitated
	ParticipantExtracted
)

func (s ParticipantStatus) String() string {
	switch s {
	case ParticipantIncapacitated:
		return "incapacitated"
	case ParticipantExtracted:
		return "extracted"
	}
	return "active"
}

// Participant is one squad member's in-mission state.
type Participant struct {
	OperativeID   string            `json:"operative_id"`
	InitialCharge int               `json:"initial_charge"`
	Charge        int               `json:"charge"`
	DamageDealt   int               `json:"damage_dealt"`
	DamageTaken   int               `json:"damage_taken"`
	XP            int               `json:"xp"`
	Actions       int               `json:"actions"`
	Rests         int               `json:"rests"`
	Status        ParticipantStatus `json:"status"`
}

// Counters aggregates the session-level tallies the reward calculator
// and profile updates read.
type Counters struct {
	TotalActions     int `json:"total_actions"`
	CombatsWon       int `json:"combats_won"`
	CombatsLost      int `json:"combats_lost"`
	ChargeUsed       int `json:"charge_used"`
	EventsTriggered  int `json:"events_triggered"`
	EventsResolved   int `json:"events_resolved"`
	EventsFailed     int `json:"events_failed"`
	StealthSuccesses int `json:"stealth_successes"`
	HacksCompleted   int `json:"hacks_completed"`
	SecretsFound     int `json:"secrets_found"`
	SessionDamage    int `json:"session_damage"`
}

// State is the mutable mission snapshot the resolver operates on. The
// caller owns loading and persisting it.
type State struct {
	Map            *MissionMap
	Objectives     *ObjectiveSet
	Squad          []*Participant
	CurrentNode    uint8
	Counters       Counters
	PendingEventID uint64
	DiscoveryBonus bool
}

func (st *State) participant(operativeID string) *Participant {
	for _, p := range st.Squad {
		if p.OperativeID == operativeID {
			return p
		}
	}
	return nil
}

// Action is one player-chosen step. Target only applies to moves, Style
// only to combat.
type Action struct {
	Type        ActionType  `json:"type"`
	OperativeID string      `json:"operative_id"`
	Target      uint8       `json:"target"`
	Style       CombatStyle `json:"style"`
}

// LootGrant is the resource yield of a single action.
type LootGrant struct {
	Salvage   int `json:"salvage"`
	Crystal   int `json:"crystal"`
	Component int `json:"component"`
}

func (g *LootGrant) Empty() bool {
	return g.Salvage == 0 && g.Crystal == 0 && g.Component == 0
}

type ActionResult struct {
	Action      ActionType `json:"action"`
	OperativeID string     `json:"operative_id"`
	Success     bool       `json:"success"`
	ChargeSpent int        `json:"charge_spent"`
	Restored    int        `json:"restored,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Loot        *LootGrant `json:"loot,omitempty"`
	EventID     uint64     `json:"event_id,omitempty"`
}

// ResolveParams is the pacing slice of a mission variant.
type ResolveParams struct {
	EventFrequency int // 0-10, each step is 10% trigger chance per action
	MaxEvents      int
	MaxRests       int
	RestRestore    int
}

// EffectivePower is the defensive strength of a node's enemy.
func EffectivePower(difficulty uint8) int {
	return int(difficulty)*5 + 20
}

// CombatVictory applies the engagement rule to a 0-99 roll.
func CombatVictory(roll, attackerPower int, difficulty uint8) bool {
	return roll+attackerPower > EffectivePower(difficulty)+25
}

// StealthSuccess gets harder linearly with difficulty.
func StealthSuccess(roll int, difficulty uint8) bool {
	return roll > int(difficulty)*8
}

// HackSuccess gets harder linearly with difficulty, gentler than stealth.
func HackSuccess(roll int, difficulty uint8) bool {
	return roll > int(difficulty)*6
}

// ResolveActions applies up to MaxBatchActions in submitted order.
// Resolution is a pure function of (state, seed, params, actions); every
// roll derives from the session seed and the running action count, so a
// replay over the same inputs lands on the same outputs. A triggered
// event stops the batch and leaves the remaining actions unconsumed.
func ResolveActions(st *State, seed int64, p ResolveParams, actions []Action) ([]ActionResult, error) {
	if len(actions) == 0 {
		return nil, errors.New("empty action batch")
	}
	if len(actions) > MaxBatchActions {
		return nil, fmt.Errorf("batch of %d actions exceeds limit %d", len(actions), MaxBatchActions)
	}
	if st.PendingEventID != 0 {
		return nil, errors.New("unresolved event pending")
	}

	results := make([]ActionResult, 0, len(actions))
	for _, a := range actions {
		res := st.resolveOne(seed, p, a)
		results = append(results, res)
		if res.EventID != 0 {
			break
		}
	}
	return results, nil
}

func (st *State) resolveOne(seed int64, p ResolveParams, a Action) ActionResult {
	n := uint64(st.Counters.TotalActions)
	st.Counters.TotalActions++

	res := ActionResult{Action: a.Type, OperativeID: a.OperativeID}

	actor := st.participant(a.OperativeID)
	if actor == nil {
		res.Detail = "not in squad"
		return res
	}
	if actor.Status != ParticipantActive {
		res.Detail = "participant unavailable"
		return res
	}
	actor.Actions++

	cost := a.Type.Cost(a.Style)
	if actor.Charge < cost {
		res.Detail = "insufficient charge"
		return res
	}
	actor.Charge -= cost
	st.Counters.ChargeUsed += cost
	res.ChargeSpent = cost

	rng := rngFor(seed, "action", n)

	switch a.Type {
	case ActionMove:
		st.resolveMove(&res, a.Target)
	case ActionScan:
		st.resolveScan(&res)
	case ActionLoot:
		st.resolveLoot(&res, rng)
	case ActionCombat:
		st.resolveCombat(&res, rng, actor, a.Style)
	case ActionStealth:
		st.resolveStealth(&res, rng, actor)
	case ActionHack:
		st.resolveHack(&res, rng, actor)
	case ActionRest:
		st.resolveRest(&res, actor, p)
	default:
		res.Detail = "unknown action"
	}

	st.checkEventTrigger(seed, p, n, &res)
	return res
}

// checkEventTrigger rolls the per-action event chance, plus a forced
// trigger when a move lands on an event node. Skipped once the
// per-mission quota is spent.
func (st *State) checkEventTrigger(seed int64, p ResolveParams, n uint64, res *ActionResult) {
	if p.MaxEvents <= 0 || st.Counters.EventsTriggered >= p.MaxEvents {
		return
	}

	forced := false
	if res.Action == ActionMove && res.Success {
		if node := st.Map.Node(st.CurrentNode); node != nil && node.Type == NodeEvent && !node.Completed {
			node.Completed = true
			forced = true
		}
	}

	if !forced {
		roll := rngFor(seed, "event", n).Intn(100)
		if roll >= p.EventFrequency*10 {
			return
		}
	}

	st.Counters.EventsTriggered++
	id := uint64(SubSeed(seed, "event-id", n))
	if id == 0 {
		id = 1
	}
	st.PendingEventID = id
	res.EventID = id
}

func (st *State) resolveMove(res *ActionResult, target uint8) {
	if !st.Map.Linked(st.CurrentNode, target) {
		res.Detail = "target not adjacent"
		return
	}

	st.CurrentNode = target
	st.discover(target)
	res.Success = true
}

func (st *State) resolveScan(res *ActionResult) {
	for _, id := range st.Map.Neighbors(st.CurrentNode) {
		st.discover(id)
	}
	res.Success = true
}

func (st *State) resolveLoot(res *ActionResult, rng *rand.Rand) {
	node := st.Map.Node(st.CurrentNode)
	if node == nil || !node.HasLoot {
		res.Detail = "nothing to loot"
		return
	}
	node.HasLoot = false

	grant := &LootGrant{}
	units := 1 + rng.Intn(3)
	for i := 0; i < units; i++ {
		if rng.Intn(2) == 0 {
			grant.Salvage++
		} else {
			grant.Crystal++
		}
	}
	if rng.Intn(100) < rareComponentChance {
		grant.Component++
	}

	res.Loot = grant
	res.Success = true
	st.Objectives.Advance(ObjectiveCollect, 1)
}

func (st *State) resolveCombat(res *ActionResult, rng *rand.Rand, actor *Participant, style CombatStyle) {
	node := st.Map.Node(st.CurrentNode)
	if node == nil || !node.HasEnemy {
		res.Detail = "no enemy here"
		return
	}

	roll := rng.Intn(100)
	if CombatVictory(roll, style.AttackerPower(), node.Difficulty) {
		node.HasEnemy = false
		node.Completed = true
		actor.DamageDealt += EffectivePower(node.Difficulty)
		actor.XP += int(node.Difficulty) * 5
		st.Counters.CombatsWon++
		st.Objectives.Advance(ObjectiveDefeat, 1)
		res.Success = true
		return
	}

	damage := EffectivePower(node.Difficulty) / 2
	actor.DamageTaken += damage
	st.Counters.CombatsLost++
	if actor.DamageTaken > actor.InitialCharge/2 {
		actor.Status = ParticipantIncapacitated
	}
	res.Detail = "combat lost"
}

func (st *State) resolveStealth(res *ActionResult, rng *rand.Rand, actor *Participant) {
	node := st.Map.Node(st.CurrentNode)
	if node == nil || !node.HasEnemy {
		res.Detail = "no enemy to evade"
		return
	}

	roll := rng.Intn(100)
	if !StealthSuccess(roll, node.Difficulty) {
		res.Detail = "detected"
		return
	}

	// Bypassed, not defeated: the node does not complete.
	node.HasEnemy = false
	actor.XP += int(node.Difficulty) * 3
	st.Counters.StealthSuccesses++
	st.Objectives.Advance(ObjectiveStealth, 1)
	res.Success = true
}

func (st *State) resolveHack(res *ActionResult, rng *rand.Rand, actor *Participant) {
	node := st.Map.Node(st.CurrentNode)
	if node == nil || node.Type != NodeTerminal {
		res.Detail = "no terminal here"
		return
	}
	if node.Completed {
		res.Detail = "terminal already breached"
		return
	}

	roll := rng.Intn(100)
	if !HackSuccess(roll, node.Difficulty) {
		res.Detail = "intrusion blocked"
		return
	}

	node.Completed = true
	actor.XP += int(node.Difficulty) * 4
	st.Counters.HacksCompleted++
	res.Loot = &LootGrant{Crystal: int(node.Difficulty) * 2}
	st.Objectives.Advance(ObjectiveHack, 1)
	res.Success = true
}

func (st *State) resolveRest(res *ActionResult, actor *Participant, p ResolveParams) {
	if p.MaxRests <= 0 {
		res.Detail = "rest disabled"
		return
	}
	if actor.Rests >= p.MaxRests {
		res.Detail = "rest cap reached"
		return
	}

	missing := actor.InitialCharge - actor.Charge
	if missing <= 0 {
		res.Detail = "charge full"
		return
	}

	restore := p.RestRestore
	if restore <= 0 {
		restore = DefaultRestRestore
	}
	if restore > missing {
		restore = missing
	}

	actor.Charge += restore
	actor.Rests++
	res.Restored = restore
	res.Success = true
}

// discover marks a node seen, feeding discovery objectives and the
// secrets counter.
func (st *State) discover(id uint8) {
	node := st.Map.Node(id)
	if node == nil || node.Discovered {
		return
	}

	node.Discovered = true
	st.Objectives.Advance(ObjectiveDiscover, 1)
	if node.Type == NodeSecret {
		st.Counters.SecretsFound++
	}
}

// ApplyEventOutcome folds a resolved event back into the state and
// clears the pending marker.
func (st *State) ApplyEventOutcome(out EventOutcome) {
	st.PendingEventID = 0

	if out.Success {
		st.Counters.EventsResolved++
		st.Objectives.Advance(ObjectiveSurvive, 1)
		if out.SecretFound {
			st.Counters.SecretsFound++
			st.DiscoveryBonus = true
		}
		return
	}

	st.Counters.EventsFailed++
	st.Counters.SessionDamage += out.Damage
}
