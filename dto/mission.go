package dto

// ==================== MISSION REQUEST DTOs ====================

type StartMissionRequest struct {
	VariantID        string   `json:"variant_id" validate:"required" example:"breach-run"`
	PassCollectionID string   `json:"pass_collection_id" validate:"required" example:"driftgate-pass"`
	PassTokenID      uint64   `json:"pass_token_id" validate:"required" example:"17"`
	OperativeIDs     []string `json:"operative_ids" validate:"required,min=1,max=5,dive,required"`
}

func (r StartMissionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type MissionActionRequest struct {
	Type        string `json:"type" validate:"required,oneof=move scan loot combat stealth hack rest" example:"move"`
	OperativeID string `json:"operative_id" validate:"required" example:"opr_01"`
	Target      uint8  `json:"target" example:"2"`
	Style       string `json:"style" validate:"omitempty,oneof=balanced aggressive defensive" example:"balanced"`
}

type PerformActionsRequest struct {
	Actions []MissionActionRequest `json:"actions" validate:"required,min=1,max=5,dive"`
}

func (r PerformActionsRequest) Validate() error {
	return GetValidator().Struct(r)
}

type EventResponseRequest struct {
	Response string `json:"response" validate:"required,oneof=fight hide flee accept decline" example:"hide"`
}

func (r EventResponseRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== MISSION RESPONSE DTOs ====================

type StartMissionResponse struct {
	SessionID           string `json:"session_id" example:"msn_0196fa3e"`
	Phase               string `json:"phase" example:"committed"`
	StartTick           int64  `json:"start_tick" example:"1755600000"`
	RevealAvailableTick int64  `json:"reveal_available_tick" example:"1755600003"`
	RevealDeadlineTick  int64  `json:"reveal_deadline_tick" example:"1755600259"`
	DeadlineTick        int64  `json:"deadline_tick" example:"1755603600"`
	EntryFeePaid        int64  `json:"entry_fee_paid" example:"100"`
	PassUsesRemaining   int    `json:"pass_uses_remaining" example:"2"`
}

type MapNodeResponse struct {
	ID         uint8  `json:"id" example:"1"`
	Type       string `json:"type" example:"combat"`
	Difficulty uint8  `json:"difficulty" example:"4"`
	Discovered bool   `json:"discovered" example:"true"`
	Completed  bool   `json:"completed" example:"false"`
	HasLoot    bool   `json:"has_loot" example:"false"`
	HasEnemy   bool   `json:"has_enemy" example:"true"`
	Links      uint8  `json:"links" example:"3"`
}

type MissionMapResponse struct {
	SessionID   string            `json:"session_id" example:"msn_0196fa3e"`
	CurrentNode uint8             `json:"current_node" example:"0"`
	Nodes       []MapNodeResponse `json:"nodes"`
}

type ObjectiveResponse struct {
	ID        uint8  `json:"id" example:"0"`
	Type      string `json:"type" example:"collect"`
	Target    int    `json:"target" example:"2"`
	Progress  int    `json:"progress" example:"1"`
	Required  bool   `json:"required" example:"true"`
	Completed bool   `json:"completed" example:"false"`
	BonusBps  int    `json:"bonus_bps" example:"0"`
}

type MissionObjectivesResponse struct {
	SessionID        string              `json:"session_id" example:"msn_0196fa3e"`
	Objectives       []ObjectiveResponse `json:"objectives"`
	RequiredComplete bool                `json:"required_complete" example:"false"`
}

type RevealMissionResponse struct {
	SessionID    string              `json:"session_id" example:"msn_0196fa3e"`
	Phase        string              `json:"phase" example:"active"`
	DeadlineTick int64               `json:"deadline_tick" example:"1755603600"`
	Map          MissionMapResponse  `json:"map"`
	Objectives   []ObjectiveResponse `json:"objectives"`
}

type ParticipantResponse struct {
	OperativeID      string `json:"operative_id" example:"opr_01"`
	Name             string `json:"name" example:"Vex"`
	InitialCharge    int    `json:"initial_charge" example:"100"`
	CurrentCharge    int    `json:"current_charge" example:"73"`
	DamageDealt      int    `json:"damage_dealt" example:"45"`
	DamageTaken      int    `json:"damage_taken" example:"12"`
	XPEarned         int    `json:"xp_earned" example:"25"`
	ActionsPerformed int    `json:"actions_performed" example:"9"`
	RestsUsed        int    `json:"rests_used" example:"0"`
	Status           string `json:"status" example:"active"`
}

type MissionCountersResponse struct {
	TotalActions     int `json:"total_actions" example:"9"`
	CombatsWon       int `json:"combats_won" example:"2"`
	CombatsLost      int `json:"combats_lost" example:"0"`
	ChargeUsed       int `json:"charge_used" example:"27"`
	EventsTriggered  int `json:"events_triggered" example:"1"`
	EventsResolved   int `json:"events_resolved" example:"1"`
	EventsFailed     int `json:"events_failed" example:"0"`
	StealthSuccesses int `json:"stealth_successes" example:"1"`
	HacksCompleted   int `json:"hacks_completed" example:"0"`
	SecretsFound     int `json:"secrets_found" example:"1"`
	SessionDamage    int `json:"session_damage" example:"0"`
}

type PendingEventResponse struct {
	EventID      uint64   `json:"event_id" example:"83921"`
	Type         string   `json:"type" example:"patrol"`
	DeadlineTick int64    `json:"deadline_tick" example:"1755600420"`
	Responses    []string `json:"responses" example:"fight,hide,flee,accept,decline"`
}

type MissionSessionResponse struct {
	SessionID           string                  `json:"session_id" example:"msn_0196fa3e"`
	UserID              string                  `json:"user_id" example:"usr_123456789"`
	VariantID           string                  `json:"variant_id" example:"breach-run"`
	PassCollectionID    string                  `json:"pass_collection_id" example:"driftgate-pass"`
	PassTokenID         uint64                  `json:"pass_token_id" example:"17"`
	Phase               string                  `json:"phase" example:"active"`
	CurrentNode         uint8                   `json:"current_node" example:"3"`
	StartTick           int64                   `json:"start_tick" example:"1755600000"`
	RevealAvailableTick int64                   `json:"reveal_available_tick" example:"1755600003"`
	RevealedTick        int64                   `json:"revealed_tick" example:"1755600010"`
	DeadlineTick        int64                   `json:"deadline_tick" example:"1755603600"`
	LastActionTick      int64                   `json:"last_action_tick" example:"1755601200"`
	EndedTick           int64                   `json:"ended_tick" example:"0"`
	Counters            MissionCountersResponse `json:"counters"`
	DiscoveryBonus      bool                    `json:"discovery_bonus" example:"false"`
	RewardPaid          int64                   `json:"reward_paid" example:"0"`
	FailReason          string                  `json:"fail_reason,omitempty"`
	PendingEvent        *PendingEventResponse   `json:"pending_event,omitempty"`
	Participants        []ParticipantResponse   `json:"participants"`
}

type LootResponse struct {
	Salvage   int `json:"salvage" example:"2"`
	Crystal   int `json:"crystal" example:"1"`
	Component int `json:"component" example:"0"`
}

type ActionResultResponse struct {
	Action         string        `json:"action" example:"combat"`
	OperativeID    string        `json:"operative_id" example:"opr_01"`
	Success        bool          `json:"success" example:"true"`
	ChargeSpent    int           `json:"charge_spent" example:"10"`
	Restored       int           `json:"restored,omitempty" example:"0"`
	Detail         string        `json:"detail,omitempty" example:""`
	Loot           *LootResponse `json:"loot,omitempty"`
	EventTriggered bool          `json:"event_triggered" example:"false"`
}

type PerformActionsResponse struct {
	SessionID       string                 `json:"session_id" example:"msn_0196fa3e"`
	Phase           string                 `json:"phase" example:"active"`
	Results         []ActionResultResponse `json:"results"`
	PendingEvent    *PendingEventResponse  `json:"pending_event,omitempty"`
	ReadyToComplete bool                   `json:"ready_to_complete" example:"false"`
}

type EventOutcomeResponse struct {
	SessionID       string `json:"session_id" example:"msn_0196fa3e"`
	EventType       string `json:"event_type" example:"patrol"`
	Response        string `json:"response" example:"hide"`
	Success         bool   `json:"success" example:"true"`
	Damage          int    `json:"damage,omitempty" example:"0"`
	SecretFound     bool   `json:"secret_found,omitempty" example:"false"`
	Phase           string `json:"phase" example:"active"`
	ReadyToComplete bool   `json:"ready_to_complete" example:"false"`
}

type RewardBreakdownResponse struct {
	Base             int64 `json:"base" example:"1000"`
	ObjectiveBonus   int64 `json:"objective_bonus" example:"60"`
	ParticipantBonus int64 `json:"participant_bonus" example:"100"`
	ColonyBonus      int64 `json:"colony_bonus" example:"0"`
	StreakBonus      int64 `json:"streak_bonus" example:"40"`
	WeekendBonus     int64 `json:"weekend_bonus" example:"0"`
	DiscoveryBonus   int64 `json:"discovery_bonus" example:"25"`
	Rating           int   `json:"rating" example:"100"`
	Perfect          bool  `json:"perfect" example:"true"`
	PerfectBonus     int64 `json:"perfect_bonus" example:"200"`
	Total            int64 `json:"total" example:"1425"`
}

type RewardEstimateResponse struct {
	SessionID string                  `json:"session_id" example:"msn_0196fa3e"`
	Eligible  bool                    `json:"eligible" example:"false"`
	Breakdown RewardBreakdownResponse `json:"breakdown"`
}

type ExtractEligibilityResponse struct {
	SessionID string `json:"session_id" example:"msn_0196fa3e"`
	Eligible  bool   `json:"eligible" example:"false"`
	Phase     string `json:"phase" example:"active"`
	Reason    string `json:"reason,omitempty" example:"Required objectives are not complete"`
}

type ExtractMissionResponse struct {
	SessionID     string                  `json:"session_id" example:"msn_0196fa3e"`
	Phase         string                  `json:"phase" example:"completed"`
	Reward        RewardBreakdownResponse `json:"reward"`
	PaidToCaller  int64                   `json:"paid_to_caller" example:"800"`
	LenderShare   int64                   `json:"lender_share,omitempty" example:"200"`
	CurrentStreak int                     `json:"current_streak" example:"3"`
}

type AbandonMissionResponse struct {
	SessionID string `json:"session_id" example:"msn_0196fa3e"`
	Phase     string `json:"phase" example:"failed"`
}

type MissionHistoryResponse struct {
	Sessions []MissionSessionResponse `json:"sessions"`
}

type VariantResponse struct {
	ID               string `json:"id" example:"breach-run"`
	Name             string `json:"name" example:"Breach Run"`
	Description      string `json:"description" example:"A short training corridor."`
	MinSquadSize     int    `json:"min_squad_size" example:"1"`
	MaxSquadSize     int    `json:"max_squad_size" example:"3"`
	MapSize          int    `json:"map_size" example:"4"`
	BaseReward       int64  `json:"base_reward" example:"500"`
	EntryFee         int64  `json:"entry_fee" example:"50"`
	MaxDurationTicks int64  `json:"max_duration_ticks" example:"3600"`
	EventFrequency   int    `json:"event_frequency" example:"2"`
	MaxEvents        int    `json:"max_events" example:"3"`
	MaxRests         int    `json:"max_rests" example:"1"`
	ObjectiveMode    string `json:"objective_mode" example:"legacy"`
}

type VariantListResponse struct {
	Variants []VariantResponse `json:"variants"`
}
