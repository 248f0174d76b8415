package dto

import "time"

// ==================== VARIANT ADMIN REQUEST DTOs ====================

type CreateVariantRequest struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=64" example:"breach-run"`
	Name        string `json:"name" validate:"required,max=128" example:"Breach Run"`
	Description string `json:"description,omitempty" example:"A short training corridor."`
	Enabled     *bool  `json:"enabled,omitempty" example:"true"`

	MinSquadSize int `json:"min_squad_size" validate:"omitempty,min=1,max=5" example:"1"`
	MaxSquadSize int `json:"max_squad_size" validate:"omitempty,min=1,max=5" example:"3"`

	MapSize            int `json:"map_size" validate:"required,min=2,max=16" example:"8"`
	MinCombatNodes     int `json:"min_combat_nodes" validate:"omitempty,min=0" example:"1"`
	LootNodeChance     int `json:"loot_node_chance" validate:"omitempty,min=0,max=100" example:"30"`
	TerminalNodeChance int `json:"terminal_node_chance" validate:"omitempty,min=0,max=100" example:"20"`
	SecretNodeChance   int `json:"secret_node_chance" validate:"omitempty,min=0,max=100" example:"10"`
	EventNodeChance    int `json:"event_node_chance" validate:"omitempty,min=0,max=100" example:"15"`

	BaseReward              int64 `json:"base_reward" validate:"required,min=1" example:"500"`
	DifficultyMultiplierBps int   `json:"difficulty_multiplier_bps" validate:"omitempty,min=1" example:"10000"`
	EntryFee                int64 `json:"entry_fee" validate:"omitempty,min=0" example:"50"`

	MaxDurationTicks int64 `json:"max_duration_ticks" validate:"required,min=1" example:"3600"`
	EventFrequency   int   `json:"event_frequency" validate:"omitempty,min=0,max=10" example:"2"`
	MaxEvents        int   `json:"max_events" validate:"omitempty,min=0" example:"3"`
	MaxRests         int   `json:"max_rests" validate:"omitempty,min=0" example:"1"`
	RestRestoreAmt   int   `json:"rest_restore_amt" validate:"omitempty,min=0" example:"20"`
	MinChargePct     int   `json:"min_charge_pct" validate:"omitempty,min=0,max=100" example:"25"`

	ObjectiveMode string `json:"objective_mode,omitempty" validate:"omitempty,oneof=legacy template" example:"legacy"`

	Templates []CreateObjectiveTemplateRequest `json:"templates,omitempty" validate:"omitempty,max=16,dive"`
}

func (c CreateVariantRequest) Validate() error {
	return GetValidator().Struct(c)
}

type UpdateVariantRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=128" example:"Breach Run II"`
	Description *string `json:"description,omitempty" example:"Updated corridor."`
	Enabled     *bool   `json:"enabled,omitempty" example:"false"`

	MinSquadSize *int `json:"min_squad_size,omitempty" validate:"omitempty,min=1,max=5" example:"1"`
	MaxSquadSize *int `json:"max_squad_size,omitempty" validate:"omitempty,min=1,max=5" example:"5"`

	MapSize            *int `json:"map_size,omitempty" validate:"omitempty,min=2,max=16" example:"12"`
	MinCombatNodes     *int `json:"min_combat_nodes,omitempty" validate:"omitempty,min=0" example:"2"`
	LootNodeChance     *int `json:"loot_node_chance,omitempty" validate:"omitempty,min=0,max=100" example:"40"`
	TerminalNodeChance *int `json:"terminal_node_chance,omitempty" validate:"omitempty,min=0,max=100" example:"25"`
	SecretNodeChance   *int `json:"secret_node_chance,omitempty" validate:"omitempty,min=0,max=100" example:"10"`
	EventNodeChance    *int `json:"event_node_chance,omitempty" validate:"omitempty,min=0,max=100" example:"20"`

	BaseReward              *int64 `json:"base_reward,omitempty" validate:"omitempty,min=1" example:"750"`
	DifficultyMultiplierBps *int   `json:"difficulty_multiplier_bps,omitempty" validate:"omitempty,min=1" example:"12500"`
	EntryFee                *int64 `json:"entry_fee,omitempty" validate:"omitempty,min=0" example:"75"`

	MaxDurationTicks *int64 `json:"max_duration_ticks,omitempty" validate:"omitempty,min=1" example:"5400"`
	EventFrequency   *int   `json:"event_frequency,omitempty" validate:"omitempty,min=0,max=10" example:"3"`
	MaxEvents        *int   `json:"max_events,omitempty" validate:"omitempty,min=0" example:"4"`
	MaxRests         *int   `json:"max_rests,omitempty" validate:"omitempty,min=0" example:"2"`
	RestRestoreAmt   *int   `json:"rest_restore_amt,omitempty" validate:"omitempty,min=0" example:"25"`
	MinChargePct     *int   `json:"min_charge_pct,omitempty" validate:"omitempty,min=0,max=100" example:"30"`

	ObjectiveMode *string `json:"objective_mode,omitempty" validate:"omitempty,oneof=legacy template" example:"template"`
}

func (u UpdateVariantRequest) Validate() error {
	return GetValidator().Struct(u)
}

type CreateObjectiveTemplateRequest struct {
	ObjectiveType  uint8 `json:"objective_type" validate:"min=0,max=6" example:"1"`
	Weight         int   `json:"weight" validate:"omitempty,min=1" example:"3"`
	TargetMin      int   `json:"target_min" validate:"omitempty,min=1" example:"1"`
	TargetMax      int   `json:"target_max" validate:"omitempty,min=1" example:"4"`
	Required       bool  `json:"required" example:"false"`
	BonusRewardBps int   `json:"bonus_reward_bps" validate:"omitempty,min=0" example:"500"`
}

func (c CreateObjectiveTemplateRequest) Validate() error {
	return GetValidator().Struct(c)
}

type UpdateGameConfigRequest struct {
	RevealDelayTicks   *int64 `json:"reveal_delay_ticks,omitempty" validate:"omitempty,min=1" example:"3"`
	RevealWindowTicks  *int64 `json:"reveal_window_ticks,omitempty" validate:"omitempty,min=1" example:"256"`
	EventResponseTicks *int64 `json:"event_response_ticks,omitempty" validate:"omitempty,min=1" example:"120"`
	CooldownTicks      *int64 `json:"cooldown_ticks,omitempty" validate:"omitempty,min=0" example:"60"`

	PerExtraParticipantBps *int   `json:"per_extra_participant_bps,omitempty" validate:"omitempty,min=0" example:"500"`
	ColonyBonusBps         *int   `json:"colony_bonus_bps,omitempty" validate:"omitempty,min=0" example:"1000"`
	StreakBonusPerDayBps   *int   `json:"streak_bonus_per_day_bps,omitempty" validate:"omitempty,min=0" example:"100"`
	MaxStreakBonusBps      *int   `json:"max_streak_bonus_bps,omitempty" validate:"omitempty,min=0" example:"1000"`
	WeekendBonus           *int64 `json:"weekend_bonus,omitempty" validate:"omitempty,min=0" example:"50"`
	PerfectCompletionBps   *int   `json:"perfect_completion_bps,omitempty" validate:"omitempty,min=0" example:"2000"`
	DiscoveryBonusBps      *int   `json:"discovery_bonus_bps,omitempty" validate:"omitempty,min=0" example:"250"`

	ChargeRegenPerDay *int `json:"charge_regen_per_day,omitempty" validate:"omitempty,min=0" example:"25"`
	ResourceDecayBps  *int `json:"resource_decay_bps,omitempty" validate:"omitempty,min=0" example:"100"`
}

func (u UpdateGameConfigRequest) Validate() error {
	return GetValidator().Struct(u)
}

// ==================== VARIANT ADMIN RESPONSE DTOs ====================

type AdminVariantResponse struct {
	ID          string `json:"id" example:"breach-run"`
	Name        string `json:"name" example:"Breach Run"`
	Description string `json:"description" example:"A short training corridor."`
	Enabled     bool   `json:"enabled" example:"true"`

	MinSquadSize int `json:"min_squad_size" example:"1"`
	MaxSquadSize int `json:"max_squad_size" example:"3"`

	MapSize            int `json:"map_size" example:"8"`
	MinCombatNodes     int `json:"min_combat_nodes" example:"1"`
	LootNodeChance     int `json:"loot_node_chance" example:"30"`
	TerminalNodeChance int `json:"terminal_node_chance" example:"20"`
	SecretNodeChance   int `json:"secret_node_chance" example:"10"`
	EventNodeChance    int `json:"event_node_chance" example:"15"`

	BaseReward              int64 `json:"base_reward" example:"500"`
	DifficultyMultiplierBps int   `json:"difficulty_multiplier_bps" example:"10000"`
	EntryFee                int64 `json:"entry_fee" example:"50"`

	MaxDurationTicks int64 `json:"max_duration_ticks" example:"3600"`
	EventFrequency   int   `json:"event_frequency" example:"2"`
	MaxEvents        int   `json:"max_events" example:"3"`
	MaxRests         int   `json:"max_rests" example:"1"`
	RestRestoreAmt   int   `json:"rest_restore_amt" example:"20"`
	MinChargePct     int   `json:"min_charge_pct" example:"25"`

	ObjectiveMode string `json:"objective_mode" example:"legacy"`

	Templates []ObjectiveTemplateResponse `json:"templates,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminVariantListResponse struct {
	Variants []AdminVariantResponse `json:"variants"`
	Total    int                    `json:"total" example:"4"`
}

type ObjectiveTemplateResponse struct {
	ID             string `json:"id" example:"tpl_0196fa3e"`
	VariantID      string `json:"variant_id" example:"breach-run"`
	ObjectiveType  uint8  `json:"objective_type" example:"1"`
	TypeName       string `json:"type_name" example:"defeat"`
	Weight         int    `json:"weight" example:"3"`
	TargetMin      int    `json:"target_min" example:"1"`
	TargetMax      int    `json:"target_max" example:"4"`
	Required       bool   `json:"required" example:"false"`
	BonusRewardBps int    `json:"bonus_reward_bps" example:"500"`
}
