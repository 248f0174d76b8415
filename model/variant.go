package model

import "time"

// MissionVariant is an admin-authored mission recipe: map shape, economy
// and pacing for one difficulty tier.
type MissionVariant struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Enabled     bool   `json:"enabled" gorm:"default:true"`

	MinSquadSize int `json:"min_squad_size" gorm:"default:1"`
	MaxSquadSize int `json:"max_squad_size" gorm:"default:5"`

	MapSize            int `json:"map_size" gorm:"not null"`
	MinCombatNodes     int `json:"min_combat_nodes" gorm:"default:0"`
	LootNodeChance     int `json:"loot_node_chance" gorm:"default:0"`     // percent
	TerminalNodeChance int `json:"terminal_node_chance" gorm:"default:0"` // percent
	SecretNodeChance   int `json:"secret_node_chance" gorm:"default:0"`   // percent
	EventNodeChance    int `json:"event_node_chance" gorm:"default:0"`    // percent

	BaseReward              int64 `json:"base_reward" gorm:"not null"`
	DifficultyMultiplierBps int   `json:"difficulty_multiplier_bps" gorm:"default:10000"`
	EntryFee                int64 `json:"entry_fee" gorm:"default:0"`

	MaxDurationTicks int64 `json:"max_duration_ticks" gorm:"not null"`
	EventFrequency   int   `json:"event_frequency" gorm:"default:0"` // 0-10
	MaxEvents        int   `json:"max_events" gorm:"default:0"`
	MaxRests         int   `json:"max_rests" gorm:"default:0"`
	RestRestoreAmt   int   `json:"rest_restore_amt" gorm:"default:0"`
	MinChargePct     int   `json:"min_charge_pct" gorm:"default:0"` // required charge as % of max

	ObjectiveMode string `json:"objective_mode" gorm:"default:legacy"` // legacy, template

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ObjectiveTemplate is one weighted objective recipe for template-mode
// variants.
type ObjectiveTemplate struct {
	ID        string `json:"id" gorm:"primaryKey"`
	VariantID string `json:"variant_id" gorm:"not null;index"`

	ObjectiveType  uint8 `json:"objective_type" gorm:"not null"`
	Weight         int   `json:"weight" gorm:"default:1"`
	TargetMin      int   `json:"target_min" gorm:"default:1"`
	TargetMax      int   `json:"target_max" gorm:"default:1"`
	Required       bool  `json:"required" gorm:"default:false"`
	BonusRewardBps int   `json:"bonus_reward_bps" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameConfig is the singleton tunables row. ID is always "default".
type GameConfig struct {
	ID string `json:"id" gorm:"primaryKey"`

	RevealDelayTicks   int64 `json:"reveal_delay_ticks" gorm:"default:3"`
	RevealWindowTicks  int64 `json:"reveal_window_ticks" gorm:"default:256"`
	EventResponseTicks int64 `json:"event_response_ticks" gorm:"default:120"`
	CooldownTicks      int64 `json:"cooldown_ticks" gorm:"default:60"`

	PerExtraParticipantBps int   `json:"per_extra_participant_bps" gorm:"default:500"`
	ColonyBonusBps         int   `json:"colony_bonus_bps" gorm:"default:1000"`
	StreakBonusPerDayBps   int   `json:"streak_bonus_per_day_bps" gorm:"default:100"`
	MaxStreakBonusBps      int   `json:"max_streak_bonus_bps" gorm:"default:1000"`
	WeekendBonus           int64 `json:"weekend_bonus" gorm:"default:50"`
	PerfectCompletionBps   int   `json:"perfect_completion_bps" gorm:"default:2000"`
	DiscoveryBonusBps      int   `json:"discovery_bonus_bps" gorm:"default:250"`

	ChargeRegenPerDay int `json:"charge_regen_per_day" gorm:"default:25"`
	ResourceDecayBps  int `json:"resource_decay_bps" gorm:"default:100"` // per day

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const GameConfigID = "default"
