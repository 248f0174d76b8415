package model

import (
	"encoding/json"
	"time"
)

// MissionSession is the authoritative record of one mission run. Map and
// objective state live in JSON columns; the engine package owns their shape.
type MissionSession struct {
	ID               string `json:"id" gorm:"primaryKey"`
	UserID           string `json:"user_id" gorm:"not null;index"`
	VariantID        string `json:"variant_id" gorm:"not null"`
	PassCollectionID string `json:"pass_collection_id" gorm:"not null"`
	PassTokenID      uint64 `json:"pass_token_id" gorm:"not null"`

	Phase       uint8 `json:"phase" gorm:"not null;index"`
	CurrentNode uint8 `json:"current_node"`

	CommitSeed    int64 `json:"-"`
	RevealEntropy int64 `json:"-"`
	FinalSeed     int64 `json:"-"`

	StartTick           int64 `json:"start_tick"`
	RevealAvailableTick int64 `json:"reveal_available_tick"`
	RevealedTick        int64 `json:"revealed_tick"`
	DeadlineTick        int64 `json:"deadline_tick"`
	LastActionTick      int64 `json:"last_action_tick"`
	EndedTick           int64 `json:"ended_tick"`

	TotalActions     int    `json:"total_actions"`
	CombatsWon       int    `json:"combats_won"`
	CombatsLost      int    `json:"combats_lost"`
	ChargeUsed       int    `json:"charge_used"`
	EventsTriggered  int    `json:"events_triggered"`
	EventsResolved   int    `json:"events_resolved"`
	EventsFailed     int    `json:"events_failed"`
	StealthSuccesses int    `json:"stealth_successes"`
	HacksCompleted   int    `json:"hacks_completed"`
	SecretsFound     int    `json:"secrets_found"`
	SessionDamage    int    `json:"session_damage"`
	FailReason       string `json:"fail_reason,omitempty"`

	PendingEventID    uint64 `json:"pending_event_id"`
	EventDeadlineTick int64  `json:"event_deadline_tick"`
	DiscoveryBonus    bool   `json:"discovery_bonus"`

	RewardPaid int64 `json:"reward_paid"`

	MapNodes   json.RawMessage `json:"map_nodes" gorm:"type:text"`   // JSON array of engine map nodes
	Objectives json.RawMessage `json:"objectives" gorm:"type:text"` // JSON array of engine objectives

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MissionParticipant is one operative's slice of a session.
type MissionParticipant struct {
	ID          string `json:"id" gorm:"primaryKey"`
	SessionID   string `json:"session_id" gorm:"not null;index"`
	OperativeID string `json:"operative_id" gorm:"not null;index"`

	InitialCharge    int   `json:"initial_charge" gorm:"not null"`
	CurrentCharge    int   `json:"current_charge" gorm:"not null"`
	DamageDealt      int   `json:"damage_dealt" gorm:"default:0"`
	DamageTaken      int   `json:"damage_taken" gorm:"default:0"`
	XPEarned         int   `json:"xp_earned" gorm:"default:0"`
	ActionsPerformed int   `json:"actions_performed" gorm:"default:0"`
	RestsUsed        int   `json:"rests_used" gorm:"default:0"`
	Status           uint8 `json:"status" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveMission indexes the single non-terminal session per user. The
// primary key on UserID is what enforces one-at-a-time.
type ActiveMission struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// OperativeLock marks an operative as deployed. Rows exist only while the
// owning session is live.
type OperativeLock struct {
	OperativeID string    `json:"operative_id" gorm:"primaryKey"`
	SessionID   string    `json:"session_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}
