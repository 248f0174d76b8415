package dto

// ==================== PROFILE REQUEST DTOs ====================

type SetActivationRequest struct {
	Activated *bool `json:"activated" validate:"required" example:"true"`
}

func (r SetActivationRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== PROFILE RESPONSE DTOs ====================

type ResourceResponse struct {
	Type   string `json:"type" example:"salvage"`
	Amount int64  `json:"amount" example:"42"`
}

type ProfileResponse struct {
	UserID            string             `json:"user_id" example:"usr_123456789"`
	Username          string             `json:"username" example:"drift_ace"`
	MissionsCompleted int                `json:"missions_completed" example:"12"`
	MissionsFailed    int                `json:"missions_failed" example:"2"`
	MissionsExpired   int                `json:"missions_expired" example:"1"`
	PerfectMissions   int                `json:"perfect_missions" example:"4"`
	CurrentStreak     int                `json:"current_streak" example:"3"`
	LongestStreak     int                `json:"longest_streak" example:"7"`
	LifetimeRewards   int64              `json:"lifetime_rewards" example:"18250"`
	TotalXPEarned     int                `json:"total_xp_earned" example:"940"`
	CooldownUntilTick int64              `json:"cooldown_until_tick,omitempty" example:"0"`
	WalletBalance     int64              `json:"wallet_balance" example:"3100"`
	EscrowBalance     int64              `json:"escrow_balance" example:"0"`
	Resources         []ResourceResponse `json:"resources"`
}

type LeaderboardEntryResponse struct {
	Rank            int    `json:"rank" example:"1"`
	UserID          string `json:"user_id" example:"usr_123456789"`
	Username        string `json:"username" example:"drift_ace"`
	LifetimeRewards int64  `json:"lifetime_rewards" example:"18250"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntryResponse `json:"entries"`
	Total   int64                      `json:"total" example:"128"`
}

type WalletEntryResponse struct {
	ID        string `json:"id" example:"wle_0196fa3e"`
	Amount    int64  `json:"amount" example:"-100"`
	Memo      string `json:"memo" example:"mission_entry_fee"`
	SessionID string `json:"session_id,omitempty" example:"msn_0196fa3e"`
	CreatedAt int64  `json:"created_at" example:"1755600000"`
}

type WalletResponse struct {
	Balance       int64                 `json:"balance" example:"3100"`
	EscrowBalance int64                 `json:"escrow_balance" example:"0"`
	Entries       []WalletEntryResponse `json:"entries"`
}

// ==================== OPERATIVE RESPONSE DTOs ====================

type OperativeResponse struct {
	ID           string `json:"id" example:"opr_01"`
	Name         string `json:"name" example:"Vex"`
	Class        string `json:"class" example:"infiltrator"`
	CollectionID string `json:"collection_id" example:"driftgate-operatives"`
	Activated    bool   `json:"activated" example:"true"`
	MaxCharge    int    `json:"max_charge" example:"100"`
	Charge       int    `json:"charge" example:"85"`
	XP           int    `json:"xp" example:"320"`
	ColonyID     string `json:"colony_id,omitempty" example:"col_alpha"`
	Locked       bool   `json:"locked" example:"false"`
}

type RosterResponse struct {
	Operatives []OperativeResponse `json:"operatives"`
}
