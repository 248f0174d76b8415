package model

import "time"

// UserProfile aggregates lifetime mission stats and the daily streak.
type UserProfile struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`

	MissionsCompleted int `json:"missions_completed" gorm:"default:0"`
	MissionsFailed    int `json:"missions_failed" gorm:"default:0"`
	MissionsExpired   int `json:"missions_expired" gorm:"default:0"`
	PerfectMissions   int `json:"perfect_missions" gorm:"default:0"`

	CurrentStreak      int   `json:"current_streak" gorm:"default:0"`
	LongestStreak      int   `json:"longest_streak" gorm:"default:0"`
	LastMissionDay     int64 `json:"last_mission_day" gorm:"default:-1"` // unix day index
	LastMissionEndTick int64 `json:"last_mission_end_tick"`              // cooldown anchor

	LifetimeRewards int64 `json:"lifetime_rewards" gorm:"default:0"`
	TotalXPEarned   int   `json:"total_xp_earned" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectedStreak returns the daily streak a completion on day would
// produce. Same-day completions do not stack.
func (p *UserProfile) ProjectedStreak(day int64) int {
	switch p.LastMissionDay {
	case day:
		if p.CurrentStreak < 1 {
			return 1
		}
		return p.CurrentStreak
	case day - 1:
		return p.CurrentStreak + 1
	default:
		return 1
	}
}

// WalletAccount is the in-game currency balance. Escrow holds delegation
// revenue shares until the owner withdraws them.
type WalletAccount struct {
	ID            string `json:"id" gorm:"primaryKey"`
	UserID        string `json:"user_id" gorm:"uniqueIndex;not null"`
	Balance       int64  `json:"balance" gorm:"default:0"`
	EscrowBalance int64  `json:"escrow_balance" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletEntry is one ledger line. Negative amounts are charges.
type WalletEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Memo      string    `json:"memo"`
	SessionID string    `json:"session_id,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResource tracks a stackable mission resource. Decay is applied
// lazily on access, like operative charge regen.
type UserResource struct {
	ID           string `json:"id" gorm:"primaryKey"`
	UserID       string `json:"user_id" gorm:"not null;uniqueIndex:idx_user_resource"`
	ResourceType string `json:"resource_type" gorm:"not null;uniqueIndex:idx_user_resource"`
	Amount       int64  `json:"amount" gorm:"default:0"`

	LastDecayTick int64 `json:"last_decay_tick"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DecayedAmount projects daily decay onto the stored amount without
// mutating it. decayBps applies once per full elapsed day.
func (r *UserResource) DecayedAmount(nowTick int64, decayBps int) int64 {
	if r.Amount <= 0 || decayBps <= 0 {
		return r.Amount
	}

	days := (nowTick - r.LastDecayTick) / 86400
	amount := r.Amount
	for d := int64(0); d < days && amount > 0; d++ {
		amount = amount * int64(10000-decayBps) / 10000
	}
	return amount
}

// ApplyDecay materializes pending decay. Only whole consumed days advance
// LastDecayTick.
func (r *UserResource) ApplyDecay(nowTick int64, decayBps int) {
	days := (nowTick - r.LastDecayTick) / 86400
	if days <= 0 {
		return
	}

	r.Amount = r.DecayedAmount(nowTick, decayBps)
	r.LastDecayTick += days * 86400
}
