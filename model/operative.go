package model

import "time"

// Operative is a deployable unit owned by a user. Charge regenerates
// lazily: nothing is written until a read or a deployment materializes it.
type Operative struct {
	ID           string  `json:"id" gorm:"primaryKey"`
	OwnerID      string  `json:"owner_id" gorm:"not null;index"`
	CollectionID string  `json:"collection_id" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"not null"`
	Class        string  `json:"class"` // scout, breacher, medic, heavy
	Activated    bool    `json:"activated" gorm:"default:false"`
	MaxCharge    int     `json:"max_charge" gorm:"default:100"`
	Charge       int     `json:"charge" gorm:"default:100"` // as of LastRegenTick
	XP           int     `json:"xp" gorm:"default:0"`
	ColonyID     *string `json:"colony_id"`

	LastRegenTick int64 `json:"last_regen_tick"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveCharge projects regeneration onto the stored charge without
// mutating it. regenPerDay applies once per full elapsed day.
func (o *Operative) EffectiveCharge(nowTick int64, regenPerDay int) int {
	if o.Charge >= o.MaxCharge {
		return o.Charge
	}

	days := (nowTick - o.LastRegenTick) / 86400
	if days <= 0 {
		return o.Charge
	}

	charge := o.Charge + int(days)*regenPerDay
	if charge > o.MaxCharge {
		charge = o.MaxCharge
	}
	return charge
}

// ApplyRegen materializes pending regeneration so later writes start from
// an up-to-date baseline. Only whole consumed days advance LastRegenTick,
// so frequent reads never starve the counter.
func (o *Operative) ApplyRegen(nowTick int64, regenPerDay int) {
	if o.Charge >= o.MaxCharge {
		o.LastRegenTick = nowTick
		return
	}

	days := (nowTick - o.LastRegenTick) / 86400
	if days <= 0 {
		return
	}

	charge := o.Charge + int(days)*regenPerDay
	if charge > o.MaxCharge {
		charge = o.MaxCharge
	}
	o.Charge = charge
	o.LastRegenTick += days * 86400
}
