package model

import (
	"encoding/json"
	"time"
)

const (
	PassUninitialized uint8 = 0
	PassActive        uint8 = 1
	PassExhausted     uint8 = 2
)

// PassCollection holds the per-collection pass policy: usage allowance,
// recharge pricing and the operative collections its passes admit.
type PassCollection struct {
	ID              string `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"not null"`
	MaxUsesPerToken int    `json:"max_uses_per_token" gorm:"default:3"`

	RechargeEnabled       bool  `json:"recharge_enabled" gorm:"default:false"`
	PricePerUse           int64 `json:"price_per_use" gorm:"default:0"`
	RechargeCooldownTicks int64 `json:"recharge_cooldown_ticks" gorm:"default:0"`
	MaxUsesPerRecharge    int   `json:"max_uses_per_recharge" gorm:"default:0"` // 0 = no cap
	RechargeDiscountBps   int   `json:"recharge_discount_bps" gorm:"default:0"`

	EligibleCollections json.RawMessage `json:"eligible_collections" gorm:"type:text"` // JSON array of operative collection ids
	NotifyURL           string          `json:"notify_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdmitsCollection reports whether operatives from the given collection
// may deploy on this pass. An empty eligibility list admits everyone;
// malformed config admits no one.
func (c *PassCollection) AdmitsCollection(id string) bool {
	if len(c.EligibleCollections) == 0 {
		return true
	}
	var eligible []string
	if err := json.Unmarshal(c.EligibleCollections, &eligible); err != nil {
		return false
	}
	if len(eligible) == 0 {
		return true
	}
	for _, e := range eligible {
		if e == id {
			return true
		}
	}
	return false
}

// Pass is one token within a collection.
type Pass struct {
	ID           string `json:"id" gorm:"primaryKey"`
	CollectionID string `json:"collection_id" gorm:"not null;uniqueIndex:idx_pass_token"`
	TokenID      uint64 `json:"token_id" gorm:"not null;uniqueIndex:idx_pass_token"`
	OwnerID      string `json:"owner_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PassUsage meters a token's remaining uses. No row means the token has
// never been used; the first consumption creates it.
type PassUsage struct {
	ID           string `json:"id" gorm:"primaryKey"`
	CollectionID string `json:"collection_id" gorm:"not null;uniqueIndex:idx_pass_usage_token"`
	TokenID      uint64 `json:"token_id" gorm:"not null;uniqueIndex:idx_pass_usage_token"`

	Status           uint8 `json:"status" gorm:"default:1"`
	RemainingUses    int   `json:"remaining_uses" gorm:"not null"`
	TotalUses        int   `json:"total_uses" gorm:"default:0"`
	TotalRecharges   int   `json:"total_recharges" gorm:"default:0"`
	TotalUsesAdded   int   `json:"total_uses_added" gorm:"default:0"`
	LastRechargeTick int64 `json:"last_recharge_tick"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PassDelegation grants a delegatee mission access on someone else's pass.
// Validity is decided lazily from ExpiryTick and UseCap; expiry never
// mutates the row.
type PassDelegation struct {
	ID           string `json:"id" gorm:"primaryKey"`
	CollectionID string `json:"collection_id" gorm:"not null;index:idx_delegation_token"`
	TokenID      uint64 `json:"token_id" gorm:"not null;index:idx_delegation_token"`
	OwnerID      string `json:"owner_id" gorm:"not null;index"`
	DelegateeID  string `json:"delegatee_id" gorm:"not null;index"`

	ExpiryTick      int64 `json:"expiry_tick" gorm:"not null"`
	UseCap          int   `json:"use_cap" gorm:"default:0"` // 0 = uncapped
	UsesConsumed    int   `json:"uses_consumed" gorm:"default:0"`
	FlatFee         int64 `json:"flat_fee" gorm:"default:0"`
	RevenueShareBps int   `json:"revenue_share_bps" gorm:"default:0"`
	Collateral      int64 `json:"collateral" gorm:"default:0"`
	Revoked         bool  `json:"revoked" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveAt reports whether the delegation still grants access at the
// given tick.
func (d *PassDelegation) ActiveAt(nowTick int64) bool {
	if d.Revoked {
		return false
	}
	if nowTick >= d.ExpiryTick {
		return false
	}
	if d.UseCap > 0 && d.UsesConsumed >= d.UseCap {
		return false
	}
	return true
}
