package dto

// ==================== PASS REQUEST DTOs ====================

type RechargePassRequest struct {
	CollectionID string `json:"collection_id" validate:"required" example:"driftgate-pass"`
	TokenID      uint64 `json:"token_id" validate:"required" example:"17"`
	Uses         int    `json:"uses" validate:"required,min=1" example:"3"`
}

func (r RechargePassRequest) Validate() error {
	return GetValidator().Struct(r)
}

type DelegatePassRequest struct {
	CollectionID    string `json:"collection_id" validate:"required" example:"driftgate-pass"`
	TokenID         uint64 `json:"token_id" validate:"required" example:"17"`
	DelegateeID     string `json:"delegatee_id" validate:"required" example:"usr_987654321"`
	DurationTicks   int64  `json:"duration_ticks" validate:"required,min=1" example:"86400"`
	UseCap          int    `json:"use_cap" validate:"omitempty,min=1" example:"2"`
	FlatFee         int64  `json:"flat_fee" validate:"omitempty,min=0" example:"100"`
	RevenueShareBps int    `json:"revenue_share_bps" validate:"omitempty,min=0,max=10000" example:"2000"`
	Collateral      int64  `json:"collateral" validate:"omitempty,min=0" example:"0"`
}

func (r DelegatePassRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== PASS RESPONSE DTOs ====================

type DelegationResponse struct {
	ID              string `json:"id" example:"dlg_0196fa3e"`
	OwnerID         string `json:"owner_id" example:"usr_123456789"`
	DelegateeID     string `json:"delegatee_id" example:"usr_987654321"`
	ExpiryTick      int64  `json:"expiry_tick" example:"1755686400"`
	UseCap          int    `json:"use_cap" example:"2"`
	UsesConsumed    int    `json:"uses_consumed" example:"1"`
	FlatFee         int64  `json:"flat_fee" example:"100"`
	RevenueShareBps int    `json:"revenue_share_bps" example:"2000"`
	Collateral      int64  `json:"collateral" example:"0"`
	Active          bool   `json:"active" example:"true"`
}

type PassStatusResponse struct {
	CollectionID     string              `json:"collection_id" example:"driftgate-pass"`
	TokenID          uint64              `json:"token_id" example:"17"`
	OwnerID          string              `json:"owner_id" example:"usr_123456789"`
	Status           string              `json:"status" example:"active"`
	RemainingUses    int                 `json:"remaining_uses" example:"2"`
	MaxUses          int                 `json:"max_uses" example:"3"`
	TotalUses        int                 `json:"total_uses" example:"1"`
	TotalRecharges   int                 `json:"total_recharges" example:"0"`
	TotalUsesAdded   int                 `json:"total_uses_added" example:"0"`
	LastRechargeTick int64               `json:"last_recharge_tick" example:"0"`
	Delegation       *DelegationResponse `json:"delegation,omitempty"`
}

type PassListResponse struct {
	Owned    []PassStatusResponse `json:"owned"`
	Borrowed []PassStatusResponse `json:"borrowed"`
}

type RechargeInfoResponse struct {
	CollectionID       string `json:"collection_id" example:"driftgate-pass"`
	TokenID            uint64 `json:"token_id" example:"17"`
	RechargeEnabled    bool   `json:"recharge_enabled" example:"true"`
	PricePerUse        int64  `json:"price_per_use" example:"50"`
	DiscountBps        int    `json:"discount_bps" example:"0"`
	MaxUsesPerRecharge int    `json:"max_uses_per_recharge" example:"3"`
	CooldownTicks      int64  `json:"cooldown_ticks" example:"0"`
	CooldownRemaining  int64  `json:"cooldown_remaining" example:"0"`
	CostPerUse         int64  `json:"cost_per_use" example:"50"`
}

type RechargeResultResponse struct {
	CollectionID   string `json:"collection_id" example:"driftgate-pass"`
	TokenID        uint64 `json:"token_id" example:"17"`
	UsesAdded      int    `json:"uses_added" example:"3"`
	RemainingUses  int    `json:"remaining_uses" example:"3"`
	Cost           int64  `json:"cost" example:"150"`
	TotalRecharges int    `json:"total_recharges" example:"1"`
}

type DelegateResultResponse struct {
	DelegationID string `json:"delegation_id" example:"dlg_0196fa3e"`
	ExpiryTick   int64  `json:"expiry_tick" example:"1755686400"`
	FlatFeePaid  int64  `json:"flat_fee_paid" example:"100"`
}

type RevokeDelegationResponse struct {
	DelegationID string `json:"delegation_id" example:"dlg_0196fa3e"`
	Revoked      bool   `json:"revoked" example:"true"`
}
