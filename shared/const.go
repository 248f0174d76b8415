package shared

const (
	UserID    = "user_id"
	AuthToken = "auth_token"

	ResourceSalvage   = "salvage"
	ResourceCrystal   = "crystal"
	ResourceComponent = "rare_component"

	ObjectiveModeLegacy   = "legacy"
	ObjectiveModeTemplate = "template"

	MemoEntryFee       = "mission_entry_fee"
	MemoPassRecharge   = "pass_recharge"
	MemoDelegationFee  = "delegation_fee"
	MemoCollateral     = "delegation_collateral"
	MemoMissionReward  = "mission_reward"
	MemoDelegatedShare = "delegated_mission_share"
	MemoEscrowWithdraw = "escrow_withdrawal"

	FailReasonAbandoned = "abandoned"
	FailReasonExpired   = "expired"
)
