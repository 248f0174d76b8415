package services

import (
	"errors"
	"fmt"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// PassService owns the pass lifecycle gating mission entry: the tri-state
// usage meter, paid recharges and time-boxed delegation. MissionService
// never touches pass rows directly; it resolves a grant through Authorize
// and spends it with ConsumeUseTx inside its own transaction.
type PassService struct {
	appContext.DefaultService

	sqlSvc        *PostgresService
	walletSvc     *WalletService
	notifierSvc   *NotifierService
	monitoringSvc *MonitoringService
}

const PASS_SVC = "pass_svc"

func (svc PassService) Id() string {
	return PASS_SVC
}

func (svc *PassService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.walletSvc = ctx.Service(WALLET_SVC).(*WalletService)
	svc.notifierSvc = ctx.Service(NOTIFIER_SVC).(*NotifierService)
	svc.monitoringSvc = ctx.Service(MONITORING_SVC).(*MonitoringService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *PassService) Start() error {
	return nil
}

// ==================== AUTHORIZATION ====================

// PassGrant is a resolved right to consume one pass use. Whether the
// consumer is the owner or a delegatee is already decided here, so
// ConsumeUseTx only has to spend it.
type PassGrant struct {
	Collection *model.PassCollection
	Pass       *model.Pass
	Delegation *model.PassDelegation // nil when the owner plays on their own pass
}

func (g *PassGrant) Delegated() bool {
	return g.Delegation != nil
}

// Authorize decides whether userID may consume the pass at nowTick. The
// owner is locked out while a delegation is live; the delegatee is let in
// only while it is.
func (svc *PassService) Authorize(userID, collectionID string, tokenID uint64, nowTick int64) (*PassGrant, error) {
	collection, err := svc.sqlSvc.Passes().GetCollection(collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Pass collection not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass collection")
	}

	pass, err := svc.sqlSvc.Passes().GetPass(collectionID, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Pass not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass")
	}

	delegation, err := svc.liveDelegation(collectionID, tokenID, nowTick)
	if err != nil {
		return nil, err
	}

	if delegation != nil {
		if delegation.DelegateeID == userID {
			return &PassGrant{Collection: collection, Pass: pass, Delegation: delegation}, nil
		}
		if pass.OwnerID == userID {
			return nil, shared.NewForbiddenError(
				fmt.Errorf("delegation %s live until tick %d", delegation.ID, delegation.ExpiryTick),
				"Pass is currently delegated")
		}
		return nil, shared.NewForbiddenError(fmt.Errorf("user %s holds no rights on pass", userID), "You do not have access to this pass")
	}

	if pass.OwnerID != userID {
		return nil, shared.NewForbiddenError(fmt.Errorf("user %s holds no rights on pass", userID), "You do not have access to this pass")
	}

	return &PassGrant{Collection: collection, Pass: pass}, nil
}

// liveDelegation returns the delegation currently granting access, or nil.
// Expired and spent delegations read as absent.
func (svc *PassService) liveDelegation(collectionID string, tokenID uint64, nowTick int64) (*model.PassDelegation, error) {
	delegation, err := svc.sqlSvc.Passes().GetLatestDelegation(collectionID, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass delegation")
	}
	if !delegation.ActiveAt(nowTick) {
		return nil, nil
	}
	return delegation, nil
}

// ==================== USE CONSUMPTION ====================

// ConsumeUseTx spends one use inside the caller's transaction. The first
// consumption materializes the usage row with the full allotment minus
// the use being spent; remaining 0 flips the meter to exhausted.
func (svc *PassService) ConsumeUseTx(r *Repos, grant *PassGrant) error {
	usage, err := r.Passes.GetUsage(grant.Pass.CollectionID, grant.Pass.TokenID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if grant.Collection.MaxUsesPerToken < 1 {
			return shared.NewForbiddenError(
				fmt.Errorf("collection %s allots %d uses", grant.Collection.ID, grant.Collection.MaxUsesPerToken),
				"Pass has no remaining uses")
		}

		usage = &model.PassUsage{
			CollectionID:  grant.Pass.CollectionID,
			TokenID:       grant.Pass.TokenID,
			Status:        model.PassActive,
			RemainingUses: grant.Collection.MaxUsesPerToken - 1,
			TotalUses:     1,
		}
		if usage.RemainingUses == 0 {
			usage.Status = model.PassExhausted
		}
		if _, err := r.Passes.CreateUsage(usage); err != nil {
			return err
		}
	} else {
		if usage.Status == model.PassExhausted || usage.RemainingUses < 1 {
			return shared.NewForbiddenError(
				fmt.Errorf("token %d of %s exhausted", grant.Pass.TokenID, grant.Pass.CollectionID),
				"Pass has no remaining uses")
		}

		usage.RemainingUses--
		usage.TotalUses++
		if usage.RemainingUses == 0 {
			usage.Status = model.PassExhausted
		}
		if err := r.Passes.UpdateUsage(usage); err != nil {
			return err
		}
	}

	if grant.Delegation != nil {
		grant.Delegation.UsesConsumed++
		if err := r.Passes.UpdateDelegation(grant.Delegation); err != nil {
			return err
		}
	}

	return nil
}

// ==================== RECHARGE ====================

// RechargeCost applies the collection discount in basis points.
func RechargeCost(collection *model.PassCollection, uses int) int64 {
	return collection.PricePerUse * int64(uses) * int64(10000-collection.RechargeDiscountBps) / 10000
}

// Recharge adds paid uses to a token's meter. Owner only; a never-used
// token has nothing to recharge yet.
func (svc *PassService) Recharge(userID string, req *dto.RechargePassRequest, nowTick int64) (*dto.RechargeResultResponse, error) {
	var result *dto.RechargeResultResponse
	var notifyURL string
	var cost int64

	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		collection, err := r.Passes.GetCollection(req.CollectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Pass collection not found")
			}
			return err
		}

		pass, err := r.Passes.GetPass(req.CollectionID, req.TokenID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Pass not found")
			}
			return err
		}

		if pass.OwnerID != userID {
			return shared.NewForbiddenError(
				fmt.Errorf("user %s does not own token %d of %s", userID, req.TokenID, req.CollectionID),
				"Only the pass owner can recharge")
		}
		if !collection.RechargeEnabled {
			return shared.NewBadRequestError(
				fmt.Errorf("collection %s has recharging disabled", collection.ID),
				"Recharging is disabled for this collection")
		}

		usage, err := r.Passes.GetUsage(req.CollectionID, req.TokenID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewBadRequestError(err, "Pass has never been used, nothing to recharge")
			}
			return err
		}

		if collection.MaxUsesPerRecharge > 0 && req.Uses > collection.MaxUsesPerRecharge {
			return shared.NewBadRequestError(
				fmt.Errorf("%d uses over per-transaction cap %d", req.Uses, collection.MaxUsesPerRecharge),
				"Recharge amount exceeds the per-transaction cap")
		}

		if collection.RechargeCooldownTicks > 0 && usage.LastRechargeTick > 0 {
			readyTick := usage.LastRechargeTick + collection.RechargeCooldownTicks
			if nowTick < readyTick {
				return shared.NewConflictError(fmt.Errorf("ready at tick %d", readyTick), "Recharge is on cooldown")
			}
		}

		cost = RechargeCost(collection, req.Uses)
		if err := svc.walletSvc.ChargeTx(r, userID, cost, shared.MemoPassRecharge, ""); err != nil {
			return err
		}

		usage.RemainingUses += req.Uses
		usage.Status = model.PassActive
		usage.TotalRecharges++
		usage.TotalUsesAdded += req.Uses
		usage.LastRechargeTick = nowTick
		if err := r.Passes.UpdateUsage(usage); err != nil {
			return err
		}

		notifyURL = collection.NotifyURL
		result = &dto.RechargeResultResponse{
			CollectionID:   req.CollectionID,
			TokenID:        req.TokenID,
			UsesAdded:      req.Uses,
			RemainingUses:  usage.RemainingUses,
			Cost:           cost,
			TotalRecharges: usage.TotalRecharges,
		}
		return nil
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to recharge pass")
	}

	log.WithField("user_id", userID).
		WithField("collection_id", req.CollectionID).
		WithField("token_id", req.TokenID).
		WithField("uses", req.Uses).
		WithField("cost", cost).
		Info("Pass recharged")

	svc.monitoringSvc.RecordPassRecharge()
	svc.notifierSvc.Notify(notifyURL, &WebhookEvent{
		Event:        EventPassRecharged,
		UserID:       userID,
		CollectionID: req.CollectionID,
		TokenID:      req.TokenID,
		Amount:       cost,
		Tick:         nowTick,
	})

	return result, nil
}

// RechargeInfo previews recharge pricing and the token's cooldown state.
func (svc *PassService) RechargeInfo(collectionID string, tokenID uint64, nowTick int64) (*dto.RechargeInfoResponse, error) {
	collection, err := svc.sqlSvc.Passes().GetCollection(collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Pass collection not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass collection")
	}

	resp := &dto.RechargeInfoResponse{
		CollectionID:       collectionID,
		TokenID:            tokenID,
		RechargeEnabled:    collection.RechargeEnabled,
		PricePerUse:        collection.PricePerUse,
		DiscountBps:        collection.RechargeDiscountBps,
		MaxUsesPerRecharge: collection.MaxUsesPerRecharge,
		CooldownTicks:      collection.RechargeCooldownTicks,
		CostPerUse:         RechargeCost(collection, 1),
	}

	usage, err := svc.sqlSvc.Passes().GetUsage(collectionID, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass usage")
	}

	if collection.RechargeCooldownTicks > 0 && usage.LastRechargeTick > 0 {
		if remaining := usage.LastRechargeTick + collection.RechargeCooldownTicks - nowTick; remaining > 0 {
			resp.CooldownRemaining = remaining
		}
	}

	return resp, nil
}

// ==================== DELEGATION ====================

// Delegate lends the pass to another user until nowTick+DurationTicks.
// The flat fee moves delegatee to owner immediately; collateral is parked
// in the delegatee's escrow so the posting shows up in the ledger.
func (svc *PassService) Delegate(ownerID string, req *dto.DelegatePassRequest, nowTick int64) (*dto.DelegateResultResponse, error) {
	if req.DelegateeID == ownerID {
		return nil, shared.NewBadRequestError(fmt.Errorf("owner and delegatee are both %s", ownerID), "Cannot delegate a pass to yourself")
	}

	var result *dto.DelegateResultResponse
	var notifyURL string

	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		collection, err := r.Passes.GetCollection(req.CollectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Pass collection not found")
			}
			return err
		}

		pass, err := r.Passes.GetPass(req.CollectionID, req.TokenID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Pass not found")
			}
			return err
		}

		if pass.OwnerID != ownerID {
			return shared.NewForbiddenError(
				fmt.Errorf("user %s does not own token %d of %s", ownerID, req.TokenID, req.CollectionID),
				"Only the pass owner can delegate")
		}

		if _, err := r.Users.GetUser(req.DelegateeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Delegatee not found")
			}
			return err
		}

		existing, err := r.Passes.GetLatestDelegation(req.CollectionID, req.TokenID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && existing.ActiveAt(nowTick) {
			return shared.NewConflictError(
				fmt.Errorf("delegation %s live until tick %d", existing.ID, existing.ExpiryTick),
				"Pass already has a live delegation")
		}

		if req.FlatFee > 0 {
			if err := svc.walletSvc.ChargeTx(r, req.DelegateeID, req.FlatFee, shared.MemoDelegationFee, ""); err != nil {
				return err
			}
			if err := svc.walletSvc.CreditTx(r, ownerID, req.FlatFee, shared.MemoDelegationFee, ""); err != nil {
				return err
			}
		}
		if req.Collateral > 0 {
			if err := svc.walletSvc.ChargeTx(r, req.DelegateeID, req.Collateral, shared.MemoCollateral, ""); err != nil {
				return err
			}
			if err := svc.walletSvc.CreditEscrowTx(r, req.DelegateeID, req.Collateral, shared.MemoCollateral, ""); err != nil {
				return err
			}
		}

		delegation, err := r.Passes.CreateDelegation(&model.PassDelegation{
			CollectionID:    req.CollectionID,
			TokenID:         req.TokenID,
			OwnerID:         ownerID,
			DelegateeID:     req.DelegateeID,
			ExpiryTick:      nowTick + req.DurationTicks,
			UseCap:          req.UseCap,
			FlatFee:         req.FlatFee,
			RevenueShareBps: req.RevenueShareBps,
			Collateral:      req.Collateral,
		})
		if err != nil {
			return err
		}

		notifyURL = collection.NotifyURL
		result = &dto.DelegateResultResponse{
			DelegationID: delegation.ID,
			ExpiryTick:   delegation.ExpiryTick,
			FlatFeePaid:  req.FlatFee,
		}
		return nil
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to delegate pass")
	}

	log.WithField("owner_id", ownerID).
		WithField("delegatee_id", req.DelegateeID).
		WithField("collection_id", req.CollectionID).
		WithField("token_id", req.TokenID).
		WithField("expiry_tick", result.ExpiryTick).
		Info("Pass delegated")

	svc.notifierSvc.Notify(notifyURL, &WebhookEvent{
		Event:        EventPassDelegated,
		UserID:       ownerID,
		CollectionID: req.CollectionID,
		TokenID:      req.TokenID,
		Amount:       req.FlatFee,
		Tick:         nowTick,
	})

	return result, nil
}

// RevokeDelegation ends a delegation before its expiry. Expiry itself
// needs no revoke; this exists so an owner can cut a loan short. The flat
// fee is returned when the delegatee never consumed a use.
func (svc *PassService) RevokeDelegation(ownerID, delegationID string, nowTick int64) (*dto.RevokeDelegationResponse, error) {
	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		delegation, err := r.Passes.GetDelegation(delegationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError(err, "Delegation not found")
			}
			return err
		}

		if delegation.OwnerID != ownerID {
			return shared.NewForbiddenError(
				fmt.Errorf("user %s did not create delegation %s", ownerID, delegationID),
				"Only the delegating owner can revoke")
		}
		if !delegation.ActiveAt(nowTick) {
			return shared.NewGoneError(fmt.Errorf("delegation %s already ended", delegationID), "Delegation is no longer live")
		}

		delegation.Revoked = true
		if err := r.Passes.UpdateDelegation(delegation); err != nil {
			return err
		}

		if delegation.UsesConsumed == 0 && delegation.FlatFee > 0 {
			if err := svc.walletSvc.ChargeTx(r, ownerID, delegation.FlatFee, shared.MemoDelegationFee, ""); err != nil {
				return err
			}
			if err := svc.walletSvc.CreditTx(r, delegation.DelegateeID, delegation.FlatFee, shared.MemoDelegationFee, ""); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to revoke delegation")
	}

	log.WithField("owner_id", ownerID).WithField("delegation_id", delegationID).Info("Delegation revoked")

	return &dto.RevokeDelegationResponse{DelegationID: delegationID, Revoked: true}, nil
}

// ==================== QUERIES ====================

// PassStatus reports the token's meter. A token with no usage row reads
// as uninitialized with the full allotment still ahead of it.
func (svc *PassService) PassStatus(collectionID string, tokenID uint64, nowTick int64) (*dto.PassStatusResponse, error) {
	collection, err := svc.sqlSvc.Passes().GetCollection(collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Pass collection not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass collection")
	}

	pass, err := svc.sqlSvc.Passes().GetPass(collectionID, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Pass not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass")
	}

	resp := &dto.PassStatusResponse{
		CollectionID:  collectionID,
		TokenID:       tokenID,
		OwnerID:       pass.OwnerID,
		Status:        passStatusName(model.PassUninitialized),
		RemainingUses: collection.MaxUsesPerToken,
		MaxUses:       collection.MaxUsesPerToken,
	}

	usage, err := svc.sqlSvc.Passes().GetUsage(collectionID, tokenID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load pass usage")
	}
	if err == nil {
		resp.Status = passStatusName(usage.Status)
		resp.RemainingUses = usage.RemainingUses
		resp.TotalUses = usage.TotalUses
		resp.TotalRecharges = usage.TotalRecharges
		resp.TotalUsesAdded = usage.TotalUsesAdded
		resp.LastRechargeTick = usage.LastRechargeTick
	}

	delegation, err := svc.liveDelegation(collectionID, tokenID, nowTick)
	if err != nil {
		return nil, err
	}
	if delegation != nil {
		resp.Delegation = toDelegationResponse(delegation, nowTick)
	}

	return resp, nil
}

// ListPasses returns the passes a user owns plus those currently lent to
// them.
func (svc *PassService) ListPasses(userID string, nowTick int64) (*dto.PassListResponse, error) {
	resp := &dto.PassListResponse{
		Owned:    []dto.PassStatusResponse{},
		Borrowed: []dto.PassStatusResponse{},
	}

	owned, err := svc.sqlSvc.Passes().GetPassesByOwner(userID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load passes")
	}
	for i := range owned {
		status, err := svc.PassStatus(owned[i].CollectionID, owned[i].TokenID, nowTick)
		if err != nil {
			return nil, err
		}
		resp.Owned = append(resp.Owned, *status)
	}

	delegations, err := svc.sqlSvc.Passes().GetDelegationsByDelegatee(userID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load delegations")
	}
	for i := range delegations {
		if !delegations[i].ActiveAt(nowTick) {
			continue
		}
		status, err := svc.PassStatus(delegations[i].CollectionID, delegations[i].TokenID, nowTick)
		if err != nil {
			return nil, err
		}
		resp.Borrowed = append(resp.Borrowed, *status)
	}

	return resp, nil
}

func passStatusName(status uint8) string {
	switch status {
	case model.PassActive:
		return "active"
	case model.PassExhausted:
		return "exhausted"
	default:
		return "uninitialized"
	}
}

func toDelegationResponse(d *model.PassDelegation, nowTick int64) *dto.DelegationResponse {
	return &dto.DelegationResponse{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		DelegateeID:     d.DelegateeID,
		ExpiryTick:      d.ExpiryTick,
		UseCap:          d.UseCap,
		UsesConsumed:    d.UsesConsumed,
		FlatFee:         d.FlatFee,
		RevenueShareBps: d.RevenueShareBps,
		Collateral:      d.Collateral,
		Active:          d.ActiveAt(nowTick),
	}
}
