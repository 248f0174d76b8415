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

// RosterService manages a user's operatives: activation, charge regen and
// squad validation for deployments.
type RosterService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const ROSTER_SVC = "roster_svc"

func (svc RosterService) Id() string {
	return ROSTER_SVC
}

func (svc *RosterService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RosterService) Start() error {
	return nil
}

// ==================== QUERIES ====================

func (svc *RosterService) GetRoster(userID string, nowTick int64) (*dto.RosterResponse, error) {
	cfg, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}

	operatives, err := svc.sqlSvc.Roster().GetOperativesByOwner(userID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load roster")
	}

	ids := make([]string, len(operatives))
	for i, op := range operatives {
		ids[i] = op.ID
	}

	locked := map[string]bool{}
	if len(ids) > 0 {
		lockedIDs, err := svc.sqlSvc.Missions().GetLockedOperativeIDs(ids)
		if err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load deployment locks")
		}
		for _, id := range lockedIDs {
			locked[id] = true
		}
	}

	responses := make([]dto.OperativeResponse, len(operatives))
	for i, op := range operatives {
		responses[i] = svc.toOperativeResponse(&op, cfg, nowTick, locked[op.ID])
	}

	return &dto.RosterResponse{Operatives: responses}, nil
}

func (svc *RosterService) GetOperative(userID, operativeID string, nowTick int64) (*dto.OperativeResponse, error) {
	cfg, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}

	op, err := svc.sqlSvc.Roster().GetOperative(operativeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Operative not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load operative")
	}
	if op.OwnerID != userID {
		return nil, shared.NewForbiddenError(fmt.Errorf("not owner"), "Operative belongs to another user")
	}

	lockedIDs, err := svc.sqlSvc.Missions().GetLockedOperativeIDs([]string{op.ID})
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load deployment locks")
	}

	resp := svc.toOperativeResponse(op, cfg, nowTick, len(lockedIDs) > 0)
	return &resp, nil
}

func (svc *RosterService) toOperativeResponse(op *model.Operative, cfg *model.GameConfig, nowTick int64, locked bool) dto.OperativeResponse {
	colonyID := ""
	if op.ColonyID != nil {
		colonyID = *op.ColonyID
	}

	return dto.OperativeResponse{
		ID:           op.ID,
		Name:         op.Name,
		Class:        op.Class,
		CollectionID: op.CollectionID,
		Activated:    op.Activated,
		MaxCharge:    op.MaxCharge,
		Charge:       op.EffectiveCharge(nowTick, cfg.ChargeRegenPerDay),
		XP:           op.XP,
		ColonyID:     colonyID,
		Locked:       locked,
	}
}

// ==================== ACTIVATION ====================

func (svc *RosterService) SetActivated(userID, operativeID string, activated bool, nowTick int64) (*dto.OperativeResponse, error) {
	op, err := svc.sqlSvc.Roster().GetOperative(operativeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Operative not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load operative")
	}
	if op.OwnerID != userID {
		return nil, shared.NewForbiddenError(fmt.Errorf("not owner"), "Operative belongs to another user")
	}

	if !activated {
		lockedIDs, err := svc.sqlSvc.Missions().GetLockedOperativeIDs([]string{op.ID})
		if err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load deployment locks")
		}
		if len(lockedIDs) > 0 {
			return nil, shared.NewConflictError(fmt.Errorf("operative deployed"), "Operative is deployed on a mission")
		}
	}

	if op.Activated != activated {
		op.Activated = activated
		if err := svc.sqlSvc.Roster().UpdateOperative(op); err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to update operative")
		}

		log.WithFields(log.Fields{
			"operative_id": op.ID,
			"activated":    activated,
		}).Info("Operative activation changed")
	}

	return svc.GetOperative(userID, operativeID, nowTick)
}

// ==================== DEPLOYMENT HELPERS ====================

// PrepareSquad validates a squad for deployment and materializes pending
// charge regen so the deployment snapshot starts from current values. The
// caller persists the operatives inside its transaction.
func (svc *RosterService) PrepareSquad(r *Repos, userID string, operativeIDs []string, variant *model.MissionVariant, cfg *model.GameConfig, nowTick int64) ([]model.Operative, error) {
	if len(operativeIDs) < variant.MinSquadSize || len(operativeIDs) > variant.MaxSquadSize {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("squad size %d outside %d-%d", len(operativeIDs), variant.MinSquadSize, variant.MaxSquadSize),
			"Squad size not allowed for this mission")
	}

	seen := map[string]bool{}
	for _, id := range operativeIDs {
		if seen[id] {
			return nil, shared.NewBadRequestError(fmt.Errorf("duplicate operative %s", id), "Duplicate operative in squad")
		}
		seen[id] = true
	}

	operatives, err := r.Roster.GetOperatives(operativeIDs)
	if err != nil {
		return nil, err
	}
	if len(operatives) != len(operativeIDs) {
		return nil, shared.NewNotFoundError(fmt.Errorf("%d of %d operatives found", len(operatives), len(operativeIDs)), "Operative not found")
	}

	lockedIDs, err := r.Missions.GetLockedOperativeIDs(operativeIDs)
	if err != nil {
		return nil, err
	}
	if len(lockedIDs) > 0 {
		return nil, shared.NewConflictError(fmt.Errorf("operative %s locked", lockedIDs[0]), "Operative is already deployed")
	}

	for i := range operatives {
		op := &operatives[i]

		if op.OwnerID != userID {
			return nil, shared.NewForbiddenError(fmt.Errorf("operative %s not owned", op.ID), "Operative belongs to another user")
		}
		if !op.Activated {
			return nil, shared.NewBadRequestError(fmt.Errorf("operative %s inactive", op.ID), "Operative is not activated")
		}

		op.ApplyRegen(nowTick, cfg.ChargeRegenPerDay)

		minCharge := variant.MinChargePct * op.MaxCharge / 100
		if op.Charge < minCharge {
			return nil, shared.NewBadRequestError(
				fmt.Errorf("operative %s charge %d below %d", op.ID, op.Charge, minCharge),
				"Operative charge too low for this mission")
		}
	}

	if err := r.Roster.UpdateOperatives(operatives); err != nil {
		return nil, err
	}

	return operatives, nil
}

// ApplyMissionResults settles charge and XP back onto the operatives when a
// session reaches a terminal phase. The regen clock restarts at settlement.
func (svc *RosterService) ApplyMissionResults(r *Repos, participants []model.MissionParticipant, nowTick int64) error {
	if len(participants) == 0 {
		return nil
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.OperativeID
	}

	operatives, err := r.Roster.GetOperatives(ids)
	if err != nil {
		return err
	}

	byID := make(map[string]*model.Operative, len(operatives))
	for i := range operatives {
		byID[operatives[i].ID] = &operatives[i]
	}

	for _, p := range participants {
		op, ok := byID[p.OperativeID]
		if !ok {
			continue
		}

		// Rest restores are already netted into CurrentCharge.
		spent := (p.InitialCharge - p.CurrentCharge) + p.DamageTaken
		op.Charge -= spent
		if op.Charge < 0 {
			op.Charge = 0
		}
		op.XP += p.XPEarned
		op.LastRegenTick = nowTick
	}

	return r.Roster.UpdateOperatives(operatives)
}
