package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/services/engine"
	"github.com/driftgate-labs/sortie_api/shared"
)

// MissionService drives the commit-reveal session state machine: start,
// reveal, action batches, event responses, extraction and abandonment.
// Each mutating call locks the session, runs as one transaction and
// evaluates every deadline lazily against the caller-supplied tick.
type MissionService struct {
	appContext.DefaultService

	sqlSvc        *PostgresService
	passSvc       *PassService
	walletSvc     *WalletService
	rosterSvc     *RosterService
	resourceSvc   *ResourceService
	profileSvc    *ProfileService
	notifierSvc   *NotifierService
	archiveSvc    *ArchiveService
	monitoringSvc *MonitoringService

	locks *sessionLocks
}

const MISSION_SVC = "mission_svc"

func (svc MissionService) Id() string {
	return MISSION_SVC
}

func (svc *MissionService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.passSvc = ctx.Service(PASS_SVC).(*PassService)
	svc.walletSvc = ctx.Service(WALLET_SVC).(*WalletService)
	svc.rosterSvc = ctx.Service(ROSTER_SVC).(*RosterService)
	svc.resourceSvc = ctx.Service(RESOURCE_SVC).(*ResourceService)
	svc.profileSvc = ctx.Service(PROFILE_SVC).(*ProfileService)
	svc.notifierSvc = ctx.Service(NOTIFIER_SVC).(*NotifierService)
	svc.archiveSvc = ctx.Service(ARCHIVE_SVC).(*ArchiveService)
	svc.monitoringSvc = ctx.Service(MONITORING_SVC).(*MonitoringService)
	svc.locks = newSessionLocks()
	return svc.DefaultService.Configure(ctx)
}

func (svc *MissionService) Start() error {
	return nil
}

// ==================== SESSION LOCKS ====================

// sessionLocks serializes calls per key. Two operations on the same
// session never interleave; different sessions proceed in parallel.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the key is held and returns the release func.
func (sl *sessionLocks) Lock(key string) func() {
	sl.mu.Lock()
	l := sl.locks[key]
	if l == nil {
		l = &sessionLock{}
		sl.locks[key] = l
	}
	l.refs++
	sl.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		sl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(sl.locks, key)
		}
		sl.mu.Unlock()
	}
}

// ==================== START ====================

// StartMission deploys a squad into a new committed session. The commit
// seed is drawn now; map and objectives stay unknowable until the reveal.
func (svc *MissionService) StartMission(userID string, req *dto.StartMissionRequest, nowTick int64) (*dto.StartMissionResponse, error) {
	unlock := svc.locks.Lock("start:" + userID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	if _, err := svc.sqlSvc.Missions().GetActiveMission(userID); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("user %s already deployed", userID), "You already have an active mission")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to check active missions")
	}

	if profile, err := svc.sqlSvc.Profiles().GetProfile(userID); err == nil {
		if until := profile.LastMissionEndTick + cfg.CooldownTicks; nowTick < until {
			return nil, shared.NewTooManyRequestsError(fmt.Errorf("cooldown until tick %d", until), "You are still on mission cooldown")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load profile")
	}

	grant, err := svc.passSvc.Authorize(userID, req.PassCollectionID, req.PassTokenID, nowTick)
	if err != nil {
		return nil, err
	}

	variant, err := svc.sqlSvc.Variants().GetVariant(req.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Mission variant not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variant")
	}
	if !variant.Enabled {
		return nil, shared.NewBadRequestError(fmt.Errorf("variant %s disabled", variant.ID), "Mission variant is disabled")
	}

	commitSeed, err := engine.NewEntropy()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to seed session")
	}

	var session *model.MissionSession
	var usesRemaining int

	err = svc.sqlSvc.Transaction(func(r *Repos) error {
		squad, err := svc.rosterSvc.PrepareSquad(r, userID, req.OperativeIDs, variant, cfg, nowTick)
		if err != nil {
			return err
		}

		for i := range squad {
			if !grant.Collection.AdmitsCollection(squad[i].CollectionID) {
				return shared.NewForbiddenError(
					fmt.Errorf("collection %s not eligible for pass collection %s", squad[i].CollectionID, grant.Collection.ID),
					"Operative collection is not eligible for this pass")
			}
		}

		session = &model.MissionSession{
			UserID:              userID,
			VariantID:           variant.ID,
			PassCollectionID:    grant.Pass.CollectionID,
			PassTokenID:         grant.Pass.TokenID,
			Phase:               uint8(engine.PhaseCommitted),
			CommitSeed:          commitSeed,
			StartTick:           nowTick,
			RevealAvailableTick: nowTick + cfg.RevealDelayTicks,
			DeadlineTick:        nowTick + variant.MaxDurationTicks,
			LastActionTick:      nowTick,
		}
		if _, err := r.Missions.CreateSession(session); err != nil {
			return err
		}

		if err := svc.passSvc.ConsumeUseTx(r, grant); err != nil {
			return err
		}
		if err := svc.walletSvc.ChargeTx(r, userID, variant.EntryFee, shared.MemoEntryFee, session.ID); err != nil {
			return err
		}

		participants := make([]model.MissionParticipant, len(squad))
		locks := make([]model.OperativeLock, len(squad))
		for i := range squad {
			participants[i] = model.MissionParticipant{
				SessionID:     session.ID,
				OperativeID:   squad[i].ID,
				InitialCharge: squad[i].Charge,
				CurrentCharge: squad[i].Charge,
				Status:        uint8(engine.ParticipantActive),
			}
			locks[i] = model.OperativeLock{OperativeID: squad[i].ID, SessionID: session.ID}
		}
		if err := r.Missions.CreateParticipants(participants); err != nil {
			return err
		}
		if err := r.Missions.CreateOperativeLocks(locks); err != nil {
			return err
		}
		if err := r.Missions.CreateActiveMission(&model.ActiveMission{UserID: userID, SessionID: session.ID}); err != nil {
			return err
		}

		usage, err := r.Passes.GetUsage(grant.Pass.CollectionID, grant.Pass.TokenID)
		if err != nil {
			return err
		}
		usesRemaining = usage.RemainingUses
		return nil
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to start mission")
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"user_id":    userID,
		"variant":    variant.ID,
		"squad_size": len(req.OperativeIDs),
		"delegated":  grant.Delegated(),
	}).Info("Mission started")

	svc.monitoringSvc.RecordMissionStart(variant.ID)
	svc.monitoringSvc.RecordPassUse(grant.Delegated())
	svc.notifierSvc.Notify(grant.Collection.NotifyURL, &WebhookEvent{
		Event:        EventMissionStarted,
		SessionID:    session.ID,
		UserID:       userID,
		CollectionID: grant.Pass.CollectionID,
		TokenID:      grant.Pass.TokenID,
		VariantID:    variant.ID,
		Tick:         nowTick,
	})

	return &dto.StartMissionResponse{
		SessionID:           session.ID,
		Phase:               engine.PhaseCommitted.String(),
		StartTick:           nowTick,
		RevealAvailableTick: session.RevealAvailableTick,
		RevealDeadlineTick:  session.RevealAvailableTick + cfg.RevealWindowTicks,
		DeadlineTick:        session.DeadlineTick,
		EntryFeePaid:        variant.EntryFee,
		PassUsesRemaining:   usesRemaining,
	}, nil
}

// ==================== REVEAL ====================

// Reveal mixes fresh entropy into the commit seed and materializes the
// map and objectives. Only valid inside the reveal window.
func (svc *MissionService) Reveal(userID, sessionID string, nowTick int64) (*dto.RevealMissionResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, shared.NewConflictError(fmt.Errorf("session %s expired", sessionID), "Reveal window has closed")
	}

	phase := engine.Phase(session.Phase)
	if phase.Terminal() {
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Session already settled")
	}
	if phase != engine.PhaseCommitted {
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Mission already revealed")
	}
	if nowTick < session.RevealAvailableTick {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("reveal opens at tick %d", session.RevealAvailableTick), "Reveal is not yet available")
	}

	variant, err := svc.sqlSvc.Variants().GetVariant(session.VariantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variant")
	}

	revealEntropy, err := engine.NewEntropy()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to seed reveal")
	}
	finalSeed := engine.MixSeed(session.CommitSeed, revealEntropy, session.ID)

	missionMap, err := engine.GenerateMap(finalSeed, mapParams(variant))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate mission map")
	}

	objectives, err := svc.generateObjectives(finalSeed, missionMap, variant)
	if err != nil {
		return nil, err
	}

	mapJSON, err := json.Marshal(missionMap.Nodes)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode mission map")
	}
	objectivesJSON, err := json.Marshal(objectives.Objectives)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode mission objectives")
	}

	session.RevealEntropy = revealEntropy
	session.FinalSeed = finalSeed
	session.RevealedTick = nowTick
	session.DeadlineTick = nowTick + variant.MaxDurationTicks
	session.LastActionTick = nowTick
	session.Phase = uint8(engine.PhaseActive)
	session.MapNodes = mapJSON
	session.Objectives = objectivesJSON

	if err := svc.sqlSvc.Missions().UpdateSession(session); err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to reveal mission")
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"nodes":      missionMap.Size(),
		"objectives": len(objectives.Objectives),
	}).Info("Mission revealed")

	return &dto.RevealMissionResponse{
		SessionID:    session.ID,
		Phase:        engine.PhaseActive.String(),
		DeadlineTick: session.DeadlineTick,
		Map:          toMapResponse(session.ID, session.CurrentNode, missionMap.Nodes),
		Objectives:   toObjectiveResponses(objectives.Objectives),
	}, nil
}

func (svc *MissionService) generateObjectives(seed int64, m *engine.MissionMap, variant *model.MissionVariant) (*engine.ObjectiveSet, error) {
	if variant.ObjectiveMode == shared.ObjectiveModeTemplate {
		templates, err := svc.sqlSvc.Variants().GetObjectiveTemplates(variant.ID)
		if err != nil {
			return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load objective templates")
		}

		required := 0
		for _, t := range templates {
			if t.Required {
				required++
			}
		}
		if required > 0 {
			recipes := make([]engine.ObjectiveRecipe, len(templates))
			for i, t := range templates {
				recipes[i] = engine.ObjectiveRecipe{
					Type:      engine.ObjectiveType(t.ObjectiveType),
					Weight:    t.Weight,
					TargetMin: t.TargetMin,
					TargetMax: t.TargetMax,
					Required:  t.Required,
					BonusBps:  t.BonusRewardBps,
				}
			}

			set, err := engine.GenerateTemplateObjectives(seed, m, variant.MaxEvents, recipes)
			if err != nil {
				return nil, shared.NewInternalError(err, "Failed to generate mission objectives")
			}
			return set, nil
		}

		// Without a required template the mission could never complete.
		// Fall through to the legacy generator instead of bricking reveal.
		log.WithFields(log.Fields{
			"variant_id": variant.ID,
			"templates":  len(templates),
		}).Warn("Template variant has no required templates, using legacy objectives")
	}

	set, err := engine.GenerateLegacyObjectives(seed, m, variant.MaxEvents)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to generate mission objectives")
	}
	return set, nil
}

// ==================== ACTIONS ====================

// PerformActions resolves a batch of up to five actions in order. A
// triggered event stops the batch and parks the session in EventPending.
func (svc *MissionService) PerformActions(userID, sessionID string, req *dto.PerformActionsRequest, nowTick int64) (*dto.PerformActionsResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, shared.NewConflictError(fmt.Errorf("session %s expired", sessionID), "Mission deadline has passed")
	}

	if phase := engine.Phase(session.Phase); phase != engine.PhaseActive {
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), phaseMessage(phase))
	}

	actions, err := parseActions(req.Actions)
	if err != nil {
		return nil, err
	}

	variant, err := svc.sqlSvc.Variants().GetVariant(session.VariantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variant")
	}

	participants, err := svc.sqlSvc.Missions().GetParticipants(session.ID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load participants")
	}

	st, err := loadEngineState(session, participants)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load mission state")
	}

	results, err := engine.ResolveActions(st, session.FinalSeed, resolveParams(variant), actions)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid action batch")
	}

	eventTriggered := st.PendingEventID != 0
	switch {
	case eventTriggered:
		session.Phase = uint8(engine.PhaseEventPending)
		session.EventDeadlineTick = nowTick + cfg.EventResponseTicks
	case st.Objectives.RequiredComplete():
		session.Phase = uint8(engine.PhaseReadyToComplete)
	}
	session.LastActionTick = nowTick

	if err := saveEngineState(session, st); err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode mission state")
	}
	writeSquad(st, participants)

	var salvage, crystal, component int64
	for _, res := range results {
		if res.Loot != nil {
			salvage += int64(res.Loot.Salvage)
			crystal += int64(res.Loot.Crystal)
			component += int64(res.Loot.Component)
		}
	}

	err = svc.sqlSvc.Transaction(func(r *Repos) error {
		if err := r.Missions.UpdateSession(session); err != nil {
			return err
		}
		if err := r.Missions.UpdateParticipants(participants); err != nil {
			return err
		}
		if err := svc.resourceSvc.AwardTx(r, userID, shared.ResourceSalvage, salvage, cfg, nowTick); err != nil {
			return err
		}
		if err := svc.resourceSvc.AwardTx(r, userID, shared.ResourceCrystal, crystal, cfg, nowTick); err != nil {
			return err
		}
		return svc.resourceSvc.AwardTx(r, userID, shared.ResourceComponent, component, cfg, nowTick)
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to apply actions")
	}

	for _, res := range results {
		svc.monitoringSvc.RecordAction(res.Action.String(), res.Success)
	}

	phase := engine.Phase(session.Phase)
	resp := &dto.PerformActionsResponse{
		SessionID:       session.ID,
		Phase:           phase.String(),
		Results:         toActionResultResponses(results),
		ReadyToComplete: phase == engine.PhaseReadyToComplete,
	}
	if eventTriggered {
		resp.PendingEvent = toPendingEventResponse(session)
	}
	return resp, nil
}

// ==================== EVENTS ====================

// RespondEvent resolves the pending event with the chosen response and
// returns the session to Active, or ReadyToComplete when the event
// progress finished the last required objective.
func (svc *MissionService) RespondEvent(userID, sessionID string, req *dto.EventResponseRequest, nowTick int64) (*dto.EventOutcomeResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, shared.NewConflictError(fmt.Errorf("session %s expired", sessionID), "Mission deadline has passed")
	}

	phase := engine.Phase(session.Phase)
	if phase != engine.PhaseEventPending {
		if phase.Terminal() {
			return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Session already settled")
		}
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "No event is pending")
	}
	if nowTick > session.EventDeadlineTick {
		return nil, shared.NewConflictError(
			fmt.Errorf("event deadline was tick %d", session.EventDeadlineTick), "Event response window has closed")
	}

	response, err := engine.ParseEventResponse(req.Response)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid event response")
	}

	participants, err := svc.sqlSvc.Missions().GetParticipants(session.ID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load participants")
	}

	st, err := loadEngineState(session, participants)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load mission state")
	}

	outcome := engine.ResolveEvent(session.FinalSeed, session.PendingEventID, response)
	st.ApplyEventOutcome(outcome)

	if st.Objectives.RequiredComplete() {
		session.Phase = uint8(engine.PhaseReadyToComplete)
	} else {
		session.Phase = uint8(engine.PhaseActive)
	}
	session.EventDeadlineTick = 0
	session.LastActionTick = nowTick

	if err := saveEngineState(session, st); err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode mission state")
	}

	if err := svc.sqlSvc.Missions().UpdateSession(session); err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to apply event outcome")
	}

	eventOutcome := "resolved"
	if !outcome.Success {
		eventOutcome = "failed"
	}
	svc.monitoringSvc.RecordEvent(outcome.Type.String(), eventOutcome)

	phase = engine.Phase(session.Phase)
	return &dto.EventOutcomeResponse{
		SessionID:       session.ID,
		EventType:       outcome.Type.String(),
		Response:        outcome.Response.String(),
		Success:         outcome.Success,
		Damage:          outcome.Damage,
		SecretFound:     outcome.SecretFound,
		Phase:           phase.String(),
		ReadyToComplete: phase == engine.PhaseReadyToComplete,
	}, nil
}

// ==================== EXTRACT ====================

// Extract pays out a ReadyToComplete session: reward stack, delegation
// split, profile streak, operative settlement and lock release, all in
// one transaction.
func (svc *MissionService) Extract(userID, sessionID string, nowTick int64) (*dto.ExtractMissionResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, shared.NewConflictError(fmt.Errorf("session %s expired", sessionID), "Mission deadline has passed")
	}

	phase := engine.Phase(session.Phase)
	if phase != engine.PhaseReadyToComplete {
		if phase == engine.PhaseActive {
			return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Required objectives are not complete")
		}
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), phaseMessage(phase))
	}

	variant, err := svc.sqlSvc.Variants().GetVariant(session.VariantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variant")
	}

	participants, err := svc.sqlSvc.Missions().GetParticipants(session.ID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load participants")
	}

	st, err := loadEngineState(session, participants)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load mission state")
	}
	settleTimeObjectives(st, session, nowTick)

	input, err := svc.rewardInput(session, variant, st, participants, nowTick)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to assemble reward input")
	}
	reward := engine.ComputeReward(input, rewardParams(cfg))

	delegation, err := svc.passSvc.liveDelegation(session.PassCollectionID, session.PassTokenID, nowTick)
	if err != nil {
		return nil, err
	}

	lenderShare, payout := int64(0), reward.Total
	if delegation != nil && delegation.DelegateeID == session.UserID && delegation.RevenueShareBps > 0 {
		lenderShare, payout = engine.SplitShare(reward.Total, delegation.RevenueShareBps)
	}

	totalXP := 0
	for _, p := range participants {
		totalXP += p.XPEarned
	}

	session.Phase = uint8(engine.PhaseCompleted)
	session.EndedTick = nowTick
	session.LastActionTick = nowTick
	session.RewardPaid = reward.Total
	if err := saveEngineState(session, st); err != nil {
		return nil, shared.NewInternalError(err, "Failed to encode mission state")
	}

	writeSquad(st, participants)
	for i := range participants {
		if participants[i].Status == uint8(engine.ParticipantActive) {
			participants[i].Status = uint8(engine.ParticipantExtracted)
		}
	}

	var profile *model.UserProfile
	err = svc.sqlSvc.Transaction(func(r *Repos) error {
		if err := r.Missions.UpdateSession(session); err != nil {
			return err
		}
		if err := r.Missions.UpdateParticipants(participants); err != nil {
			return err
		}
		if err := svc.rosterSvc.ApplyMissionResults(r, participants, nowTick); err != nil {
			return err
		}

		if lenderShare > 0 {
			if err := svc.walletSvc.CreditEscrowTx(r, delegation.OwnerID, lenderShare, shared.MemoDelegatedShare, session.ID); err != nil {
				return err
			}
		}
		if err := svc.walletSvc.CreditTx(r, session.UserID, payout, shared.MemoMissionReward, session.ID); err != nil {
			return err
		}

		profile, err = svc.profileSvc.RecordCompletionTx(r, session.UserID, reward.Total, totalXP, reward.Perfect, nowTick)
		if err != nil {
			return err
		}

		if err := r.Missions.DeleteOperativeLocks(session.ID); err != nil {
			return err
		}
		return r.Missions.DeleteActiveMission(session.UserID)
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to extract mission")
	}

	log.WithFields(log.Fields{
		"session_id":   session.ID,
		"user_id":      session.UserID,
		"reward":       reward.Total,
		"lender_share": lenderShare,
		"rating":       reward.Rating,
		"perfect":      reward.Perfect,
	}).Info("Mission extracted")

	svc.profileSvc.BumpLeaderboard(session.UserID, reward.Total)
	svc.monitoringSvc.RecordMissionEnd(variant.ID, "completed")
	svc.monitoringSvc.RecordRewardPaid(reward.Total)
	svc.notifyLifecycle(session, EventMissionCompleted, reward.Total, nowTick)
	svc.archiveSvc.ArchiveSession(session, participants)

	return &dto.ExtractMissionResponse{
		SessionID:     session.ID,
		Phase:         engine.PhaseCompleted.String(),
		Reward:        toBreakdownResponse(reward),
		PaidToCaller:  payout,
		LenderShare:   lenderShare,
		CurrentStreak: profile.CurrentStreak,
	}, nil
}

// ==================== ABANDON ====================

// Abandon forfeits a live session from any non-terminal phase. It always
// releases the squad; a session past its deadline settles as expired
// instead of failed.
func (svc *MissionService) Abandon(userID, sessionID string, nowTick int64) (*dto.AbandonMissionResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if expired {
		return &dto.AbandonMissionResponse{SessionID: session.ID, Phase: engine.PhaseExpired.String()}, nil
	}
	if phase := engine.Phase(session.Phase); phase.Terminal() {
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Session already settled")
	}

	var participants []model.MissionParticipant
	err = svc.sqlSvc.Transaction(func(r *Repos) error {
		participants, err = svc.settleTerminationTx(r, session, engine.PhaseFailed, shared.FailReasonAbandoned, nowTick)
		return err
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to abandon mission")
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
	}).Info("Mission abandoned")

	svc.monitoringSvc.RecordMissionEnd(session.VariantID, "failed")
	svc.notifyLifecycle(session, EventMissionFailed, 0, nowTick)
	svc.archiveSvc.ArchiveSession(session, participants)

	return &dto.AbandonMissionResponse{SessionID: session.ID, Phase: engine.PhaseFailed.String()}, nil
}

// ==================== LAZY EXPIRY ====================

// loadOwnedSession fetches a session, enforces the initiator-only rule
// and settles a lapsed deadline. Callers must hold the session lock.
func (svc *MissionService) loadOwnedSession(userID, sessionID string, cfg *model.GameConfig, nowTick int64) (*model.MissionSession, bool, error) {
	session, err := svc.sqlSvc.Missions().GetSession(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, shared.NewNotFoundError(err, "Mission session not found")
		}
		return nil, false, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission session")
	}
	if session.UserID != userID {
		return nil, false, shared.NewForbiddenError(
			fmt.Errorf("session %s started by %s", session.ID, session.UserID), "Session belongs to another user")
	}

	expired, err := svc.expireIfDue(session, cfg, nowTick)
	if err != nil {
		return nil, false, err
	}
	return session, expired, nil
}

// expireIfDue settles a session whose reveal window or hard deadline has
// lapsed. Committed sessions die when the reveal window closes, revealed
// ones at the hard deadline. Returns true when the session terminated.
func (svc *MissionService) expireIfDue(session *model.MissionSession, cfg *model.GameConfig, nowTick int64) (bool, error) {
	phase := engine.Phase(session.Phase)
	if phase.Terminal() {
		return false, nil
	}

	deadline := session.DeadlineTick
	if phase == engine.PhaseCommitted {
		if windowEnd := session.RevealAvailableTick + cfg.RevealWindowTicks; windowEnd < deadline {
			deadline = windowEnd
		}
	}
	if nowTick <= deadline {
		return false, nil
	}

	var participants []model.MissionParticipant
	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		var err error
		participants, err = svc.settleTerminationTx(r, session, engine.PhaseExpired, shared.FailReasonExpired, nowTick)
		return err
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return false, err
		}
		return false, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to expire mission")
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
	}).Info("Mission expired")

	svc.monitoringSvc.RecordMissionEnd(session.VariantID, "expired")
	svc.notifyLifecycle(session, EventMissionExpired, 0, nowTick)
	svc.archiveSvc.ArchiveSession(session, participants)

	return true, nil
}

// settleTerminationTx applies a failed or expired terminal transition:
// phase, operative settlement, lock release, active-index cleanup and the
// profile counters.
func (svc *MissionService) settleTerminationTx(r *Repos, session *model.MissionSession, phase engine.Phase, reason string, nowTick int64) ([]model.MissionParticipant, error) {
	participants, err := r.Missions.GetParticipants(session.ID)
	if err != nil {
		return nil, err
	}

	session.Phase = uint8(phase)
	session.FailReason = reason
	session.EndedTick = nowTick
	if err := r.Missions.UpdateSession(session); err != nil {
		return nil, err
	}

	if err := svc.rosterSvc.ApplyMissionResults(r, participants, nowTick); err != nil {
		return nil, err
	}
	if err := r.Missions.DeleteOperativeLocks(session.ID); err != nil {
		return nil, err
	}
	if err := r.Missions.DeleteActiveMission(session.UserID); err != nil {
		return nil, err
	}
	if err := svc.profileSvc.RecordFailureTx(r, session.UserID, reason, nowTick); err != nil {
		return nil, err
	}
	return participants, nil
}

// notifyLifecycle posts a webhook to the session's pass collection if it
// opted in. A failed collection lookup only costs the notification.
func (svc *MissionService) notifyLifecycle(session *model.MissionSession, event string, amount int64, nowTick int64) {
	collection, err := svc.sqlSvc.Passes().GetCollection(session.PassCollectionID)
	if err != nil {
		return
	}
	svc.notifierSvc.Notify(collection.NotifyURL, &WebhookEvent{
		Event:        event,
		SessionID:    session.ID,
		UserID:       session.UserID,
		CollectionID: session.PassCollectionID,
		TokenID:      session.PassTokenID,
		VariantID:    session.VariantID,
		Amount:       amount,
		Tick:         nowTick,
	})
}

// ==================== QUERIES ====================

func (svc *MissionService) GetSession(userID, sessionID string, nowTick int64) (*dto.MissionSessionResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, _, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}

	participants, err := svc.sqlSvc.Missions().GetParticipants(session.ID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load participants")
	}

	names, err := svc.operativeNames(participants)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load operatives")
	}

	return toSessionResponse(session, participants, names), nil
}

// GetActive resolves the caller's single live session, if any.
func (svc *MissionService) GetActive(userID string, nowTick int64) (*dto.MissionSessionResponse, error) {
	active, err := svc.sqlSvc.Missions().GetActiveMission(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "No active mission")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to check active missions")
	}
	return svc.GetSession(userID, active.SessionID, nowTick)
}

func (svc *MissionService) GetHistory(userID string, limit int, nowTick int64) (*dto.MissionHistoryResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	sessions, err := svc.sqlSvc.Missions().GetSessionsByUser(userID, limit)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission history")
	}

	responses := make([]dto.MissionSessionResponse, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		if !engine.Phase(session.Phase).Terminal() {
			session, err = svc.refreshExpiry(session.ID, cfg, nowTick)
			if err != nil {
				return nil, err
			}
		}
		responses = append(responses, *toSessionResponse(session, nil, nil))
	}

	return &dto.MissionHistoryResponse{Sessions: responses}, nil
}

// refreshExpiry re-reads one session under its lock and settles a lapsed
// deadline. Used by list views that load rows before locking.
func (svc *MissionService) refreshExpiry(sessionID string, cfg *model.GameConfig, nowTick int64) (*model.MissionSession, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	session, err := svc.sqlSvc.Missions().GetSession(sessionID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission session")
	}
	if _, err := svc.expireIfDue(session, cfg, nowTick); err != nil {
		return nil, err
	}
	return session, nil
}

// GetMap returns the corridor with undiscovered nodes masked down to
// their position.
func (svc *MissionService) GetMap(userID, sessionID string, nowTick int64) (*dto.MissionMapResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, _, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if engine.Phase(session.Phase) == engine.PhaseCommitted {
		return nil, shared.NewConflictError(fmt.Errorf("session %s not revealed", sessionID), "Mission not yet revealed")
	}

	var nodes []engine.MapNode
	if err := json.Unmarshal(session.MapNodes, &nodes); err != nil {
		return nil, shared.NewInternalError(err, "Failed to decode mission map")
	}

	resp := toMapResponse(session.ID, session.CurrentNode, nodes)
	return &resp, nil
}

func (svc *MissionService) GetObjectives(userID, sessionID string, nowTick int64) (*dto.MissionObjectivesResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, _, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}
	if engine.Phase(session.Phase) == engine.PhaseCommitted {
		return nil, shared.NewConflictError(fmt.Errorf("session %s not revealed", sessionID), "Mission not yet revealed")
	}

	var objectives []engine.Objective
	if err := json.Unmarshal(session.Objectives, &objectives); err != nil {
		return nil, shared.NewInternalError(err, "Failed to decode mission objectives")
	}

	set := engine.ObjectiveSet{Objectives: objectives}
	return &dto.MissionObjectivesResponse{
		SessionID:        session.ID,
		Objectives:       toObjectiveResponses(objectives),
		RequiredComplete: set.RequiredComplete(),
	}, nil
}

// EstimateReward previews the payout an extraction right now would
// produce, without paying anything.
func (svc *MissionService) EstimateReward(userID, sessionID string, nowTick int64) (*dto.RewardEstimateResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, _, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}

	phase := engine.Phase(session.Phase)
	if phase.Terminal() {
		return nil, shared.NewConflictError(fmt.Errorf("phase %s", phase), "Session already settled")
	}
	if phase == engine.PhaseCommitted {
		return nil, shared.NewConflictError(fmt.Errorf("session %s not revealed", sessionID), "Mission not yet revealed")
	}

	variant, err := svc.sqlSvc.Variants().GetVariant(session.VariantID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variant")
	}

	participants, err := svc.sqlSvc.Missions().GetParticipants(session.ID)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load participants")
	}

	st, err := loadEngineState(session, participants)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load mission state")
	}
	settleTimeObjectives(st, session, nowTick)

	input, err := svc.rewardInput(session, variant, st, participants, nowTick)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to assemble reward input")
	}
	reward := engine.ComputeReward(input, rewardParams(cfg))

	return &dto.RewardEstimateResponse{
		SessionID: session.ID,
		Eligible:  phase == engine.PhaseReadyToComplete,
		Breakdown: toBreakdownResponse(reward),
	}, nil
}

// GetExtractEligibility reports whether Extract would succeed right now,
// with the same checks Extract runs but no settlement.
func (svc *MissionService) GetExtractEligibility(userID, sessionID string, nowTick int64) (*dto.ExtractEligibilityResponse, error) {
	unlock := svc.locks.Lock(sessionID)
	defer unlock()

	cfg, err := svc.gameConfig()
	if err != nil {
		return nil, err
	}

	session, expired, err := svc.loadOwnedSession(userID, sessionID, cfg, nowTick)
	if err != nil {
		return nil, err
	}

	phase := engine.Phase(session.Phase)
	resp := &dto.ExtractEligibilityResponse{
		SessionID: session.ID,
		Phase:     phase.String(),
	}
	switch {
	case expired:
		resp.Reason = "Mission deadline has passed"
	case phase == engine.PhaseReadyToComplete:
		resp.Eligible = true
	case phase == engine.PhaseActive:
		resp.Reason = "Required objectives are not complete"
	default:
		resp.Reason = phaseMessage(phase)
	}
	return resp, nil
}

func (svc *MissionService) ListVariants() (*dto.VariantListResponse, error) {
	variants, err := svc.sqlSvc.Variants().ListVariants(true)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load mission variants")
	}

	responses := make([]dto.VariantResponse, len(variants))
	for i := range variants {
		responses[i] = toVariantResponse(&variants[i])
	}
	return &dto.VariantListResponse{Variants: responses}, nil
}

func (svc *MissionService) gameConfig() (*model.GameConfig, error) {
	cfg, err := svc.sqlSvc.Variants().GetGameConfig()
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load game config")
	}
	return cfg, nil
}

// ==================== ENGINE STATE ====================

// loadEngineState rebuilds the in-memory resolver state from the session
// JSON columns and the participant rows.
func loadEngineState(session *model.MissionSession, participants []model.MissionParticipant) (*engine.State, error) {
	var nodes []engine.MapNode
	if err := json.Unmarshal(session.MapNodes, &nodes); err != nil {
		return nil, fmt.Errorf("decode map nodes: %w", err)
	}
	missionMap, err := engine.NewMissionMap(nodes)
	if err != nil {
		return nil, fmt.Errorf("rebuild map: %w", err)
	}

	var objectives []engine.Objective
	if err := json.Unmarshal(session.Objectives, &objectives); err != nil {
		return nil, fmt.Errorf("decode objectives: %w", err)
	}
	set, err := engine.NewObjectiveSet(objectives)
	if err != nil {
		return nil, fmt.Errorf("rebuild objectives: %w", err)
	}

	squad := make([]*engine.Participant, len(participants))
	for i, p := range participants {
		squad[i] = &engine.Participant{
			OperativeID:   p.OperativeID,
			InitialCharge: p.InitialCharge,
			Charge:        p.CurrentCharge,
			DamageDealt:   p.DamageDealt,
			DamageTaken:   p.DamageTaken,
			XP:            p.XPEarned,
			Actions:       p.ActionsPerformed,
			Rests:         p.RestsUsed,
			Status:        engine.ParticipantStatus(p.Status),
		}
	}

	return &engine.State{
		Map:            missionMap,
		Objectives:     set,
		Squad:          squad,
		CurrentNode:    session.CurrentNode,
		PendingEventID: session.PendingEventID,
		DiscoveryBonus: session.DiscoveryBonus,
		Counters: engine.Counters{
			TotalActions:     session.TotalActions,
			CombatsWon:       session.CombatsWon,
			CombatsLost:      session.CombatsLost,
			ChargeUsed:       session.ChargeUsed,
			EventsTriggered:  session.EventsTriggered,
			EventsResolved:   session.EventsResolved,
			EventsFailed:     session.EventsFailed,
			StealthSuccesses: session.StealthSuccesses,
			HacksCompleted:   session.HacksCompleted,
			SecretsFound:     session.SecretsFound,
			SessionDamage:    session.SessionDamage,
		},
	}, nil
}

// saveEngineState writes the resolver state back onto the session row.
func saveEngineState(session *model.MissionSession, st *engine.State) error {
	mapJSON, err := json.Marshal(st.Map.Nodes)
	if err != nil {
		return fmt.Errorf("encode map nodes: %w", err)
	}
	objectivesJSON, err := json.Marshal(st.Objectives.Objectives)
	if err != nil {
		return fmt.Errorf("encode objectives: %w", err)
	}

	session.MapNodes = mapJSON
	session.Objectives = objectivesJSON
	session.CurrentNode = st.CurrentNode
	session.PendingEventID = st.PendingEventID
	session.DiscoveryBonus = st.DiscoveryBonus

	session.TotalActions = st.Counters.TotalActions
	session.CombatsWon = st.Counters.CombatsWon
	session.CombatsLost = st.Counters.CombatsLost
	session.ChargeUsed = st.Counters.ChargeUsed
	session.EventsTriggered = st.Counters.EventsTriggered
	session.EventsResolved = st.Counters.EventsResolved
	session.EventsFailed = st.Counters.EventsFailed
	session.StealthSuccesses = st.Counters.StealthSuccesses
	session.HacksCompleted = st.Counters.HacksCompleted
	session.SecretsFound = st.Counters.SecretsFound
	session.SessionDamage = st.Counters.SessionDamage
	return nil
}

// writeSquad copies resolver participant state onto the model rows.
func writeSquad(st *engine.State, participants []model.MissionParticipant) {
	byID := make(map[string]*engine.Participant, len(st.Squad))
	for _, p := range st.Squad {
		byID[p.OperativeID] = p
	}

	for i := range participants {
		p := byID[participants[i].OperativeID]
		if p == nil {
			continue
		}
		participants[i].CurrentCharge = p.Charge
		participants[i].DamageDealt = p.DamageDealt
		participants[i].DamageTaken = p.DamageTaken
		participants[i].XPEarned = p.XP
		participants[i].ActionsPerformed = p.Actions
		participants[i].RestsUsed = p.Rests
		participants[i].Status = uint8(p.Status)
	}
}

// settleTimeObjectives decides time-budget objectives against the play
// clock. They only resolve at extraction time, so estimates and payouts
// agree with each other.
func settleTimeObjectives(st *engine.State, session *model.MissionSession, nowTick int64) {
	elapsed := nowTick - session.RevealedTick
	for i := range st.Objectives.Objectives {
		o := &st.Objectives.Objectives[i]
		if o.Type == engine.ObjectiveTime && !o.Completed && elapsed <= int64(o.Target) {
			o.Advance(o.Target)
		}
	}
}

func (svc *MissionService) rewardInput(session *model.MissionSession, variant *model.MissionVariant, st *engine.State, participants []model.MissionParticipant, nowTick int64) (engine.RewardInput, error) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.OperativeID
	}
	operatives, err := svc.sqlSvc.Roster().GetOperatives(ids)
	if err != nil {
		return engine.RewardInput{}, err
	}

	streak := 1
	profile, err := svc.sqlSvc.Profiles().GetProfile(session.UserID)
	if err == nil {
		streak = profile.ProjectedStreak(nowTick / 86400)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.RewardInput{}, err
	}

	return engine.RewardInput{
		BaseReward:              variant.BaseReward,
		DifficultyMultiplierBps: variant.DifficultyMultiplierBps,
		Objectives:              st.Objectives,
		Participants:            len(participants),
		SharedColony:            sharedColony(operatives),
		Streak:                  streak,
		NowTick:                 nowTick,
		CombatsLost:             st.Counters.CombatsLost,
		EventsFailed:            st.Counters.EventsFailed,
		TicksUsed:               nowTick - session.RevealedTick,
		MaxDurationTicks:        variant.MaxDurationTicks,
		DiscoveryBonus:          st.DiscoveryBonus,
	}, nil
}

func sharedColony(operatives []model.Operative) bool {
	if len(operatives) == 0 {
		return false
	}

	var colony string
	for i := range operatives {
		if operatives[i].ColonyID == nil {
			return false
		}
		if i == 0 {
			colony = *operatives[i].ColonyID
		} else if *operatives[i].ColonyID != colony {
			return false
		}
	}
	return true
}

func (svc *MissionService) operativeNames(participants []model.MissionParticipant) (map[string]string, error) {
	if len(participants) == 0 {
		return map[string]string{}, nil
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.OperativeID
	}
	operatives, err := svc.sqlSvc.Roster().GetOperatives(ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(operatives))
	for i := range operatives {
		names[operatives[i].ID] = operatives[i].Name
	}
	return names, nil
}

func mapParams(variant *model.MissionVariant) engine.MapParams {
	return engine.MapParams{
		Size:           variant.MapSize,
		MinCombatNodes: variant.MinCombatNodes,
		LootChance:     variant.LootNodeChance,
		TerminalChance: variant.TerminalNodeChance,
		SecretChance:   variant.SecretNodeChance,
		EventChance:    variant.EventNodeChance,
	}
}

func resolveParams(variant *model.MissionVariant) engine.ResolveParams {
	return engine.ResolveParams{
		EventFrequency: variant.EventFrequency,
		MaxEvents:      variant.MaxEvents,
		MaxRests:       variant.MaxRests,
		RestRestore:    variant.RestRestoreAmt,
	}
}

func rewardParams(cfg *model.GameConfig) engine.RewardParams {
	return engine.RewardParams{
		PerExtraParticipantBps: cfg.PerExtraParticipantBps,
		ColonyBonusBps:         cfg.ColonyBonusBps,
		StreakBonusPerDayBps:   cfg.StreakBonusPerDayBps,
		MaxStreakBonusBps:      cfg.MaxStreakBonusBps,
		WeekendBonus:           cfg.WeekendBonus,
		PerfectCompletionBps:   cfg.PerfectCompletionBps,
		DiscoveryBonusBps:      cfg.DiscoveryBonusBps,
	}
}

func parseActions(reqs []dto.MissionActionRequest) ([]engine.Action, error) {
	actions := make([]engine.Action, len(reqs))
	for i, req := range reqs {
		actionType, err := engine.ParseActionType(req.Type)
		if err != nil {
			return nil, shared.NewBadRequestError(err, "Invalid action type")
		}
		style, err := engine.ParseCombatStyle(req.Style)
		if err != nil {
			return nil, shared.NewBadRequestError(err, "Invalid combat style")
		}
		actions[i] = engine.Action{
			Type:        actionType,
			OperativeID: req.OperativeID,
			Target:      req.Target,
			Style:       style,
		}
	}
	return actions, nil
}

func phaseMessage(phase engine.Phase) string {
	switch phase {
	case engine.PhaseCommitted:
		return "Mission not yet revealed"
	case engine.PhaseEventPending:
		return "Resolve the pending event first"
	case engine.PhaseReadyToComplete:
		return "Mission is ready to extract"
	default:
		return "Session already settled"
	}
}

// ==================== VIEWS ====================

func toSessionResponse(session *model.MissionSession, participants []model.MissionParticipant, names map[string]string) *dto.MissionSessionResponse {
	phase := engine.Phase(session.Phase)

	resp := &dto.MissionSessionResponse{
		SessionID:           session.ID,
		UserID:              session.UserID,
		VariantID:           session.VariantID,
		PassCollectionID:    session.PassCollectionID,
		PassTokenID:         session.PassTokenID,
		Phase:               phase.String(),
		CurrentNode:         session.CurrentNode,
		StartTick:           session.StartTick,
		RevealAvailableTick: session.RevealAvailableTick,
		RevealedTick:        session.RevealedTick,
		DeadlineTick:        session.DeadlineTick,
		LastActionTick:      session.LastActionTick,
		EndedTick:           session.EndedTick,
		DiscoveryBonus:      session.DiscoveryBonus,
		RewardPaid:          session.RewardPaid,
		FailReason:          session.FailReason,
		Participants:        make([]dto.ParticipantResponse, 0, len(participants)),
		Counters: dto.MissionCountersResponse{
			TotalActions:     session.TotalActions,
			CombatsWon:       session.CombatsWon,
			CombatsLost:      session.CombatsLost,
			ChargeUsed:       session.ChargeUsed,
			EventsTriggered:  session.EventsTriggered,
			EventsResolved:   session.EventsResolved,
			EventsFailed:     session.EventsFailed,
			StealthSuccesses: session.StealthSuccesses,
			HacksCompleted:   session.HacksCompleted,
			SecretsFound:     session.SecretsFound,
			SessionDamage:    session.SessionDamage,
		},
	}

	if phase == engine.PhaseEventPending {
		resp.PendingEvent = toPendingEventResponse(session)
	}

	for _, p := range participants {
		resp.Participants = append(resp.Participants, dto.ParticipantResponse{
			OperativeID:      p.OperativeID,
			Name:             names[p.OperativeID],
			InitialCharge:    p.InitialCharge,
			CurrentCharge:    p.CurrentCharge,
			DamageDealt:      p.DamageDealt,
			DamageTaken:      p.DamageTaken,
			XPEarned:         p.XPEarned,
			ActionsPerformed: p.ActionsPerformed,
			RestsUsed:        p.RestsUsed,
			Status:           engine.ParticipantStatus(p.Status).String(),
		})
	}

	return resp
}

func toPendingEventResponse(session *model.MissionSession) *dto.PendingEventResponse {
	return &dto.PendingEventResponse{
		EventID:      session.PendingEventID,
		Type:         engine.EventTypeOf(session.PendingEventID).String(),
		DeadlineTick: session.EventDeadlineTick,
		Responses:    eventResponseNames(),
	}
}

func eventResponseNames() []string {
	return []string{
		engine.ResponseFight.String(),
		engine.ResponseHide.String(),
		engine.ResponseFlee.String(),
		engine.ResponseAccept.String(),
		engine.ResponseDecline.String(),
	}
}

// toMapResponse masks undiscovered nodes down to id and links, so the
// client cannot scout the corridor ahead of play.
func toMapResponse(sessionID string, currentNode uint8, nodes []engine.MapNode) dto.MissionMapResponse {
	responses := make([]dto.MapNodeResponse, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		responses[i] = dto.MapNodeResponse{
			ID:         n.ID,
			Type:       "unknown",
			Discovered: n.Discovered,
			Links:      n.Links,
		}
		if n.Discovered {
			responses[i].Type = n.Type.String()
			responses[i].Difficulty = n.Difficulty
			responses[i].Completed = n.Completed
			responses[i].HasLoot = n.HasLoot
			responses[i].HasEnemy = n.HasEnemy
		}
	}

	return dto.MissionMapResponse{
		SessionID:   sessionID,
		CurrentNode: currentNode,
		Nodes:       responses,
	}
}

func toObjectiveResponses(objectives []engine.Objective) []dto.ObjectiveResponse {
	responses := make([]dto.ObjectiveResponse, len(objectives))
	for i, o := range objectives {
		responses[i] = dto.ObjectiveResponse{
			ID:        o.ID,
			Type:      o.Type.String(),
			Target:    o.Target,
			Progress:  o.Progress,
			Required:  o.Required,
			Completed: o.Completed,
			BonusBps:  o.BonusBps,
		}
	}
	return responses
}

func toActionResultResponses(results []engine.ActionResult) []dto.ActionResultResponse {
	responses := make([]dto.ActionResultResponse, len(results))
	for i, res := range results {
		responses[i] = dto.ActionResultResponse{
			Action:         res.Action.String(),
			OperativeID:    res.OperativeID,
			Success:        res.Success,
			ChargeSpent:    res.ChargeSpent,
			Restored:       res.Restored,
			Detail:         res.Detail,
			EventTriggered: res.EventID != 0,
		}
		if res.Loot != nil {
			responses[i].Loot = &dto.LootResponse{
				Salvage:   res.Loot.Salvage,
				Crystal:   res.Loot.Crystal,
				Component: res.Loot.Component,
			}
		}
	}
	return responses
}

func toBreakdownResponse(reward engine.RewardBreakdown) dto.RewardBreakdownResponse {
	return dto.RewardBreakdownResponse{
		Base:             reward.Base,
		ObjectiveBonus:   reward.ObjectiveBonus,
		ParticipantBonus: reward.ParticipantBonus,
		ColonyBonus:      reward.ColonyBonus,
		StreakBonus:      reward.StreakBonus,
		WeekendBonus:     reward.WeekendBonus,
		DiscoveryBonus:   reward.DiscoveryBonus,
		Rating:           reward.Rating,
		Perfect:          reward.Perfect,
		PerfectBonus:     reward.PerfectBonus,
		Total:            reward.Total,
	}
}

func toVariantResponse(variant *model.MissionVariant) dto.VariantResponse {
	return dto.VariantResponse{
		ID:               variant.ID,
		Name:             variant.Name,
		Description:      variant.Description,
		MinSquadSize:     variant.MinSquadSize,
		MaxSquadSize:     variant.MaxSquadSize,
		MapSize:          variant.MapSize,
		BaseReward:       variant.BaseReward,
		EntryFee:         variant.EntryFee,
		MaxDurationTicks: variant.MaxDurationTicks,
		EventFrequency:   variant.EventFrequency,
		MaxEvents:        variant.MaxEvents,
		MaxRests:         variant.MaxRests,
		ObjectiveMode:    variant.ObjectiveMode,
	}
}
