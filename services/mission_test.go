package services

import (
	"net/http"
	"testing"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/services/engine"
	"github.com/driftgate-labs/sortie_api/shared"
)

func newTestMissionService(sql *PostgresService) *MissionService {
	return &MissionService{
		sqlSvc:        sql,
		passSvc:       newTestPassService(sql),
		walletSvc:     &WalletService{sqlSvc: sql},
		rosterSvc:     &RosterService{sqlSvc: sql},
		resourceSvc:   &ResourceService{sqlSvc: sql},
		profileSvc:    &ProfileService{sqlSvc: sql, redisSvc: &RedisService{}},
		notifierSvc:   &NotifierService{},
		archiveSvc:    &ArchiveService{},
		monitoringSvc: &MonitoringService{},
		locks:         newSessionLocks(),
	}
}

func seedTestOperative(t *testing.T, sql *PostgresService, id, ownerID string, charge int) {
	t.Helper()

	if _, err := sql.Roster().CreateOperative(&model.Operative{
		ID:           id,
		OwnerID:      ownerID,
		CollectionID: "drift-ops",
		Name:         id,
		Class:        "scout",
		Activated:    true,
		MaxCharge:    100,
		Charge:       charge,
	}); err != nil {
		t.Fatalf("create operative %s: %v", id, err)
	}
}

func seedTestVariant(t *testing.T, sql *PostgresService, variant *model.MissionVariant) {
	t.Helper()

	if _, err := sql.Variants().CreateVariant(variant); err != nil {
		t.Fatalf("create variant %s: %v", variant.ID, err)
	}
}

// lootRunVariant: every interior node carries loot, no enemies, no
// events. The legacy generator derives a required collect goal from it.
func lootRunVariant(id string) *model.MissionVariant {
	return &model.MissionVariant{
		ID:                      id,
		Name:                    id,
		Enabled:                 true,
		MinSquadSize:            1,
		MaxSquadSize:            3,
		MapSize:                 4,
		LootNodeChance:          100,
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		EntryFee:                50,
		MaxDurationTicks:        3600,
		MaxRests:                1,
		RestRestoreAmt:          10,
		ObjectiveMode:           shared.ObjectiveModeLegacy,
	}
}

// surveyRunVariant: empty interior with authored objectives, so every
// generated value in the payout is predictable: discover two nodes to
// finish, a time budget worth 1000 bps on the side.
func surveyRunVariant(t *testing.T, sql *PostgresService, id string) *model.MissionVariant {
	t.Helper()

	variant := &model.MissionVariant{
		ID:                      id,
		Name:                    id,
		Enabled:                 true,
		MinSquadSize:            1,
		MaxSquadSize:            3,
		MapSize:                 4,
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		EntryFee:                50,
		MaxDurationTicks:        3600,
		MaxRests:                1,
		RestRestoreAmt:          10,
		ObjectiveMode:           shared.ObjectiveModeTemplate,
	}
	seedTestVariant(t, sql, variant)

	templates := []model.ObjectiveTemplate{
		{VariantID: id, ObjectiveType: uint8(engine.ObjectiveDiscover), Weight: 1, TargetMin: 2, TargetMax: 2, Required: true},
		{VariantID: id, ObjectiveType: uint8(engine.ObjectiveTime), Weight: 1, TargetMin: 600, TargetMax: 600, BonusRewardBps: 1000},
	}
	for i := range templates {
		if _, err := sql.Variants().CreateObjectiveTemplate(&templates[i]); err != nil {
			t.Fatalf("create objective template: %v", err)
		}
	}
	return variant
}

// ambushRunVariant: both interior nodes are event nodes but the quota
// allows a single trigger, so the first move always raises the one event.
func ambushRunVariant(id string) *model.MissionVariant {
	return &model.MissionVariant{
		ID:                      id,
		Name:                    id,
		Enabled:                 true,
		MinSquadSize:            1,
		MaxSquadSize:            3,
		MapSize:                 4,
		EventNodeChance:         100,
		MaxEvents:               1,
		BaseReward:              1000,
		DifficultyMultiplierBps: 10000,
		EntryFee:                50,
		MaxDurationTicks:        3600,
		MaxRests:                1,
		RestRestoreAmt:          10,
		ObjectiveMode:           shared.ObjectiveModeLegacy,
	}
}

func startTestMission(t *testing.T, svc *MissionService, userID, variantID string, operativeIDs []string, nowTick int64) *dto.StartMissionResponse {
	t.Helper()

	resp, err := svc.StartMission(userID, &dto.StartMissionRequest{
		VariantID:        variantID,
		PassCollectionID: "drift-pass",
		PassTokenID:      7,
		OperativeIDs:     operativeIDs,
	}, nowTick)
	if err != nil {
		t.Fatalf("start mission: %v", err)
	}
	return resp
}

func moveActions(targets ...uint8) *dto.PerformActionsRequest {
	req := &dto.PerformActionsRequest{}
	for _, target := range targets {
		req.Actions = append(req.Actions, dto.MissionActionRequest{
			Type:        "move",
			OperativeID: "op-1",
			Target:      target,
		})
	}
	return req
}

func TestMissionLifecycle(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	started := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)
	if started.Phase != "committed" {
		t.Fatalf("phase = %s, want committed", started.Phase)
	}
	if started.RevealAvailableTick != 1003 || started.RevealDeadlineTick != 1259 {
		t.Fatalf("reveal window = [%d,%d], want [1003,1259]", started.RevealAvailableTick, started.RevealDeadlineTick)
	}
	if started.DeadlineTick != 4600 {
		t.Fatalf("deadline = %d, want 4600", started.DeadlineTick)
	}
	if started.EntryFeePaid != 50 || started.PassUsesRemaining != 2 {
		t.Fatalf("fee/uses = %d/%d, want 50/2", started.EntryFeePaid, started.PassUsesRemaining)
	}
	if balance := testWalletBalance(t, sql, "runner").Balance; balance != 450 {
		t.Fatalf("balance after entry fee = %d, want 450", balance)
	}

	_, err := svc.StartMission("runner", &dto.StartMissionRequest{
		VariantID: "survey-run", PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
	}, 1001)
	wantStatus(t, err, http.StatusConflict)

	_, err = svc.Reveal("runner", started.SessionID, 1002)
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.PerformActions("runner", started.SessionID, moveActions(1), 1002)
	wantStatus(t, err, http.StatusConflict)

	revealed, err := svc.Reveal("runner", started.SessionID, 1010)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if revealed.Phase != "active" {
		t.Fatalf("phase = %s, want active", revealed.Phase)
	}
	if revealed.DeadlineTick != 4610 {
		t.Fatalf("deadline after reveal = %d, want 4610", revealed.DeadlineTick)
	}
	if len(revealed.Map.Nodes) != 4 {
		t.Fatalf("map has %d nodes, want 4", len(revealed.Map.Nodes))
	}
	if len(revealed.Objectives) != 2 {
		t.Fatalf("objectives = %d, want 2", len(revealed.Objectives))
	}

	_, err = svc.Reveal("runner", started.SessionID, 1011)
	wantStatus(t, err, http.StatusConflict)

	_, err = svc.Extract("runner", started.SessionID, 1015)
	wantStatus(t, err, http.StatusConflict)

	acted, err := svc.PerformActions("runner", started.SessionID, moveActions(1, 2), 1020)
	if err != nil {
		t.Fatalf("perform actions: %v", err)
	}
	if len(acted.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(acted.Results))
	}
	for i, res := range acted.Results {
		if !res.Success {
			t.Fatalf("action %d failed: %s", i, res.Detail)
		}
	}
	if !acted.ReadyToComplete || acted.Phase != "ready_to_complete" {
		t.Fatalf("phase = %s ready=%v, want ready_to_complete", acted.Phase, acted.ReadyToComplete)
	}

	estimate, err := svc.EstimateReward("runner", started.SessionID, 1025)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !estimate.Eligible {
		t.Fatal("estimate should be eligible once required objectives are done")
	}
	// 1000 base + 100 time bonus + 10 streak, perfect adds 200 on top.
	if estimate.Breakdown.Total != 1310 {
		t.Fatalf("estimated total = %d, want 1310", estimate.Breakdown.Total)
	}

	extracted, err := svc.Extract("runner", started.SessionID, 1030)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if extracted.Phase != "completed" {
		t.Fatalf("phase = %s, want completed", extracted.Phase)
	}
	if !extracted.Reward.Perfect || extracted.Reward.Rating != 100 {
		t.Fatalf("rating = %d perfect=%v, want 100/true", extracted.Reward.Rating, extracted.Reward.Perfect)
	}
	if extracted.Reward.ObjectiveBonus != 100 || extracted.Reward.StreakBonus != 10 || extracted.Reward.PerfectBonus != 200 {
		t.Fatalf("bonus stack = %d/%d/%d, want 100/10/200",
			extracted.Reward.ObjectiveBonus, extracted.Reward.StreakBonus, extracted.Reward.PerfectBonus)
	}
	if extracted.Reward.Total != 1310 || extracted.PaidToCaller != 1310 || extracted.LenderShare != 0 {
		t.Fatalf("payout = %d/%d/%d, want 1310/1310/0",
			extracted.Reward.Total, extracted.PaidToCaller, extracted.LenderShare)
	}
	if extracted.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", extracted.CurrentStreak)
	}
	if balance := testWalletBalance(t, sql, "runner").Balance; balance != 1760 {
		t.Fatalf("balance after payout = %d, want 1760", balance)
	}

	profile, err := sql.Profiles().GetProfile("runner")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.MissionsCompleted != 1 || profile.PerfectMissions != 1 {
		t.Fatalf("completions = %d/%d perfect, want 1/1", profile.MissionsCompleted, profile.PerfectMissions)
	}
	if profile.LifetimeRewards != 1310 {
		t.Fatalf("lifetime rewards = %d, want 1310", profile.LifetimeRewards)
	}

	_, err = svc.GetActive("runner", 1031)
	wantStatus(t, err, http.StatusNotFound)

	_, err = svc.Extract("runner", started.SessionID, 1032)
	wantStatus(t, err, http.StatusConflict)
}

func TestMissionStartInsufficientFunds(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 20)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	_, err := svc.StartMission("runner", &dto.StartMissionRequest{
		VariantID: "loot-run", PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
	}, 1000)
	wantStatus(t, err, http.StatusPaymentRequired)

	// The rejected fee must roll the whole deployment back, pass use
	// included.
	status, err := svc.passSvc.PassStatus("drift-pass", 7, 1001)
	if err != nil {
		t.Fatalf("pass status: %v", err)
	}
	if status.Status != "uninitialized" || status.RemainingUses != 3 {
		t.Fatalf("pass = %s/%d, want uninitialized/3", status.Status, status.RemainingUses)
	}
	_, err = svc.GetActive("runner", 1001)
	wantStatus(t, err, http.StatusNotFound)
}

func TestMissionRevealWindowExpiry(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1000)

	// Window closes at reveal available + 256.
	_, err := svc.Reveal("runner", started.SessionID, 1300)
	wantStatus(t, err, http.StatusConflict)

	session, err := svc.GetSession("runner", started.SessionID, 1301)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Phase != "expired" || session.FailReason != shared.FailReasonExpired {
		t.Fatalf("session = %s/%s, want expired/expired", session.Phase, session.FailReason)
	}

	profile, err := sql.Profiles().GetProfile("runner")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.MissionsExpired != 1 {
		t.Fatalf("expired count = %d, want 1", profile.MissionsExpired)
	}

	_, err = svc.GetActive("runner", 1302)
	wantStatus(t, err, http.StatusNotFound)

	// Squad and pass free up again once the cooldown passes.
	restarted := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1400)
	if restarted.PassUsesRemaining != 1 {
		t.Fatalf("pass uses = %d, want 1", restarted.PassUsesRemaining)
	}
}

func TestMissionDeadlineExpiry(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	started := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	_, err := svc.PerformActions("runner", started.SessionID, moveActions(1), 5000)
	wantStatus(t, err, http.StatusConflict)

	// Abandoning after the lapse reports the expiry instead of failing.
	abandoned, err := svc.Abandon("runner", started.SessionID, 5001)
	if err != nil {
		t.Fatalf("abandon after expiry: %v", err)
	}
	if abandoned.Phase != "expired" {
		t.Fatalf("phase = %s, want expired", abandoned.Phase)
	}

	profile, err := sql.Profiles().GetProfile("runner")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.MissionsExpired != 1 || profile.MissionsFailed != 0 {
		t.Fatalf("expired/failed = %d/%d, want 1/0", profile.MissionsExpired, profile.MissionsFailed)
	}
}

func TestMissionAbandonResetsStreak(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 5}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	started := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := svc.PerformActions("runner", started.SessionID, moveActions(1, 2), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}
	extracted, err := svc.Extract("runner", started.SessionID, 1030)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if extracted.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", extracted.CurrentStreak)
	}

	second := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1200)
	abandoned, err := svc.Abandon("runner", second.SessionID, 1250)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Phase != "failed" {
		t.Fatalf("phase = %s, want failed", abandoned.Phase)
	}

	profile, err := sql.Profiles().GetProfile("runner")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.CurrentStreak != 0 {
		t.Fatalf("streak after abandon = %d, want 0", profile.CurrentStreak)
	}
	if profile.MissionsFailed != 1 {
		t.Fatalf("failed count = %d, want 1", profile.MissionsFailed)
	}

	_, err = svc.Abandon("runner", second.SessionID, 1251)
	wantStatus(t, err, http.StatusConflict)

	_, err = svc.GetActive("runner", 1252)
	wantStatus(t, err, http.StatusNotFound)
}

func TestMissionCooldown(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 5}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1000)
	if _, err := svc.Abandon("runner", started.SessionID, 1030); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	req := &dto.StartMissionRequest{
		VariantID: "loot-run", PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
	}

	_, err := svc.StartMission("runner", req, 1050)
	wantStatus(t, err, http.StatusTooManyRequests)
	_, err = svc.StartMission("runner", req, 1089)
	wantStatus(t, err, http.StatusTooManyRequests)

	// Cooldown is 60 ticks from the last mission end.
	if _, err := svc.StartMission("runner", req, 1090); err != nil {
		t.Fatalf("start after cooldown: %v", err)
	}
}

func TestMissionEventFlow(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, ambushRunVariant("ambush-run"))

	started := startTestMission(t, svc, "runner", "ambush-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	_, err := svc.RespondEvent("runner", started.SessionID, &dto.EventResponseRequest{Response: "hide"}, 1015)
	wantStatus(t, err, http.StatusConflict)

	// Stepping onto the event node cuts the batch short.
	acted, err := svc.PerformActions("runner", started.SessionID, moveActions(1, 2), 1020)
	if err != nil {
		t.Fatalf("perform actions: %v", err)
	}
	if len(acted.Results) != 1 {
		t.Fatalf("results = %d, want the batch stopped at 1", len(acted.Results))
	}
	if !acted.Results[0].EventTriggered {
		t.Fatal("first move should have triggered the node event")
	}
	if acted.Phase != "event_pending" || acted.PendingEvent == nil {
		t.Fatalf("phase = %s, want event_pending with a pending event view", acted.Phase)
	}
	if acted.PendingEvent.DeadlineTick != 1140 {
		t.Fatalf("event deadline = %d, want 1140", acted.PendingEvent.DeadlineTick)
	}
	if len(acted.PendingEvent.Responses) != 5 {
		t.Fatalf("responses = %d, want 5", len(acted.PendingEvent.Responses))
	}

	_, err = svc.PerformActions("runner", started.SessionID, moveActions(2), 1030)
	wantStatus(t, err, http.StatusConflict)

	_, err = svc.RespondEvent("runner", started.SessionID, &dto.EventResponseRequest{Response: "charge"}, 1030)
	wantStatus(t, err, http.StatusBadRequest)

	outcome, err := svc.RespondEvent("runner", started.SessionID, &dto.EventResponseRequest{Response: "hide"}, 1050)
	if err != nil {
		t.Fatalf("respond event: %v", err)
	}
	if outcome.Phase != "active" {
		t.Fatalf("phase = %s, want active", outcome.Phase)
	}
	if outcome.Response != "hide" {
		t.Fatalf("response = %s, want hide", outcome.Response)
	}

	_, err = svc.RespondEvent("runner", started.SessionID, &dto.EventResponseRequest{Response: "hide"}, 1060)
	wantStatus(t, err, http.StatusConflict)

	// Second event node stays quiet: the per-mission quota is spent.
	acted, err = svc.PerformActions("runner", started.SessionID, moveActions(2), 1070)
	if err != nil {
		t.Fatalf("perform actions after event: %v", err)
	}
	if !acted.ReadyToComplete {
		t.Fatalf("phase = %s, want ready_to_complete", acted.Phase)
	}

	extracted, err := svc.Extract("runner", started.SessionID, 1080)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if extracted.Reward.Total <= 0 {
		t.Fatalf("total = %d, want positive", extracted.Reward.Total)
	}

	session, err := svc.GetSession("runner", started.SessionID, 1090)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Counters.EventsTriggered != 1 {
		t.Fatalf("events triggered = %d, want 1", session.Counters.EventsTriggered)
	}
	if session.Counters.EventsResolved+session.Counters.EventsFailed != 1 {
		t.Fatalf("resolved+failed = %d/%d, want exactly one settled event",
			session.Counters.EventsResolved, session.Counters.EventsFailed)
	}
}

func TestMissionEventResponseWindow(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, ambushRunVariant("ambush-run"))

	started := startTestMission(t, svc, "runner", "ambush-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := svc.PerformActions("runner", started.SessionID, moveActions(1), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}

	// Event deadline is 1020+120; a late answer is refused but the
	// session survives until its hard deadline.
	_, err := svc.RespondEvent("runner", started.SessionID, &dto.EventResponseRequest{Response: "hide"}, 1200)
	wantStatus(t, err, http.StatusConflict)

	abandoned, err := svc.Abandon("runner", started.SessionID, 1210)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Phase != "failed" {
		t.Fatalf("phase = %s, want failed", abandoned.Phase)
	}
}

func TestMissionDelegatedExtractSplit(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	fundTestWallet(t, sql, "borrower", 500)
	seedTestOperative(t, sql, "op-1", "borrower", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "owner")
	surveyRunVariant(t, sql, "survey-run")

	if _, err := sql.Passes().CreateDelegation(&model.PassDelegation{
		CollectionID:    "drift-pass",
		TokenID:         7,
		OwnerID:         "owner",
		DelegateeID:     "borrower",
		ExpiryTick:      100000,
		RevenueShareBps: 2000,
	}); err != nil {
		t.Fatalf("create delegation: %v", err)
	}

	started := startTestMission(t, svc, "borrower", "survey-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("borrower", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := svc.PerformActions("borrower", started.SessionID, moveActions(1, 2), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}

	extracted, err := svc.Extract("borrower", started.SessionID, 1030)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	// 20% of the 1310 payout goes to the lender's escrow.
	if extracted.Reward.Total != 1310 {
		t.Fatalf("total = %d, want 1310", extracted.Reward.Total)
	}
	if extracted.LenderShare != 262 || extracted.PaidToCaller != 1048 {
		t.Fatalf("split = %d/%d, want 262/1048", extracted.LenderShare, extracted.PaidToCaller)
	}

	if balance := testWalletBalance(t, sql, "borrower").Balance; balance != 1498 {
		t.Fatalf("borrower balance = %d, want 1498", balance)
	}
	owner := testWalletBalance(t, sql, "owner")
	if owner.EscrowBalance != 262 {
		t.Fatalf("owner escrow = %d, want 262", owner.EscrowBalance)
	}
	if owner.Balance != 0 {
		t.Fatalf("owner balance = %d, want 0", owner.Balance)
	}
}

func TestMissionPassConsumption(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	wantRemaining := []int{2, 1, 0}
	tick := int64(1000)
	for i, want := range wantRemaining {
		started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, tick)
		if started.PassUsesRemaining != want {
			t.Fatalf("run %d pass uses = %d, want %d", i+1, started.PassUsesRemaining, want)
		}
		if _, err := svc.Abandon("runner", started.SessionID, tick+10); err != nil {
			t.Fatalf("abandon run %d: %v", i+1, err)
		}
		tick += 100
	}

	_, err := svc.StartMission("runner", &dto.StartMissionRequest{
		VariantID: "loot-run", PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
	}, tick)
	wantStatus(t, err, http.StatusForbidden)

	// Three entry fees left the wallet, none refunded.
	if balance := testWalletBalance(t, sql, "runner").Balance; balance != 350 {
		t.Fatalf("balance = %d, want 350", balance)
	}
}

func TestMissionMapMasking(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	createTestUser(t, sql, "other")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1000)

	_, err := svc.GetMap("runner", started.SessionID, 1005)
	wantStatus(t, err, http.StatusConflict)

	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	_, err = svc.GetSession("other", started.SessionID, 1011)
	wantStatus(t, err, http.StatusForbidden)

	m, err := svc.GetMap("runner", started.SessionID, 1012)
	if err != nil {
		t.Fatalf("get map: %v", err)
	}
	if m.Nodes[0].Type != "empty" || !m.Nodes[0].Discovered {
		t.Fatalf("entry = %s/%v, want discovered empty", m.Nodes[0].Type, m.Nodes[0].Discovered)
	}
	// Undiscovered nodes leak nothing beyond their position.
	if m.Nodes[1].Type != "unknown" || m.Nodes[1].HasLoot || m.Nodes[1].Difficulty != 0 {
		t.Fatalf("masked node shows %s loot=%v diff=%d", m.Nodes[1].Type, m.Nodes[1].HasLoot, m.Nodes[1].Difficulty)
	}
	if m.Nodes[1].Links == 0 {
		t.Fatal("masked node should keep its links")
	}

	if _, err := svc.PerformActions("runner", started.SessionID, moveActions(1), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}

	m, err = svc.GetMap("runner", started.SessionID, 1021)
	if err != nil {
		t.Fatalf("get map after move: %v", err)
	}
	if m.Nodes[1].Type != "loot" || !m.Nodes[1].HasLoot {
		t.Fatalf("discovered node = %s loot=%v, want loot/true", m.Nodes[1].Type, m.Nodes[1].HasLoot)
	}
	if m.Nodes[2].Type != "unknown" {
		t.Fatalf("node 2 = %s, want still unknown", m.Nodes[2].Type)
	}
	if m.CurrentNode != 1 {
		t.Fatalf("current node = %d, want 1", m.CurrentNode)
	}
}

func TestMissionLootAwardsResources(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	acted, err := svc.PerformActions("runner", started.SessionID, &dto.PerformActionsRequest{
		Actions: []dto.MissionActionRequest{
			{Type: "move", OperativeID: "op-1", Target: 1},
			{Type: "loot", OperativeID: "op-1"},
			{Type: "loot", OperativeID: "op-1"},
		},
	}, 1020)
	if err != nil {
		t.Fatalf("perform actions: %v", err)
	}
	if len(acted.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(acted.Results))
	}

	lootRes := acted.Results[1]
	if !lootRes.Success || lootRes.Loot == nil {
		t.Fatalf("loot result = %v/%v, want success with a grant", lootRes.Success, lootRes.Loot)
	}
	units := lootRes.Loot.Salvage + lootRes.Loot.Crystal
	if units < 1 || units > 3 {
		t.Fatalf("loot units = %d, want 1-3", units)
	}

	// A second sweep of the same node finds nothing.
	if acted.Results[2].Success {
		t.Fatal("looting an emptied node should succeed only once")
	}

	total := int64(0)
	for _, resType := range []string{shared.ResourceSalvage, shared.ResourceCrystal, shared.ResourceComponent} {
		resource, err := sql.Profiles().GetResource("runner", resType)
		if err != nil {
			continue
		}
		total += resource.Amount
	}
	if total != int64(units+lootRes.Loot.Component) {
		t.Fatalf("stockpiled = %d, want %d", total, units+lootRes.Loot.Component)
	}
}

func TestMissionSquadValidation(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	createTestUser(t, sql, "other")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestOperative(t, sql, "op-low", "runner", 30)
	seedTestOperative(t, sql, "op-theirs", "other", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 5}, 7, "runner")

	if _, err := sql.Roster().CreateOperative(&model.Operative{
		ID: "op-idle", OwnerID: "runner", CollectionID: "drift-ops", Name: "op-idle",
		MaxCharge: 100, Charge: 100,
	}); err != nil {
		t.Fatalf("create idle operative: %v", err)
	}

	variant := lootRunVariant("loot-run")
	variant.MinChargePct = 50
	seedTestVariant(t, sql, variant)

	start := func(ops ...string) error {
		_, err := svc.StartMission("runner", &dto.StartMissionRequest{
			VariantID: "loot-run", PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: ops,
		}, 1000)
		return err
	}

	wantStatus(t, start("op-1", "op-1"), http.StatusBadRequest)
	wantStatus(t, start("op-1", "op-missing"), http.StatusNotFound)
	wantStatus(t, start("op-theirs"), http.StatusForbidden)
	wantStatus(t, start("op-idle"), http.StatusBadRequest)
	wantStatus(t, start("op-low"), http.StatusBadRequest)
	wantStatus(t, start("op-1", "op-low", "op-idle", "op-theirs"), http.StatusBadRequest)

	if err := start("op-1"); err != nil {
		t.Fatalf("valid squad rejected: %v", err)
	}
}

func TestMissionVariantGates(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")

	disabled := lootRunVariant("closed-run")
	disabled.Enabled = false
	seedTestVariant(t, sql, disabled)
	seedTestVariant(t, sql, lootRunVariant("open-run"))

	req := func(variantID string) *dto.StartMissionRequest {
		return &dto.StartMissionRequest{
			VariantID: variantID, PassCollectionID: "drift-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
		}
	}

	_, err := svc.StartMission("runner", req("no-such-run"), 1000)
	wantStatus(t, err, http.StatusNotFound)
	_, err = svc.StartMission("runner", req("closed-run"), 1000)
	wantStatus(t, err, http.StatusBadRequest)

	variants, err := svc.ListVariants()
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants.Variants) != 1 || variants.Variants[0].ID != "open-run" {
		t.Fatalf("listed %d variants, want only open-run", len(variants.Variants))
	}
}

func TestMissionEligibilityGate(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{
		ID:                  "sealed-pass",
		Name:                "Sealed Pass",
		MaxUsesPerToken:     3,
		EligibleCollections: []byte(`["vault-ops"]`),
	}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	// op-1 belongs to drift-ops; the pass only admits vault-ops.
	_, err := svc.StartMission("runner", &dto.StartMissionRequest{
		VariantID: "loot-run", PassCollectionID: "sealed-pass", PassTokenID: 7, OperativeIDs: []string{"op-1"},
	}, 1000)
	wantStatus(t, err, http.StatusForbidden)

	status, err := svc.passSvc.PassStatus("sealed-pass", 7, 1001)
	if err != nil {
		t.Fatalf("pass status: %v", err)
	}
	if status.RemainingUses != 3 {
		t.Fatalf("pass uses = %d, want untouched 3", status.RemainingUses)
	}
}

func TestMissionHistory(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 5}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	first := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)
	if _, err := svc.Reveal("runner", first.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := svc.PerformActions("runner", first.SessionID, moveActions(1, 2), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}
	if _, err := svc.Extract("runner", first.SessionID, 1030); err != nil {
		t.Fatalf("extract: %v", err)
	}

	second := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1200)
	if _, err := svc.Abandon("runner", second.SessionID, 1210); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	history, err := svc.GetHistory("runner", 0, 1300)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Sessions) != 2 {
		t.Fatalf("history = %d sessions, want 2", len(history.Sessions))
	}
	if history.Sessions[0].SessionID != second.SessionID || history.Sessions[0].Phase != "failed" {
		t.Fatalf("newest = %s/%s, want the abandoned run first", history.Sessions[0].SessionID, history.Sessions[0].Phase)
	}
	if history.Sessions[1].SessionID != first.SessionID || history.Sessions[1].Phase != "completed" {
		t.Fatalf("oldest = %s/%s, want the completed run", history.Sessions[1].SessionID, history.Sessions[1].Phase)
	}
	if history.Sessions[1].RewardPaid != 1310 {
		t.Fatalf("recorded reward = %d, want 1310", history.Sessions[1].RewardPaid)
	}
}

// A committed session sitting in history past its reveal window settles
// the moment anything reads it.
func TestMissionHistorySettlesLapsedSessions(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	seedTestVariant(t, sql, lootRunVariant("loot-run"))

	started := startTestMission(t, svc, "runner", "loot-run", []string{"op-1"}, 1000)

	history, err := svc.GetHistory("runner", 10, 2000)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Sessions) != 1 {
		t.Fatalf("history = %d sessions, want 1", len(history.Sessions))
	}
	if history.Sessions[0].SessionID != started.SessionID || history.Sessions[0].Phase != "expired" {
		t.Fatalf("session = %s, want expired", history.Sessions[0].Phase)
	}
}

func TestMissionObjectivesView(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	started := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)

	_, err := svc.GetObjectives("runner", started.SessionID, 1005)
	wantStatus(t, err, http.StatusConflict)

	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	objectives, err := svc.GetObjectives("runner", started.SessionID, 1012)
	if err != nil {
		t.Fatalf("get objectives: %v", err)
	}
	if objectives.RequiredComplete {
		t.Fatal("required objectives should start incomplete")
	}
	var discover *dto.ObjectiveResponse
	for i := range objectives.Objectives {
		if objectives.Objectives[i].Type == "discover" {
			discover = &objectives.Objectives[i]
		}
	}
	if discover == nil || !discover.Required || discover.Target != 2 {
		t.Fatalf("discover objective = %+v, want required target 2", discover)
	}

	if _, err := svc.PerformActions("runner", started.SessionID, moveActions(1, 2), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}

	objectives, err = svc.GetObjectives("runner", started.SessionID, 1021)
	if err != nil {
		t.Fatalf("get objectives after moves: %v", err)
	}
	if !objectives.RequiredComplete {
		t.Fatal("discover objective should be complete after two moves")
	}
}

func TestMissionExtractEligibility(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestMissionService(sql)

	createTestUser(t, sql, "runner")
	fundTestWallet(t, sql, "runner", 500)
	seedTestOperative(t, sql, "op-1", "runner", 100)
	seedTestPass(t, sql, &model.PassCollection{ID: "drift-pass", Name: "Drift Pass", MaxUsesPerToken: 3}, 7, "runner")
	surveyRunVariant(t, sql, "survey-run")

	started := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 1000)

	eligibility, err := svc.GetExtractEligibility("runner", started.SessionID, 1005)
	if err != nil {
		t.Fatalf("eligibility while committed: %v", err)
	}
	if eligibility.Eligible || eligibility.Reason != "Mission not yet revealed" {
		t.Fatalf("committed eligibility = %v/%q, want blocked on reveal", eligibility.Eligible, eligibility.Reason)
	}

	if _, err := svc.Reveal("runner", started.SessionID, 1010); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	eligibility, err = svc.GetExtractEligibility("runner", started.SessionID, 1012)
	if err != nil {
		t.Fatalf("eligibility while active: %v", err)
	}
	if eligibility.Eligible || eligibility.Phase != "active" || eligibility.Reason != "Required objectives are not complete" {
		t.Fatalf("active eligibility = %v/%s/%q, want blocked on objectives",
			eligibility.Eligible, eligibility.Phase, eligibility.Reason)
	}

	createTestUser(t, sql, "other")
	_, err = svc.GetExtractEligibility("other", started.SessionID, 1013)
	wantStatus(t, err, http.StatusForbidden)

	if _, err := svc.PerformActions("runner", started.SessionID, moveActions(1, 2), 1020); err != nil {
		t.Fatalf("perform actions: %v", err)
	}

	eligibility, err = svc.GetExtractEligibility("runner", started.SessionID, 1021)
	if err != nil {
		t.Fatalf("eligibility when ready: %v", err)
	}
	if !eligibility.Eligible || eligibility.Phase != "ready_to_complete" || eligibility.Reason != "" {
		t.Fatalf("ready eligibility = %v/%s/%q, want eligible with no reason",
			eligibility.Eligible, eligibility.Phase, eligibility.Reason)
	}

	// The check is read-only: extracting afterwards still succeeds.
	if _, err := svc.Extract("runner", started.SessionID, 1030); err != nil {
		t.Fatalf("extract: %v", err)
	}

	eligibility, err = svc.GetExtractEligibility("runner", started.SessionID, 1031)
	if err != nil {
		t.Fatalf("eligibility after extract: %v", err)
	}
	if eligibility.Eligible || eligibility.Phase != "completed" || eligibility.Reason != "Session already settled" {
		t.Fatalf("settled eligibility = %v/%s/%q, want settled",
			eligibility.Eligible, eligibility.Phase, eligibility.Reason)
	}

	// A lapsed deadline settles the session and reports it.
	second := startTestMission(t, svc, "runner", "survey-run", []string{"op-1"}, 2000)
	if _, err := svc.Reveal("runner", second.SessionID, 2010); err != nil {
		t.Fatalf("reveal second: %v", err)
	}

	eligibility, err = svc.GetExtractEligibility("runner", second.SessionID, 9000)
	if err != nil {
		t.Fatalf("eligibility after deadline: %v", err)
	}
	if eligibility.Eligible || eligibility.Phase != "expired" || eligibility.Reason != "Mission deadline has passed" {
		t.Fatalf("expired eligibility = %v/%s/%q, want deadline lapse",
			eligibility.Eligible, eligibility.Phase, eligibility.Reason)
	}
}
