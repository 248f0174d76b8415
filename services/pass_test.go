package services

import (
	"net/http"
	"testing"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
)

func newTestPassService(sql *PostgresService) *PassService {
	return &PassService{
		sqlSvc:        sql,
		walletSvc:     &WalletService{sqlSvc: sql},
		notifierSvc:   &NotifierService{},
		monitoringSvc: &MonitoringService{},
	}
}

func seedTestPass(t *testing.T, sql *PostgresService, collection *model.PassCollection, tokenID uint64, ownerID string) {
	t.Helper()

	if _, err := sql.Passes().CreateCollection(collection); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if _, err := sql.Passes().CreatePass(&model.Pass{
		CollectionID: collection.ID,
		TokenID:      tokenID,
		OwnerID:      ownerID,
	}); err != nil {
		t.Fatalf("create pass: %v", err)
	}
}

func consumePassUse(t *testing.T, svc *PassService, userID, collectionID string, tokenID uint64, nowTick int64) error {
	t.Helper()

	grant, err := svc.Authorize(userID, collectionID, tokenID, nowTick)
	if err != nil {
		return err
	}
	return svc.sqlSvc.Transaction(func(r *Repos) error {
		return svc.ConsumeUseTx(r, grant)
	})
}

func TestPassUsageTriState(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 7, "owner")

	status, err := svc.PassStatus("drift-pass", 7, 100)
	if err != nil {
		t.Fatalf("PassStatus before first use: %v", err)
	}
	if status.Status != "uninitialized" || status.RemainingUses != 3 {
		t.Fatalf("fresh token = %s/%d remaining, want uninitialized/3", status.Status, status.RemainingUses)
	}

	steps := []struct {
		status    string
		remaining int
	}{
		{"active", 2},
		{"active", 1},
		{"exhausted", 0},
	}
	for i, want := range steps {
		if err := consumePassUse(t, svc, "owner", "drift-pass", 7, 100); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}

		status, err := svc.PassStatus("drift-pass", 7, 100)
		if err != nil {
			t.Fatalf("PassStatus after consume %d: %v", i+1, err)
		}
		if status.Status != want.status || status.RemainingUses != want.remaining {
			t.Fatalf("after consume %d = %s/%d remaining, want %s/%d",
				i+1, status.Status, status.RemainingUses, want.status, want.remaining)
		}
		if status.TotalUses != i+1 {
			t.Fatalf("total uses = %d, want %d", status.TotalUses, i+1)
		}
	}

	wantStatus(t, consumePassUse(t, svc, "owner", "drift-pass", 7, 100), http.StatusForbidden)
}

func TestPassAuthorize(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	createTestUser(t, sql, "stranger")
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 1, "owner")

	grant, err := svc.Authorize("owner", "drift-pass", 1, 100)
	if err != nil {
		t.Fatalf("owner on own pass: %v", err)
	}
	if grant.Delegated() {
		t.Fatal("owner grant should not be delegated")
	}

	wantStatus(t, mustErr(svc.Authorize("stranger", "drift-pass", 1, 100)), http.StatusForbidden)
	wantStatus(t, mustErr(svc.Authorize("owner", "missing", 1, 100)), http.StatusNotFound)
	wantStatus(t, mustErr(svc.Authorize("owner", "drift-pass", 99, 100)), http.StatusNotFound)

	if _, err := sql.Passes().CreateDelegation(&model.PassDelegation{
		CollectionID: "drift-pass",
		TokenID:      1,
		OwnerID:      "owner",
		DelegateeID:  "borrower",
		ExpiryTick:   2000,
		UseCap:       1,
	}); err != nil {
		t.Fatalf("create delegation: %v", err)
	}

	// While the delegation is live the owner is locked out and the
	// delegatee is let in.
	wantStatus(t, mustErr(svc.Authorize("owner", "drift-pass", 1, 1000)), http.StatusForbidden)
	grant, err = svc.Authorize("borrower", "drift-pass", 1, 1000)
	if err != nil {
		t.Fatalf("delegatee during delegation: %v", err)
	}
	if !grant.Delegated() {
		t.Fatal("delegatee grant should carry the delegation")
	}

	// Expiry flips access back without any mutation.
	if _, err := svc.Authorize("owner", "drift-pass", 1, 2000); err != nil {
		t.Fatalf("owner after expiry: %v", err)
	}
	wantStatus(t, mustErr(svc.Authorize("borrower", "drift-pass", 1, 2000)), http.StatusForbidden)

	// Spending the capped use ends the delegation early.
	if err := consumePassUse(t, svc, "borrower", "drift-pass", 1, 1000); err != nil {
		t.Fatalf("delegatee consume: %v", err)
	}
	wantStatus(t, mustErr(svc.Authorize("borrower", "drift-pass", 1, 1500)), http.StatusForbidden)
	if _, err := svc.Authorize("owner", "drift-pass", 1, 1500); err != nil {
		t.Fatalf("owner after cap spent: %v", err)
	}
}

func TestPassRecharge(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "stranger")
	fundTestWallet(t, sql, "owner", 1000)
	seedTestPass(t, sql, &model.PassCollection{
		ID:                    "drift-pass",
		Name:                  "Drift Pass",
		MaxUsesPerToken:       3,
		RechargeEnabled:       true,
		PricePerUse:           50,
		RechargeCooldownTicks: 100,
		MaxUsesPerRecharge:    5,
		RechargeDiscountBps:   1000,
	}, 7, "owner")

	req := &dto.RechargePassRequest{CollectionID: "drift-pass", TokenID: 7, Uses: 2}

	// Nothing to recharge before the first consumption.
	_, err := svc.Recharge("owner", req, 1000)
	wantStatus(t, err, http.StatusBadRequest)

	if err := consumePassUse(t, svc, "owner", "drift-pass", 7, 500); err != nil {
		t.Fatalf("consume: %v", err)
	}

	_, err = svc.Recharge("stranger", req, 1000)
	wantStatus(t, err, http.StatusForbidden)

	_, err = svc.Recharge("owner", &dto.RechargePassRequest{CollectionID: "drift-pass", TokenID: 7, Uses: 6}, 1000)
	wantStatus(t, err, http.StatusBadRequest)

	// 50 per use, 2 uses, 10% discount.
	result, err := svc.Recharge("owner", req, 1000)
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if result.Cost != 90 {
		t.Fatalf("cost = %d, want 90", result.Cost)
	}
	if result.RemainingUses != 4 {
		t.Fatalf("remaining = %d, want 4", result.RemainingUses)
	}
	if result.TotalRecharges != 1 {
		t.Fatalf("total recharges = %d, want 1", result.TotalRecharges)
	}
	if balance := testWalletBalance(t, sql, "owner").Balance; balance != 910 {
		t.Fatalf("owner balance = %d, want 910", balance)
	}

	_, err = svc.Recharge("owner", req, 1050)
	wantStatus(t, err, http.StatusConflict)

	if _, err := svc.Recharge("owner", req, 1100); err != nil {
		t.Fatalf("recharge after cooldown: %v", err)
	}

	info, err := svc.RechargeInfo("drift-pass", 7, 1150)
	if err != nil {
		t.Fatalf("RechargeInfo: %v", err)
	}
	if info.CostPerUse != 45 {
		t.Fatalf("cost per use = %d, want 45", info.CostPerUse)
	}
	if info.CooldownRemaining != 50 {
		t.Fatalf("cooldown remaining = %d, want 50", info.CooldownRemaining)
	}
}

func TestPassRechargeDisabledCollection(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	fundTestWallet(t, sql, "owner", 1000)
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "sealed-pass",
		Name:            "Sealed Pass",
		MaxUsesPerToken: 2,
	}, 1, "owner")

	if err := consumePassUse(t, svc, "owner", "sealed-pass", 1, 100); err != nil {
		t.Fatalf("consume: %v", err)
	}

	_, err := svc.Recharge("owner", &dto.RechargePassRequest{CollectionID: "sealed-pass", TokenID: 1, Uses: 1}, 1000)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestPassRechargeRevivesExhausted(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	fundTestWallet(t, sql, "owner", 100)
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "one-shot",
		Name:            "One Shot",
		MaxUsesPerToken: 1,
		RechargeEnabled: true,
		PricePerUse:     10,
	}, 1, "owner")

	// The single allotted use exhausts the token immediately.
	if err := consumePassUse(t, svc, "owner", "one-shot", 1, 100); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	wantStatus(t, consumePassUse(t, svc, "owner", "one-shot", 1, 100), http.StatusForbidden)

	result, err := svc.Recharge("owner", &dto.RechargePassRequest{CollectionID: "one-shot", TokenID: 1, Uses: 1}, 200)
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if result.RemainingUses != 1 {
		t.Fatalf("remaining = %d, want 1", result.RemainingUses)
	}

	status, err := svc.PassStatus("one-shot", 1, 200)
	if err != nil {
		t.Fatalf("PassStatus: %v", err)
	}
	if status.Status != "active" {
		t.Fatalf("status = %s, want active", status.Status)
	}

	if err := consumePassUse(t, svc, "owner", "one-shot", 1, 300); err != nil {
		t.Fatalf("consume after recharge: %v", err)
	}
}

func TestPassDelegate(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	createTestUser(t, sql, "stranger")
	fundTestWallet(t, sql, "owner", 500)
	fundTestWallet(t, sql, "borrower", 300)
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 7, "owner")

	req := &dto.DelegatePassRequest{
		CollectionID:    "drift-pass",
		TokenID:         7,
		DelegateeID:     "borrower",
		DurationTicks:   1000,
		UseCap:          2,
		FlatFee:         100,
		RevenueShareBps: 2000,
		Collateral:      40,
	}

	_, err := svc.Delegate("stranger", req, 0)
	wantStatus(t, err, http.StatusForbidden)

	_, err = svc.Delegate("owner", &dto.DelegatePassRequest{
		CollectionID: "drift-pass", TokenID: 7, DelegateeID: "owner", DurationTicks: 1000,
	}, 0)
	wantStatus(t, err, http.StatusBadRequest)

	result, err := svc.Delegate("owner", req, 0)
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if result.ExpiryTick != 1000 {
		t.Fatalf("expiry = %d, want 1000", result.ExpiryTick)
	}

	// Flat fee moved borrower to owner, collateral parked in the
	// borrower's escrow.
	owner := testWalletBalance(t, sql, "owner")
	borrower := testWalletBalance(t, sql, "borrower")
	if owner.Balance != 600 {
		t.Fatalf("owner balance = %d, want 600", owner.Balance)
	}
	if borrower.Balance != 160 {
		t.Fatalf("borrower balance = %d, want 160", borrower.Balance)
	}
	if borrower.EscrowBalance != 40 {
		t.Fatalf("borrower escrow = %d, want 40", borrower.EscrowBalance)
	}

	if _, err := svc.Authorize("borrower", "drift-pass", 7, 500); err != nil {
		t.Fatalf("borrower after delegate: %v", err)
	}

	_, err = svc.Delegate("owner", req, 500)
	wantStatus(t, err, http.StatusConflict)

	// A fresh delegation is fine once the first one has expired.
	if _, err := svc.Delegate("owner", req, 1000); err != nil {
		t.Fatalf("delegate after expiry: %v", err)
	}
}

func TestPassDelegateInsufficientFunds(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	fundTestWallet(t, sql, "borrower", 30)
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 7, "owner")

	_, err := svc.Delegate("owner", &dto.DelegatePassRequest{
		CollectionID:  "drift-pass",
		TokenID:       7,
		DelegateeID:   "borrower",
		DurationTicks: 1000,
		FlatFee:       100,
	}, 0)
	wantStatus(t, err, http.StatusPaymentRequired)

	// The failed transfer must not leave a partial delegation behind.
	if _, err := svc.Authorize("owner", "drift-pass", 7, 500); err != nil {
		t.Fatalf("owner after failed delegate: %v", err)
	}
	if balance := testWalletBalance(t, sql, "borrower").Balance; balance != 30 {
		t.Fatalf("borrower balance = %d, want 30", balance)
	}
}

func TestPassRevokeDelegation(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	fundTestWallet(t, sql, "owner", 500)
	fundTestWallet(t, sql, "borrower", 300)
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 7, "owner")

	result, err := svc.Delegate("owner", &dto.DelegatePassRequest{
		CollectionID:  "drift-pass",
		TokenID:       7,
		DelegateeID:   "borrower",
		DurationTicks: 1000,
		FlatFee:       100,
	}, 0)
	if err != nil {
		t.Fatalf("delegate: %v", err)
	}

	_, err = svc.RevokeDelegation("borrower", result.DelegationID, 100)
	wantStatus(t, err, http.StatusForbidden)

	if _, err := svc.RevokeDelegation("owner", result.DelegationID, 100); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Zero uses consumed, so the fee went back.
	if balance := testWalletBalance(t, sql, "owner").Balance; balance != 500 {
		t.Fatalf("owner balance = %d, want 500", balance)
	}
	if balance := testWalletBalance(t, sql, "borrower").Balance; balance != 300 {
		t.Fatalf("borrower balance = %d, want 300", balance)
	}

	wantStatus(t, mustErr(svc.Authorize("borrower", "drift-pass", 7, 100)), http.StatusForbidden)
	if _, err := svc.Authorize("owner", "drift-pass", 7, 100); err != nil {
		t.Fatalf("owner after revoke: %v", err)
	}

	_, err = svc.RevokeDelegation("owner", result.DelegationID, 200)
	wantStatus(t, err, http.StatusGone)
}

func TestPassListPasses(t *testing.T) {
	sql := newTestStorage(t)
	svc := newTestPassService(sql)

	createTestUser(t, sql, "owner")
	createTestUser(t, sql, "borrower")
	seedTestPass(t, sql, &model.PassCollection{
		ID:              "drift-pass",
		Name:            "Drift Pass",
		MaxUsesPerToken: 3,
	}, 1, "owner")
	if _, err := sql.Passes().CreatePass(&model.Pass{
		CollectionID: "drift-pass",
		TokenID:      2,
		OwnerID:      "owner",
	}); err != nil {
		t.Fatalf("create second pass: %v", err)
	}

	if _, err := sql.Passes().CreateDelegation(&model.PassDelegation{
		CollectionID: "drift-pass",
		TokenID:      2,
		OwnerID:      "owner",
		DelegateeID:  "borrower",
		ExpiryTick:   1000,
	}); err != nil {
		t.Fatalf("create delegation: %v", err)
	}

	owned, err := svc.ListPasses("owner", 500)
	if err != nil {
		t.Fatalf("ListPasses owner: %v", err)
	}
	if len(owned.Owned) != 2 || len(owned.Borrowed) != 0 {
		t.Fatalf("owner sees %d owned / %d borrowed, want 2/0", len(owned.Owned), len(owned.Borrowed))
	}

	borrowed, err := svc.ListPasses("borrower", 500)
	if err != nil {
		t.Fatalf("ListPasses borrower: %v", err)
	}
	if len(borrowed.Owned) != 0 || len(borrowed.Borrowed) != 1 {
		t.Fatalf("borrower sees %d owned / %d borrowed, want 0/1", len(borrowed.Owned), len(borrowed.Borrowed))
	}
	if borrowed.Borrowed[0].Delegation == nil || borrowed.Borrowed[0].Delegation.DelegateeID != "borrower" {
		t.Fatal("borrowed pass should carry its delegation view")
	}

	// Past expiry the borrowed list empties out.
	borrowed, err = svc.ListPasses("borrower", 1000)
	if err != nil {
		t.Fatalf("ListPasses borrower after expiry: %v", err)
	}
	if len(borrowed.Borrowed) != 0 {
		t.Fatalf("borrower sees %d borrowed after expiry, want 0", len(borrowed.Borrowed))
	}
}

// mustErr drops the value so error-only assertions read cleanly.
func mustErr[T any](_ T, err error) error {
	return err
}
