package services

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/services/repositories"
	"github.com/driftgate-labs/sortie_api/shared"
)

// newTestStorage opens a private in-memory database migrated with the
// full schema. Limiting the pool to one connection keeps the in-memory
// database alive between queries and the tests isolated from each other.
func newTestStorage(t *testing.T) *PostgresService {
	t.Helper()

	db, err := gorm.Open(openDialector(DriverSqlite, ":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(storageModels()...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	svc := &PostgresService{
		db:       db,
		driver:   DriverSqlite,
		users:    repositories.NewUserRepository(db),
		missions: repositories.NewMissionRepository(db),
		passes:   repositories.NewPassRepository(db),
		roster:   repositories.NewRosterRepository(db),
		profiles: repositories.NewProfileRepository(db),
		variants: repositories.NewVariantRepository(db),
	}

	if err := svc.createDefaultGameConfig(); err != nil {
		t.Fatalf("seed game config: %v", err)
	}

	return svc
}

func createTestUser(t *testing.T, sql *PostgresService, id string) *model.User {
	t.Helper()

	user, err := sql.Users().CreateUser(&model.User{
		ID:       id,
		Username: id,
		Email:    id + "@test.local",
		Password: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return user
}

func fundTestWallet(t *testing.T, sql *PostgresService, userID string, balance int64) {
	t.Helper()

	if _, err := sql.Profiles().CreateWallet(&model.WalletAccount{
		UserID:  userID,
		Balance: balance,
	}); err != nil {
		t.Fatalf("fund wallet for %s: %v", userID, err)
	}
}

func testWalletBalance(t *testing.T, sql *PostgresService, userID string) *model.WalletAccount {
	t.Helper()

	wallet, err := sql.Profiles().GetWallet(userID)
	if err != nil {
		t.Fatalf("load wallet for %s: %v", userID, err)
	}
	return wallet
}

// wantStatus asserts err is an AppError carrying the given HTTP status.
func wantStatus(t *testing.T, err error, status int) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected status %d error, got nil", status)
	}
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.StatusCode != status {
		t.Fatalf("status = %d (%q), want %d", appErr.StatusCode, appErr.Message, status)
	}
}
