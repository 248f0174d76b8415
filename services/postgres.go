package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/services/repositories"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string

	users    *repositories.UserRepository
	missions *repositories.MissionRepository
	passes   *repositories.PassRepository
	roster   *repositories.RosterRepository
	profiles *repositories.ProfileRepository
	variants *repositories.VariantRepository
}

// Repos bundles transaction-scoped repositories so a whole business
// operation can commit or roll back as one unit.
type Repos struct {
	Users    *repositories.UserRepository
	Missions *repositories.MissionRepository
	Passes   *repositories.PassRepository
	Roster   *repositories.RosterRepository
	Profiles *repositories.ProfileRepository
	Variants *repositories.VariantRepository
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Users() *repositories.UserRepository {
	return ds.users
}

func (ds *PostgresService) Missions() *repositories.MissionRepository {
	return ds.missions
}

func (ds *PostgresService) Passes() *repositories.PassRepository {
	return ds.passes
}

func (ds *PostgresService) Roster() *repositories.RosterRepository {
	return ds.roster
}

func (ds *PostgresService) Profiles() *repositories.ProfileRepository {
	return ds.profiles
}

func (ds *PostgresService) Variants() *repositories.VariantRepository {
	return ds.variants
}

// Transaction runs fn with repositories bound to a single database
// transaction.
func (ds *PostgresService) Transaction(fn func(r *Repos) error) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repos{
			Users:    ds.users.WithTx(tx),
			Missions: ds.missions.WithTx(tx),
			Passes:   ds.passes.WithTx(tx),
			Roster:   ds.roster.WithTx(tx),
			Profiles: ds.profiles.WithTx(tx),
			Variants: ds.variants.WithTx(tx),
		})
	})
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.driver = strings.ToLower(os.Getenv("DB_DRIVER"))
	if ds.driver == "" {
		ds.driver = DriverPostgres
	}
	ds.database = databaseDSN(ds.driver)

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(openDialector(ds.driver, ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			// Test the connection
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		// Exponential backoff with max delay of 10 seconds
		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	err = ds.db.AutoMigrate(storageModels()...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	ds.users = repositories.NewUserRepository(ds.db)
	ds.missions = repositories.NewMissionRepository(ds.db)
	ds.passes = repositories.NewPassRepository(ds.db)
	ds.roster = repositories.NewRosterRepository(ds.db)
	ds.profiles = repositories.NewProfileRepository(ds.db)
	ds.variants = repositories.NewVariantRepository(ds.db)

	err = ds.seedInitialData()
	if err != nil {
		log.Printf("Failed to seed initial data: %v", err)
		return err
	}

	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		for range ticker.C {
			err := ds.CleanupExpiredData()
			if err != nil {
				log.Printf("Failed to cleanup expired data: %v", err)
			}
		}
	}()

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// storageModels lists every table the service migrates, in dependency
// order.
func storageModels() []interface{} {
	return []interface{}{
		// Account models
		&model.User{},
		&model.RateLimit{},
		&model.RateLimitConfig{},

		// Mission models
		&model.MissionSession{},
		&model.MissionParticipant{},
		&model.ActiveMission{},
		&model.OperativeLock{},
		&model.MissionVariant{},
		&model.ObjectiveTemplate{},
		&model.GameConfig{},

		// Roster models
		&model.Operative{},

		// Pass models
		&model.PassCollection{},
		&model.Pass{},
		&model.PassUsage{},
		&model.PassDelegation{},

		// Economy models
		&model.UserProfile{},
		&model.WalletAccount{},
		&model.WalletEntry{},
		&model.UserResource{},
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		// Driver-specific error strings, postgres first then sqlite
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		} else if (strings.Contains(err.Error(), "relation") && strings.Contains(err.Error(), "does not exist")) ||
			strings.Contains(err.Error(), "no such table") {
			statusCode = http.StatusInternalServerError // 500
			errorType = "SCHEMA_ERROR"
		} else if strings.Contains(err.Error(), "connection refused") {
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		} else {
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// ==================== RATE LIMIT METHODS ====================

func (ds *PostgresService) GetRateLimit(identifier, endpointType string) (*model.RateLimit, error) {
	var rateLimit model.RateLimit

	err := ds.db.Where("identifier = ? AND endpoint_type = ?", identifier, endpointType).First(&rateLimit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rateLimit, nil
}

func (ds *PostgresService) SaveRateLimit(rateLimit *model.RateLimit) error {
	if rateLimit.ID == "" {
		id, _ := uuid.NewV7()
		rateLimit.ID = id.String()
	}

	now := time.Now()
	if rateLimit.CreatedAt.IsZero() {
		rateLimit.CreatedAt = now
	}
	rateLimit.UpdatedAt = now

	if err := ds.db.Save(rateLimit).Error; err != nil {
		return err
	}
	return nil
}

func (ds *PostgresService) UpdateRateLimit(rateLimit *model.RateLimit) error {
	err := ds.db.Model(rateLimit).Where("id = ?", rateLimit.ID).Updates(map[string]interface{}{
		"request_count": rateLimit.RequestCount,
		"blocked_until": rateLimit.BlockedUntil,
		"updated_at":    rateLimit.UpdatedAt,
	}).Error

	return err
}

// CleanupOldRecords removes rate limit rows older than 7 days that are not
// currently blocked.
func (ds *PostgresService) CleanupOldRecords() error {
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	now := time.Now()

	err := ds.db.Where("created_at < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, now).
		Delete(&model.RateLimit{}).Error

	return err
}

// GetRateLimitConfigs returns the persisted per-endpoint limit overrides.
func (ds *PostgresService) GetRateLimitConfigs() ([]model.RateLimitConfig, error) {
	var configs []model.RateLimitConfig
	if err := ds.db.Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// ==================== MAINTENANCE ====================

func (ds *PostgresService) CleanupExpiredData() error {
	if err := ds.CleanupOldRecords(); err != nil {
		log.Printf("Failed to cleanup rate limits: %v", err)
		return err
	}
	return nil
}

// ==================== SEED DATA ====================

func (ds *PostgresService) seedInitialData() error {
	err := ds.createDefaultAdmin()
	if err != nil {
		return err
	}

	err = ds.createDefaultGameConfig()
	if err != nil {
		return err
	}

	err = ds.createDefaultRateLimitConfigs()
	if err != nil {
		return err
	}

	return nil
}

// Create default admin user
func (ds *PostgresService) createDefaultAdmin() error {
	var count int64
	ds.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count)

	if count == 0 {
		// Hash default password (CHANGE THIS IN PRODUCTION!)
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 12)
		if err != nil {
			return err
		}

		admin := &model.User{
			ID:        "admin-" + time.Now().Format("20060102150405"),
			Username:  "admin",
			Email:     "admin@driftgate.io",
			Password:  string(hashedPassword),
			Role:      model.RoleAdmin,
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		err = ds.db.Create(admin).Error
		if err != nil {
			log.Printf("Failed to create admin user: %v", err)
			return err
		}

		log.Println("Default admin user created - Username: admin, Password: admin123 (CHANGE THIS!)")
	}

	return nil
}

// Create the singleton game config row with its default tunables if this
// is a fresh database.
func (ds *PostgresService) createDefaultGameConfig() error {
	var count int64
	ds.db.Model(&model.GameConfig{}).Where("id = ?", model.GameConfigID).Count(&count)
	if count > 0 {
		return nil
	}

	config := &model.GameConfig{
		ID:                     model.GameConfigID,
		RevealDelayTicks:       3,
		RevealWindowTicks:      256,
		EventResponseTicks:     120,
		CooldownTicks:          60,
		PerExtraParticipantBps: 500,
		ColonyBonusBps:         1000,
		StreakBonusPerDayBps:   100,
		MaxStreakBonusBps:      1000,
		WeekendBonus:           50,
		PerfectCompletionBps:   2000,
		DiscoveryBonusBps:      250,
		ChargeRegenPerDay:      25,
		ResourceDecayBps:       100,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}

	if err := ds.db.Create(config).Error; err != nil {
		log.Printf("Failed to create default game config: %v", err)
		return err
	}

	log.Println("Default game config created")
	return nil
}

func (ds *PostgresService) createDefaultRateLimitConfigs() error {
	configs := []model.RateLimitConfig{
		{
			ID:           "login-config",
			EndpointType: "login",
			Limit:        10,
			WindowSize:   900,  // 15 minutes
			BlockTime:    1800, // 30 minutes
		},
		{
			ID:           "register-config",
			EndpointType: "register",
			Limit:        5,
			WindowSize:   900,  // 15 minutes
			BlockTime:    3600, // 1 hour
		},
		{
			ID:           "refresh-config",
			EndpointType: "refresh",
			Limit:        20,
			WindowSize:   900, // 15 minutes
			BlockTime:    300, // 5 minutes
		},
		{
			ID:           "mission-start-config",
			EndpointType: "mission_start",
			Limit:        10,
			WindowSize:   3600, // 1 hour
			BlockTime:    1800, // 30 minutes
		},
		{
			ID:           "mission-reveal-config",
			EndpointType: "mission_reveal",
			Limit:        30,
			WindowSize:   3600, // 1 hour
			BlockTime:    600,  // 10 minutes
		},
		{
			ID:           "mission-action-config",
			EndpointType: "mission_action",
			Limit:        120,
			WindowSize:   3600, // 1 hour
			BlockTime:    600,  // 10 minutes
		},
		{
			ID:           "pass-recharge-config",
			EndpointType: "pass_recharge",
			Limit:        10,
			WindowSize:   3600, // 1 hour
			BlockTime:    1800, // 30 minutes
		},
		{
			ID:           "pass-delegate-config",
			EndpointType: "pass_delegate",
			Limit:        10,
			WindowSize:   3600, // 1 hour
			BlockTime:    3600, // 1 hour
		},
		{
			ID:           "api-general-config",
			EndpointType: "api_general",
			Limit:        1000,
			WindowSize:   3600, // 1 hour
			BlockTime:    3600, // 1 hour
		},
		{
			ID:           "api-strict-config",
			EndpointType: "api_strict",
			Limit:        100,
			WindowSize:   600,   // 10 minutes
			BlockTime:    86400, // 24 hours
		},
	}

	for _, config := range configs {
		var existing model.RateLimitConfig
		err := ds.db.Where("endpoint_type = ?", config.EndpointType).First(&existing).Error
		if err != nil {
			config.IsActive = true
			config.CreatedAt = time.Now()
			config.UpdatedAt = time.Now()
			err = ds.db.Create(&config).Error
			if err != nil {
				log.Printf("Failed to create rate limit config for %s: %v", config.EndpointType, err)
			}
		}
	}

	return nil
}
