package seeders

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/model"
)

// RosterSeeder handles seeding demo accounts with operatives, wallets and
// passes for local development
type RosterSeeder struct {
	db *gorm.DB
}

// NewRosterSeeder creates a new roster seeder
func NewRosterSeeder(db *gorm.DB) *RosterSeeder {
	return &RosterSeeder{db: db}
}

// SeedDemoAccounts seeds two demo users with full loadouts
func (s *RosterSeeder) SeedDemoAccounts() error {
	if err := s.seedUsers(); err != nil {
		return err
	}
	if err := s.seedOperatives(); err != nil {
		return err
	}
	if err := s.seedPasses(); err != nil {
		return err
	}

	log.Println("Demo account seeding completed successfully")
	return nil
}

func (s *RosterSeeder) seedUsers() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("demo1234"), 12)
	if err != nil {
		return err
	}
	now := time.Now()

	users := []model.User{
		{
			ID:        "user_demo_alpha",
			Email:     "alpha@demo.driftgate.io",
			Username:  "demo_alpha",
			Password:  string(hashedPassword),
			Role:      model.RoleUser,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "user_demo_bravo",
			Email:     "bravo@demo.driftgate.io",
			Username:  "demo_bravo",
			Password:  string(hashedPassword),
			Role:      model.RoleUser,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	for _, user := range users {
		var existing model.User
		if err := s.db.Where("id = ?", user.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&user).Error; err != nil {
					log.Printf("Error creating demo user %s: %v", user.Username, err)
					return err
				}
				log.Printf("Created demo user: %s (password: demo1234)", user.Username)

				profile := model.UserProfile{
					ID:             "profile_" + user.ID,
					UserID:         user.ID,
					LastMissionDay: -1,
					CreatedAt:      now,
					UpdatedAt:      now,
				}
				if err := s.db.Create(&profile).Error; err != nil {
					log.Printf("Error creating profile for %s: %v", user.Username, err)
					return err
				}

				wallet := model.WalletAccount{
					ID:        "wallet_" + user.ID,
					UserID:    user.ID,
					Balance:   1000,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := s.db.Create(&wallet).Error; err != nil {
					log.Printf("Error creating wallet for %s: %v", user.Username, err)
					return err
				}
			} else {
				log.Printf("Error checking demo user %s: %v", user.Username, err)
				return err
			}
		} else {
			log.Printf("Demo user %s already exists, skipping", user.Username)
		}
	}

	return nil
}

func (s *RosterSeeder) seedOperatives() error {
	operatives := s.getDemoOperatives()

	for _, operative := range operatives {
		var existing model.Operative
		if err := s.db.Where("id = ?", operative.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&operative).Error; err != nil {
					log.Printf("Error creating operative %s: %v", operative.Name, err)
					return err
				}
				log.Printf("Created operative: %s (%s)", operative.Name, operative.Class)
			} else {
				log.Printf("Error checking operative %s: %v", operative.Name, err)
				return err
			}
		} else {
			log.Printf("Operative %s already exists, skipping", operative.Name)
		}
	}

	return nil
}

func (s *RosterSeeder) getDemoOperatives() []model.Operative {
	now := time.Now()
	nowTick := now.Unix()

	return []model.Operative{
		{
			ID:            "op_demo_alpha_vex",
			OwnerID:       "user_demo_alpha",
			CollectionID:  "vanguard",
			Name:          "Vex",
			Class:         "scout",
			Activated:     true,
			MaxCharge:     100,
			Charge:        100,
			LastRegenTick: nowTick,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "op_demo_alpha_korr",
			OwnerID:       "user_demo_alpha",
			CollectionID:  "standard",
			Name:          "Korr",
			Class:         "breacher",
			Activated:     true,
			MaxCharge:     100,
			Charge:        80,
			LastRegenTick: nowTick,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "op_demo_bravo_sable",
			OwnerID:       "user_demo_bravo",
			CollectionID:  "standard",
			Name:          "Sable",
			Class:         "medic",
			Activated:     true,
			MaxCharge:     100,
			Charge:        100,
			LastRegenTick: nowTick,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "op_demo_bravo_brick",
			OwnerID:       "user_demo_bravo",
			CollectionID:  "standard",
			Name:          "Brick",
			Class:         "heavy",
			Activated:     false,
			MaxCharge:     120,
			Charge:        120,
			LastRegenTick: nowTick,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (s *RosterSeeder) seedPasses() error {
	now := time.Now()

	passes := []model.Pass{
		{
			ID:           "pass_standard_1",
			CollectionID: "standard-access",
			TokenID:      1,
			OwnerID:      "user_demo_alpha",
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           "pass_standard_2",
			CollectionID: "standard-access",
			TokenID:      2,
			OwnerID:      "user_demo_bravo",
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           "pass_operator_1",
			CollectionID: "operator-permit",
			TokenID:      1,
			OwnerID:      "user_demo_alpha",
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, pass := range passes {
		var existing model.Pass
		if err := s.db.Where("id = ?", pass.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&pass).Error; err != nil {
					log.Printf("Error creating pass %s: %v", pass.ID, err)
					return err
				}
				log.Printf("Created pass: %s (token %d)", pass.ID, pass.TokenID)
			} else {
				log.Printf("Error checking pass %s: %v", pass.ID, err)
				return err
			}
		} else {
			log.Printf("Pass %s already exists, skipping", pass.ID)
		}
	}

	return nil
}
