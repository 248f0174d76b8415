package seeders

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/model"
)

// CollectionSeeder handles seeding pass collections
type CollectionSeeder struct {
	db *gorm.DB
}

// NewCollectionSeeder creates a new collection seeder
func NewCollectionSeeder(db *gorm.DB) *CollectionSeeder {
	return &CollectionSeeder{db: db}
}

// SeedCollections seeds the database with the starter pass collections
func (s *CollectionSeeder) SeedCollections() error {
	collections := s.getStarterCollections()

	for _, collection := range collections {
		var existing model.PassCollection
		if err := s.db.Where("id = ?", collection.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&collection).Error; err != nil {
					log.Printf("Error creating pass collection %s: %v", collection.Name, err)
					return err
				}
				log.Printf("Created pass collection: %s", collection.Name)
			} else {
				log.Printf("Error checking pass collection %s: %v", collection.Name, err)
				return err
			}
		} else {
			log.Printf("Pass collection %s already exists, skipping", collection.Name)
		}
	}

	log.Println("Pass collection seeding completed successfully")
	return nil
}

// getStarterCollections returns one collection per access tier
func (s *CollectionSeeder) getStarterCollections() []model.PassCollection {
	now := time.Now()

	return []model.PassCollection{
		{
			ID:              "standard-access",
			Name:            "Standard Access",
			MaxUsesPerToken: 3,
			RechargeEnabled: false,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:                    "operator-permit",
			Name:                  "Operator Permit",
			MaxUsesPerToken:       5,
			RechargeEnabled:       true,
			PricePerUse:           100,
			RechargeCooldownTicks: 86400,
			MaxUsesPerRecharge:    10,
			RechargeDiscountBps:   1000,
			CreatedAt:             now,
			UpdatedAt:             now,
		},
		{
			ID:                    "founders-charter",
			Name:                  "Founders Charter",
			MaxUsesPerToken:       10,
			RechargeEnabled:       true,
			PricePerUse:           75,
			RechargeCooldownTicks: 43200,
			MaxUsesPerRecharge:    20,
			RechargeDiscountBps:   2500,
			EligibleCollections:   jsonArray([]string{"vanguard"}),
			CreatedAt:             now,
			UpdatedAt:             now,
		},
	}
}

// jsonArray marshals a string slice into a raw JSON column value
func jsonArray(items []string) json.RawMessage {
	data, _ := json.Marshal(items)
	return data
}
