package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// 1. Mission variants first (no dependencies)
	variantSeeder := NewVariantSeeder(s.db)
	if err := variantSeeder.SeedVariants(); err != nil {
		log.Printf("Variant seeding failed: %v", err)
		return err
	}

	// 2. Pass collections (no dependencies)
	collectionSeeder := NewCollectionSeeder(s.db)
	if err := collectionSeeder.SeedCollections(); err != nil {
		log.Printf("Collection seeding failed: %v", err)
		return err
	}

	// 3. Demo accounts last (passes reference collections)
	rosterSeeder := NewRosterSeeder(s.db)
	if err := rosterSeeder.SeedDemoAccounts(); err != nil {
		log.Printf("Demo account seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedVariantsOnly seeds only mission variants
func (s *MainSeeder) SeedVariantsOnly() error {
	variantSeeder := NewVariantSeeder(s.db)
	return variantSeeder.SeedVariants()
}

// SeedCollectionsOnly seeds only pass collections
func (s *MainSeeder) SeedCollectionsOnly() error {
	collectionSeeder := NewCollectionSeeder(s.db)
	return collectionSeeder.SeedCollections()
}

// SeedDemoOnly seeds only demo accounts
func (s *MainSeeder) SeedDemoOnly() error {
	rosterSeeder := NewRosterSeeder(s.db)
	return rosterSeeder.SeedDemoAccounts()
}
