package seeders

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/model"
)

// VariantSeeder handles seeding mission variants and their objective
// templates
type VariantSeeder struct {
	db *gorm.DB
}

// NewVariantSeeder creates a new variant seeder
func NewVariantSeeder(db *gorm.DB) *VariantSeeder {
	return &VariantSeeder{db: db}
}

// SeedVariants seeds the database with the starter mission variants
func (s *VariantSeeder) SeedVariants() error {
	variants := s.getStarterVariants()

	for _, variant := range variants {
		var existing model.MissionVariant
		if err := s.db.Where("id = ?", variant.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&variant).Error; err != nil {
					log.Printf("Error creating variant %s: %v", variant.Name, err)
					return err
				}
				log.Printf("Created variant: %s", variant.Name)
			} else {
				log.Printf("Error checking variant %s: %v", variant.Name, err)
				return err
			}
		} else {
			log.Printf("Variant %s already exists, skipping", variant.Name)
		}
	}

	if err := s.seedObjectiveTemplates(); err != nil {
		return err
	}

	log.Println("Variant seeding completed successfully")
	return nil
}

func (s *VariantSeeder) seedObjectiveTemplates() error {
	templates := s.getDirectiveTemplates()

	for _, template := range templates {
		var existing model.ObjectiveTemplate
		if err := s.db.Where("id = ?", template.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&template).Error; err != nil {
					log.Printf("Error creating objective template %s: %v", template.ID, err)
					return err
				}
				log.Printf("Created objective template: %s", template.ID)
			} else {
				log.Printf("Error checking objective template %s: %v", template.ID, err)
				return err
			}
		} else {
			log.Printf("Objective template %s already exists, skipping", template.ID)
		}
	}

	return nil
}

// getStarterVariants returns one variant per difficulty tier plus one
// template-mode variant
func (s *VariantSeeder) getStarterVariants() []model.MissionVariant {
	now := time.Now()

	return []model.MissionVariant{
		{
			ID:          "training-grounds",
			Name:        "Training Grounds",
			Description: "A short supervised corridor for new operatives. No entry fee, gentle pacing, a single exit.",
			Enabled:     true,

			MinSquadSize: 1,
			MaxSquadSize: 2,

			MapSize:            4,
			MinCombatNodes:     0,
			LootNodeChance:     40,
			TerminalNodeChance: 20,
			SecretNodeChance:   0,
			EventNodeChance:    10,

			BaseReward:              250,
			DifficultyMultiplierBps: 10000,
			EntryFee:                0,

			MaxDurationTicks: 3600,
			EventFrequency:   1,
			MaxEvents:        1,
			MaxRests:         2,
			RestRestoreAmt:   25,
			MinChargePct:     0,

			ObjectiveMode: "legacy",

			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "standard-sweep",
			Name:        "Standard Sweep",
			Description: "A routine clearance contract. Moderate map, a couple of events, decent payout.",
			Enabled:     true,

			MinSquadSize: 1,
			MaxSquadSize: 3,

			MapSize:            8,
			MinCombatNodes:     1,
			LootNodeChance:     30,
			TerminalNodeChance: 20,
			SecretNodeChance:   10,
			EventNodeChance:    15,

			BaseReward:              500,
			DifficultyMultiplierBps: 10000,
			EntryFee:                50,

			MaxDurationTicks: 7200,
			EventFrequency:   3,
			MaxEvents:        3,
			MaxRests:         1,
			RestRestoreAmt:   20,
			MinChargePct:     20,

			ObjectiveMode: "legacy",

			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "deep-incursion",
			Name:        "Deep Incursion",
			Description: "A long push into contested territory. Heavy resistance, frequent events, premium payout.",
			Enabled:     true,

			MinSquadSize: 2,
			MaxSquadSize: 5,

			MapSize:            12,
			MinCombatNodes:     3,
			LootNodeChance:     25,
			TerminalNodeChance: 25,
			SecretNodeChance:   15,
			EventNodeChance:    25,

			BaseReward:              2000,
			DifficultyMultiplierBps: 15000,
			EntryFee:                250,

			MaxDurationTicks: 14400,
			EventFrequency:   5,
			MaxEvents:        5,
			MaxRests:         2,
			RestRestoreAmt:   20,
			MinChargePct:     40,

			ObjectiveMode: "legacy",

			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "directive-protocol",
			Name:        "Directive Protocol",
			Description: "Command assigns the objectives. Drawn from the weighted directive pool at reveal.",
			Enabled:     true,

			MinSquadSize: 1,
			MaxSquadSize: 4,

			MapSize:            10,
			MinCombatNodes:     2,
			LootNodeChance:     30,
			TerminalNodeChance: 25,
			SecretNodeChance:   10,
			EventNodeChance:    20,

			BaseReward:              1200,
			DifficultyMultiplierBps: 12500,
			EntryFee:                120,

			MaxDurationTicks: 10800,
			EventFrequency:   4,
			MaxEvents:        4,
			MaxRests:         2,
			RestRestoreAmt:   20,
			MinChargePct:     30,

			ObjectiveMode: "template",

			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// getDirectiveTemplates returns the weighted objective pool for the
// template-mode variant. Time objectives are never required.
func (s *VariantSeeder) getDirectiveTemplates() []model.ObjectiveTemplate {
	now := time.Now()
	variantID := "directive-protocol"

	return []model.ObjectiveTemplate{
		{
			ID:             "tpl_directive_defeat",
			VariantID:      variantID,
			ObjectiveType:  1, // defeat
			Weight:         3,
			TargetMin:      1,
			TargetMax:      4,
			Required:       true,
			BonusRewardBps: 0,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "tpl_directive_collect",
			VariantID:      variantID,
			ObjectiveType:  0, // collect
			Weight:         3,
			TargetMin:      2,
			TargetMax:      6,
			Required:       false,
			BonusRewardBps: 400,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "tpl_directive_discover",
			VariantID:      variantID,
			ObjectiveType:  2, // discover
			Weight:         2,
			TargetMin:      3,
			TargetMax:      8,
			Required:       false,
			BonusRewardBps: 300,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "tpl_directive_hack",
			VariantID:      variantID,
			ObjectiveType:  4, // hack
			Weight:         2,
			TargetMin:      1,
			TargetMax:      3,
			Required:       false,
			BonusRewardBps: 500,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "tpl_directive_stealth",
			VariantID:      variantID,
			ObjectiveType:  5, // stealth
			Weight:         1,
			TargetMin:      1,
			TargetMax:      2,
			Required:       false,
			BonusRewardBps: 600,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "tpl_directive_time",
			VariantID:      variantID,
			ObjectiveType:  6, // time
			Weight:         1,
			TargetMin:      1,
			TargetMax:      1,
			Required:       false,
			BonusRewardBps: 800,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}
