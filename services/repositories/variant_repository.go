package repositories

import (
	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"gorm.io/gorm"
)

// VariantRepository handles mission variants, their objective templates and
// the singleton game config row.
type VariantRepository struct {
	BaseRepository
}

func NewVariantRepository(db *gorm.DB) *VariantRepository {
	return &VariantRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *VariantRepository) WithTx(tx *gorm.DB) *VariantRepository {
	return &VariantRepository{BaseRepository: ds.withDB(tx)}
}

// ==================== VARIANT METHODS ====================

func (ds *VariantRepository) GetVariant(id string) (*model.MissionVariant, error) {
	var variant model.MissionVariant
	if err := ds.db.Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (ds *VariantRepository) ListVariants(enabledOnly bool) ([]model.MissionVariant, error) {
	var variants []model.MissionVariant
	query := ds.db.Order("base_reward ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (ds *VariantRepository) CreateVariant(variant *model.MissionVariant) (*model.MissionVariant, error) {
	if err := ds.db.Create(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

func (ds *VariantRepository) UpdateVariant(variant *model.MissionVariant) error {
	if err := ds.db.Save(variant).Error; err != nil {
		return err
	}
	return nil
}

// ==================== OBJECTIVE TEMPLATE METHODS ====================

func (ds *VariantRepository) GetObjectiveTemplates(variantID string) ([]model.ObjectiveTemplate, error) {
	var templates []model.ObjectiveTemplate
	if err := ds.db.Where("variant_id = ?", variantID).
		Order("created_at ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (ds *VariantRepository) CreateObjectiveTemplate(template *model.ObjectiveTemplate) (*model.ObjectiveTemplate, error) {
	if template.ID == "" {
		id, _ := uuid.NewV7()
		template.ID = id.String()
	}
	if err := ds.db.Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// ==================== GAME CONFIG ====================

func (ds *VariantRepository) GetGameConfig() (*model.GameConfig, error) {
	var config model.GameConfig
	if err := ds.db.Where("id = ?", model.GameConfigID).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (ds *VariantRepository) SaveGameConfig(config *model.GameConfig) error {
	config.ID = model.GameConfigID
	if err := ds.db.Save(config).Error; err != nil {
		return err
	}
	return nil
}
