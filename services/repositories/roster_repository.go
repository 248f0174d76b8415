package repositories

import (
	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"gorm.io/gorm"
)

// RosterRepository handles operative records.
type RosterRepository struct {
	BaseRepository
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *RosterRepository) WithTx(tx *gorm.DB) *RosterRepository {
	return &RosterRepository{BaseRepository: ds.withDB(tx)}
}

func (ds *RosterRepository) GetOperative(id string) (*model.Operative, error) {
	var operative model.Operative
	if err := ds.db.Where("id = ?", id).First(&operative).Error; err != nil {
		return nil, err
	}
	return &operative, nil
}

func (ds *RosterRepository) GetOperatives(ids []string) ([]model.Operative, error) {
	var operatives []model.Operative
	if err := ds.db.Where("id IN ?", ids).Find(&operatives).Error; err != nil {
		return nil, err
	}
	return operatives, nil
}

func (ds *RosterRepository) GetOperativesByOwner(ownerID string) ([]model.Operative, error) {
	var operatives []model.Operative
	if err := ds.db.Where("owner_id = ?", ownerID).
		Order("created_at ASC").Find(&operatives).Error; err != nil {
		return nil, err
	}
	return operatives, nil
}

func (ds *RosterRepository) CreateOperative(operative *model.Operative) (*model.Operative, error) {
	if operative.ID == "" {
		id, _ := uuid.NewV7()
		operative.ID = id.String()
	}
	if err := ds.db.Create(operative).Error; err != nil {
		return nil, err
	}
	return operative, nil
}

func (ds *RosterRepository) UpdateOperative(operative *model.Operative) error {
	if err := ds.db.Save(operative).Error; err != nil {
		return err
	}
	return nil
}

func (ds *RosterRepository) UpdateOperatives(operatives []model.Operative) error {
	if len(operatives) == 0 {
		return nil
	}
	if err := ds.db.Save(&operatives).Error; err != nil {
		return err
	}
	return nil
}
