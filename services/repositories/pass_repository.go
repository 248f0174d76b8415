package repositories

import (
	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"gorm.io/gorm"
)

// PassRepository handles pass collections, tokens, usage meters and
// delegations.
type PassRepository struct {
	BaseRepository
}

func NewPassRepository(db *gorm.DB) *PassRepository {
	return &PassRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *PassRepository) WithTx(tx *gorm.DB) *PassRepository {
	return &PassRepository{BaseRepository: ds.withDB(tx)}
}

// ==================== COLLECTION METHODS ====================

func (ds *PassRepository) GetCollection(id string) (*model.PassCollection, error) {
	var collection model.PassCollection
	if err := ds.db.Where("id = ?", id).First(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

func (ds *PassRepository) CreateCollection(collection *model.PassCollection) (*model.PassCollection, error) {
	if err := ds.db.Create(collection).Error; err != nil {
		return nil, err
	}
	return collection, nil
}

func (ds *PassRepository) ListCollections() ([]model.PassCollection, error) {
	var collections []model.PassCollection
	if err := ds.db.Order("id ASC").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// ==================== TOKEN METHODS ====================

func (ds *PassRepository) GetPass(collectionID string, tokenID uint64) (*model.Pass, error) {
	var pass model.Pass
	if err := ds.db.Where("collection_id = ? AND token_id = ?", collectionID, tokenID).
		First(&pass).Error; err != nil {
		return nil, err
	}
	return &pass, nil
}

func (ds *PassRepository) CreatePass(pass *model.Pass) (*model.Pass, error) {
	if pass.ID == "" {
		id, _ := uuid.NewV7()
		pass.ID = id.String()
	}
	if err := ds.db.Create(pass).Error; err != nil {
		return nil, err
	}
	return pass, nil
}

func (ds *PassRepository) GetPassesByOwner(ownerID string) ([]model.Pass, error) {
	var passes []model.Pass
	if err := ds.db.Where("owner_id = ?", ownerID).
		Order("collection_id ASC, token_id ASC").Find(&passes).Error; err != nil {
		return nil, err
	}
	return passes, nil
}

// ==================== USAGE METHODS ====================

// GetUsage returns gorm.ErrRecordNotFound for tokens that have never been
// used. Callers treat that as the uninitialized state, not a failure.
func (ds *PassRepository) GetUsage(collectionID string, tokenID uint64) (*model.PassUsage, error) {
	var usage model.PassUsage
	if err := ds.db.Where("collection_id = ? AND token_id = ?", collectionID, tokenID).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func (ds *PassRepository) CreateUsage(usage *model.PassUsage) (*model.PassUsage, error) {
	if usage.ID == "" {
		id, _ := uuid.NewV7()
		usage.ID = id.String()
	}
	if err := ds.db.Create(usage).Error; err != nil {
		return nil, err
	}
	return usage, nil
}

func (ds *PassRepository) UpdateUsage(usage *model.PassUsage) error {
	if err := ds.db.Save(usage).Error; err != nil {
		return err
	}
	return nil
}

// ==================== DELEGATION METHODS ====================

func (ds *PassRepository) CreateDelegation(delegation *model.PassDelegation) (*model.PassDelegation, error) {
	if delegation.ID == "" {
		id, _ := uuid.NewV7()
		delegation.ID = id.String()
	}
	if err := ds.db.Create(delegation).Error; err != nil {
		return nil, err
	}
	return delegation, nil
}

func (ds *PassRepository) GetDelegation(id string) (*model.PassDelegation, error) {
	var delegation model.PassDelegation
	if err := ds.db.Where("id = ?", id).First(&delegation).Error; err != nil {
		return nil, err
	}
	return &delegation, nil
}

// GetLatestDelegation returns the newest non-revoked delegation for a
// token. Whether it still grants access is the caller's call, via
// ActiveAt, since expiry is evaluated lazily.
func (ds *PassRepository) GetLatestDelegation(collectionID string, tokenID uint64) (*model.PassDelegation, error) {
	var delegation model.PassDelegation
	if err := ds.db.Where("collection_id = ? AND token_id = ? AND revoked = ?", collectionID, tokenID, false).
		Order("created_at DESC").First(&delegation).Error; err != nil {
		return nil, err
	}
	return &delegation, nil
}

func (ds *PassRepository) UpdateDelegation(delegation *model.PassDelegation) error {
	if err := ds.db.Save(delegation).Error; err != nil {
		return err
	}
	return nil
}

func (ds *PassRepository) GetDelegationsByDelegatee(delegateeID string) ([]model.PassDelegation, error) {
	var delegations []model.PassDelegation
	if err := ds.db.Where("delegatee_id = ? AND revoked = ?", delegateeID, false).
		Order("created_at DESC").Find(&delegations).Error; err != nil {
		return nil, err
	}
	return delegations, nil
}
