package repositories

import (
	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"gorm.io/gorm"
)

// ProfileRepository handles user profiles, wallets, the wallet ledger and
// resource stockpiles.
type ProfileRepository struct {
	BaseRepository
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{BaseRepository: ds.withDB(tx)}
}

// ==================== PROFILE METHODS ====================

func (ds *ProfileRepository) GetProfile(userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := ds.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (ds *ProfileRepository) CreateProfile(profile *model.UserProfile) (*model.UserProfile, error) {
	if profile.ID == "" {
		id, _ := uuid.NewV7()
		profile.ID = id.String()
	}
	if err := ds.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (ds *ProfileRepository) UpdateProfile(profile *model.UserProfile) error {
	if err := ds.db.Save(profile).Error; err != nil {
		return err
	}
	return nil
}

func (ds *ProfileRepository) GetTopProfiles(limit int) ([]model.UserProfile, error) {
	var profiles []model.UserProfile
	if err := ds.db.Order("lifetime_rewards DESC").Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (ds *ProfileRepository) CountProfiles() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.UserProfile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== WALLET METHODS ====================

func (ds *ProfileRepository) GetWallet(userID string) (*model.WalletAccount, error) {
	var wallet model.WalletAccount
	if err := ds.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (ds *ProfileRepository) CreateWallet(wallet *model.WalletAccount) (*model.WalletAccount, error) {
	if wallet.ID == "" {
		id, _ := uuid.NewV7()
		wallet.ID = id.String()
	}
	if err := ds.db.Create(wallet).Error; err != nil {
		return nil, err
	}
	return wallet, nil
}

func (ds *ProfileRepository) UpdateWallet(wallet *model.WalletAccount) error {
	if err := ds.db.Save(wallet).Error; err != nil {
		return err
	}
	return nil
}

func (ds *ProfileRepository) CreateWalletEntry(entry *model.WalletEntry) error {
	if entry.ID == "" {
		id, _ := uuid.NewV7()
		entry.ID = id.String()
	}
	if err := ds.db.Create(entry).Error; err != nil {
		return err
	}
	return nil
}

func (ds *ProfileRepository) GetWalletEntries(userID string, limit, offset int) ([]model.WalletEntry, int64, error) {
	var entries []model.WalletEntry
	var total int64

	if err := ds.db.Model(&model.WalletEntry{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := ds.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ==================== RESOURCE METHODS ====================

func (ds *ProfileRepository) GetResource(userID, resourceType string) (*model.UserResource, error) {
	var resource model.UserResource
	if err := ds.db.Where("user_id = ? AND resource_type = ?", userID, resourceType).
		First(&resource).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func (ds *ProfileRepository) CreateResource(resource *model.UserResource) (*model.UserResource, error) {
	if resource.ID == "" {
		id, _ := uuid.NewV7()
		resource.ID = id.String()
	}
	if err := ds.db.Create(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}

func (ds *ProfileRepository) UpdateResource(resource *model.UserResource) error {
	if err := ds.db.Save(resource).Error; err != nil {
		return err
	}
	return nil
}

func (ds *ProfileRepository) GetResources(userID string) ([]model.UserResource, error) {
	var resources []model.UserResource
	if err := ds.db.Where("user_id = ?", userID).
		Order("resource_type ASC").Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}
