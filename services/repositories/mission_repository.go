package repositories

import (
	"github.com/google/uuid"
	"github.com/driftgate-labs/sortie_api/model"
	"gorm.io/gorm"
)

// MissionRepository handles mission session persistence: the session row,
// its participants, the one-active-mission guard and operative locks.
type MissionRepository struct {
	BaseRepository
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *MissionRepository) WithTx(tx *gorm.DB) *MissionRepository {
	return &MissionRepository{BaseRepository: ds.withDB(tx)}
}

// ==================== SESSION METHODS ====================

func (ds *MissionRepository) CreateSession(session *model.MissionSession) (*model.MissionSession, error) {
	if session.ID == "" {
		id, _ := uuid.NewV7()
		session.ID = id.String()
	}
	if err := ds.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (ds *MissionRepository) GetSession(id string) (*model.MissionSession, error) {
	var session model.MissionSession
	if err := ds.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (ds *MissionRepository) UpdateSession(session *model.MissionSession) error {
	if err := ds.db.Save(session).Error; err != nil {
		return err
	}
	return nil
}

func (ds *MissionRepository) GetSessionsByUser(userID string, limit int) ([]model.MissionSession, error) {
	var sessions []model.MissionSession
	query := ds.db.Where("user_id = ?", userID).Order("start_tick DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ==================== ACTIVE MISSION GUARD ====================

func (ds *MissionRepository) GetActiveMission(userID string) (*model.ActiveMission, error) {
	var active model.ActiveMission
	if err := ds.db.Where("user_id = ?", userID).First(&active).Error; err != nil {
		return nil, err
	}
	return &active, nil
}

func (ds *MissionRepository) CreateActiveMission(active *model.ActiveMission) error {
	if err := ds.db.Create(active).Error; err != nil {
		return err
	}
	return nil
}

func (ds *MissionRepository) DeleteActiveMission(userID string) error {
	if err := ds.db.Where("user_id = ?", userID).Delete(&model.ActiveMission{}).Error; err != nil {
		return err
	}
	return nil
}

// ==================== PARTICIPANT METHODS ====================

func (ds *MissionRepository) CreateParticipants(participants []model.MissionParticipant) error {
	for i := range participants {
		if participants[i].ID == "" {
			id, _ := uuid.NewV7()
			participants[i].ID = id.String()
		}
	}
	if err := ds.db.Create(&participants).Error; err != nil {
		return err
	}
	return nil
}

func (ds *MissionRepository) GetParticipants(sessionID string) ([]model.MissionParticipant, error) {
	var participants []model.MissionParticipant
	if err := ds.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (ds *MissionRepository) UpdateParticipants(participants []model.MissionParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	if err := ds.db.Save(&participants).Error; err != nil {
		return err
	}
	return nil
}

// ==================== OPERATIVE LOCKS ====================

func (ds *MissionRepository) CreateOperativeLocks(locks []model.OperativeLock) error {
	if err := ds.db.Create(&locks).Error; err != nil {
		return err
	}
	return nil
}

func (ds *MissionRepository) GetLockedOperativeIDs(operativeIDs []string) ([]string, error) {
	var ids []string
	if err := ds.db.Model(&model.OperativeLock{}).
		Where("operative_id IN ?", operativeIDs).
		Pluck("operative_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ds *MissionRepository) DeleteOperativeLocks(sessionID string) error {
	if err := ds.db.Where("session_id = ?", sessionID).
		Delete(&model.OperativeLock{}).Error; err != nil {
		return err
	}
	return nil
}
