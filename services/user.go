package services

import (
	"errors"
	"fmt"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// UserService is the admin surface for account management. Self-serve
// account flows live in AuthService.
type UserService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	return nil
}

// ==================== ADMIN USER MANAGEMENT ====================

func (svc *UserService) AdminListUsers(page, limit int, search string) (*dto.AdminUserListResponse, error) {
	users, total, err := svc.sqlSvc.Users().ListUsers(page, limit, search)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to list users")
	}

	userInfos := make([]dto.AdminUserInfo, len(users))
	for i := range users {
		userInfos[i] = mapUserToAdminInfo(&users[i])
	}

	return &dto.AdminUserListResponse{
		Users: userInfos,
		Total: int(total),
		Page:  page,
		Limit: limit,
	}, nil
}

func (svc *UserService) AdminUpdateUser(userID string, req dto.AdminUpdateUserRequest) (*dto.AdminUserInfo, error) {
	user, err := svc.sqlSvc.Users().GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load user")
	}

	if req.Role != nil {
		if *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
			return nil, shared.NewBadRequestError(fmt.Errorf("invalid role %q", *req.Role), "Invalid role specified")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := svc.sqlSvc.Users().UpdateUser(user); err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to update user")
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"role":      user.Role,
		"is_active": user.IsActive,
	}).Info("User updated by admin")

	info := mapUserToAdminInfo(user)
	return &info, nil
}

func mapUserToAdminInfo(user *model.User) dto.AdminUserInfo {
	return dto.AdminUserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
		LastLoginIP: user.LastLoginIP,
	}
}
