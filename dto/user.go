package dto

import "time"

// ==================== ADMIN USER MANAGEMENT DTOs ====================

type AdminUserListResponse struct {
	Users []AdminUserInfo `json:"users"`
	Total int             `json:"total" example:"100"`
	Page  int             `json:"page" example:"1"`
	Limit int             `json:"limit" example:"20"`
}

type AdminUserInfo struct {
	ID          string     `json:"id" example:"usr_123456789"`
	Username    string     `json:"username" example:"johndoe"`
	Email       string     `json:"email" example:"user@example.com"`
	Role        string     `json:"role" example:"user"`
	IsActive    bool       `json:"is_active" example:"true"`
	CreatedAt   time.Time  `json:"created_at" example:"2023-01-01T00:00:00Z"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" example:"2023-01-15T10:30:00Z"`
	LastLoginIP string     `json:"last_login_ip,omitempty" example:"192.168.1.1"`
}

type AdminUpdateUserRequest struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin" example:"admin"`
	IsActive *bool   `json:"is_active,omitempty" example:"true"`
}

func (a AdminUpdateUserRequest) Validate() error {
	return GetValidator().Struct(a)
}
