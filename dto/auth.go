package dto

import "time"

// ==================== AUTHENTICATION REQUEST DTOs ====================

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum" example:"johndoe"`
	Password string `json:"password" validate:"required,strong_password" example:"SecurePass123!"`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required,email_or_username" example:"user@example.com"`
	Password        string `json:"password" validate:"required" example:"SecurePass123!"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

func (r RefreshTokenRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"omitempty" example:"0198c6b2-7d3a-7c1e-b5f4-1a2b3c4d5e6f"`
}

func (l LogoutRequest) Validate() error {
	return GetValidator().Struct(l)
}

// ==================== AUTHENTICATION RESPONSE DTOs ====================

type RegisterResponse struct {
	UserID  string `json:"user_id" example:"usr_123456789"`
	Message string `json:"message" example:"Registration successful."`
}

type LoginResponse struct {
	AccessToken  string   `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string   `json:"refresh_token" example:"0198c6b2-7d3a-7c1e-b5f4-1a2b3c4d5e6f"`
	ExpiresIn    int64    `json:"expires_in" example:"86400"`
	User         UserInfo `json:"user"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn    int64  `json:"expires_in" example:"900"`
}

type UserInfo struct {
	ID          string     `json:"id" example:"usr_123456789"`
	Username    string     `json:"username" example:"johndoe"`
	Email       string     `json:"email" example:"user@example.com"`
	Role        string     `json:"role" example:"user"`
	CreatedAt   time.Time  `json:"created_at" example:"2023-01-01T00:00:00Z"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" example:"2023-01-15T10:30:00Z"`
}

// ==================== ERROR RESPONSE DTOs ====================

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Invalid request"`
	Error   string `json:"error,omitempty" example:"validation failed"`
}

type ValidationError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"invalid email format"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

// ==================== API RESPONSE WRAPPERS ====================

type SuccessResponse struct {
	Code    int         `json:"code" example:"200"`
	Message string      `json:"message" example:"Operation successful"`
	Data    interface{} `json:"data,omitempty"`
}

// ==================== SEARCH AND PAGINATION DTOs ====================

type PaginationRequest struct {
	Page  int `json:"page" form:"page" validate:"omitempty,min=1" example:"1"`
	Limit int `json:"limit" form:"limit" validate:"omitempty,min=1,max=100" example:"20"`
}

func (p PaginationRequest) Validate() error {
	return GetValidator().Struct(p)
}

type PaginationResponse struct {
	Page       int   `json:"page" example:"1"`
	Limit      int   `json:"limit" example:"20"`
	Total      int64 `json:"total" example:"100"`
	TotalPages int   `json:"total_pages" example:"5"`
	HasNext    bool  `json:"has_next" example:"true"`
	HasPrev    bool  `json:"has_prev" example:"false"`
}
