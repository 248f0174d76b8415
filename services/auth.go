package services

import (
	"errors"
	"fmt"
	"strings"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// AuthService owns account registration, credential checks and the Fiber
// middleware that guards authenticated routes.
type AuthService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	return nil
}

// ==================== REGISTRATION ====================

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := svc.sqlSvc.Users().GetUserByEmail(email); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("email taken"), "Email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to check email")
	}

	if _, err := svc.sqlSvc.Users().GetUserByUsername(req.Username); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("username taken"), "Username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	user := &model.User{
		Email:    email,
		Username: req.Username,
		Password: string(hash),
		Role:     model.RoleUser,
		IsActive: true,
	}

	// Profile and wallet rows are created alongside the account so the
	// mission and pass services never have to special-case new users.
	err = svc.sqlSvc.Transaction(func(r *Repos) error {
		if _, err := r.Users.CreateUser(user); err != nil {
			return err
		}

		if _, err := r.Profiles.CreateProfile(&model.UserProfile{
			UserID:         user.ID,
			LastMissionDay: -1,
		}); err != nil {
			return err
		}

		_, err := r.Profiles.CreateWallet(&model.WalletAccount{UserID: user.ID})
		return err
	})
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to create account")
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "Registration successful.",
	}, nil
}

// ==================== LOGIN / LOGOUT ====================

func (svc *AuthService) Login(req dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.Users().GetUserByEmailOrUsername(strings.ToLower(strings.TrimSpace(req.EmailOrUsername)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnauthorizedError(fmt.Errorf("unknown account"), "Invalid credentials")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to look up account")
	}

	if !user.IsActive {
		return nil, shared.NewForbiddenError(fmt.Errorf("account inactive"), "Account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(fmt.Errorf("bad password"), "Invalid credentials")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue tokens")
	}

	if err := svc.sqlSvc.Users().UpdateLastLogin(user.ID, ip); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return &dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         svc.toUserInfo(user),
	}, nil
}

func (svc *AuthService) Refresh(req dto.RefreshTokenRequest) (*dto.TokenPair, error) {
	userID, err := svc.jwtSvc.ConsumeRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid refresh token")
	}

	user, err := svc.sqlSvc.Users().GetUser(userID)
	if err != nil {
		return nil, shared.NewUnauthorizedError(err, "Account no longer exists")
	}
	if !user.IsActive {
		return nil, shared.NewForbiddenError(fmt.Errorf("account inactive"), "Account is deactivated")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue tokens")
	}

	return pair, nil
}

// Logout blacklists the presented access token and revokes the refresh
// token if the client sent one.
func (svc *AuthService) Logout(accessToken string, req dto.LogoutRequest) error {
	if err := svc.jwtSvc.InvalidateToken(accessToken); err != nil {
		return shared.NewInternalError(err, "Failed to revoke token")
	}

	if req.RefreshToken != "" {
		if err := svc.jwtSvc.RevokeRefreshToken(req.RefreshToken); err != nil {
			log.WithError(err).Warn("Failed to revoke refresh token")
		}
	}

	return nil
}

func (svc *AuthService) Me(userID string) (*dto.UserInfo, error) {
	user, err := svc.sqlSvc.Users().GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Account not found")
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load account")
	}

	info := svc.toUserInfo(user)
	return &info, nil
}

func (svc *AuthService) toUserInfo(user *model.User) dto.UserInfo {
	return dto.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// ==================== MIDDLEWARE ====================

func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil || userID == "" {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.AuthToken, token)
		return c.Next()
	}
}

// RequiredAdmin layers a role check over RequiredAuth. It must run after it.
func (svc *AuthService) RequiredAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(shared.UserID).(string)
		if userID == "" {
			return shared.ResponseUnauthorized(c)
		}

		user, err := svc.sqlSvc.Users().GetUser(userID)
		if err != nil || user.Role != model.RoleAdmin {
			return shared.ResponseForbidden(c)
		}

		return c.Next()
	}
}
