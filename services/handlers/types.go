package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest, ip string) (*dto.LoginResponse, error)
	Refresh(req dto.RefreshTokenRequest) (*dto.TokenPair, error)
	Logout(accessToken string, req dto.LogoutRequest) error
	Me(userID string) (*dto.UserInfo, error)
	RequiredAuth() fiber.Handler
	RequiredAdmin() fiber.Handler
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

type MissionServiceInterface interface {
	StartMission(userID string, req *dto.StartMissionRequest, nowTick int64) (*dto.StartMissionResponse, error)
	Reveal(userID, sessionID string, nowTick int64) (*dto.RevealMissionResponse, error)
	PerformActions(userID, sessionID string, req *dto.PerformActionsRequest, nowTick int64) (*dto.PerformActionsResponse, error)
	RespondEvent(userID, sessionID string, req *dto.EventResponseRequest, nowTick int64) (*dto.EventOutcomeResponse, error)
	Extract(userID, sessionID string, nowTick int64) (*dto.ExtractMissionResponse, error)
	Abandon(userID, sessionID string, nowTick int64) (*dto.AbandonMissionResponse, error)
	GetSession(userID, sessionID string, nowTick int64) (*dto.MissionSessionResponse, error)
	GetActive(userID string, nowTick int64) (*dto.MissionSessionResponse, error)
	GetHistory(userID string, limit int, nowTick int64) (*dto.MissionHistoryResponse, error)
	GetMap(userID, sessionID string, nowTick int64) (*dto.MissionMapResponse, error)
	GetObjectives(userID, sessionID string, nowTick int64) (*dto.MissionObjectivesResponse, error)
	EstimateReward(userID, sessionID string, nowTick int64) (*dto.RewardEstimateResponse, error)
	GetExtractEligibility(userID, sessionID string, nowTick int64) (*dto.ExtractEligibilityResponse, error)
	ListVariants() (*dto.VariantListResponse, error)
}

type PassServiceInterface interface {
	PassStatus(collectionID string, tokenID uint64, nowTick int64) (*dto.PassStatusResponse, error)
	ListPasses(userID string, nowTick int64) (*dto.PassListResponse, error)
	Recharge(userID string, req *dto.RechargePassRequest, nowTick int64) (*dto.RechargeResultResponse, error)
	RechargeInfo(collectionID string, tokenID uint64, nowTick int64) (*dto.RechargeInfoResponse, error)
	Delegate(ownerID string, req *dto.DelegatePassRequest, nowTick int64) (*dto.DelegateResultResponse, error)
	RevokeDelegation(ownerID, delegationID string, nowTick int64) (*dto.RevokeDelegationResponse, error)
}

type ProfileServiceInterface interface {
	GetProfile(userID string, nowTick int64) (*dto.ProfileResponse, error)
	GetLeaderboard(limit int) (*dto.LeaderboardResponse, error)
}

type RosterServiceInterface interface {
	GetRoster(userID string, nowTick int64) (*dto.RosterResponse, error)
	GetOperative(userID, operativeID string, nowTick int64) (*dto.OperativeResponse, error)
	SetActivated(userID, operativeID string, activated bool, nowTick int64) (*dto.OperativeResponse, error)
}

type WalletServiceInterface interface {
	GetWallet(userID string, limit, offset int) (*dto.WalletResponse, error)
	WithdrawEscrow(userID string) (*dto.WalletResponse, error)
}

type ResourceServiceInterface interface {
	GetResources(userID string, nowTick int64) ([]dto.ResourceResponse, error)
}

type UserServiceInterface interface {
	AdminListUsers(page, limit int, search string) (*dto.AdminUserListResponse, error)
	AdminUpdateUser(userID string, req dto.AdminUpdateUserRequest) (*dto.AdminUserInfo, error)
}

type VariantServiceInterface interface {
	ListVariantsAdmin() (*dto.AdminVariantListResponse, error)
	CreateVariant(req dto.CreateVariantRequest) (*dto.AdminVariantResponse, error)
	UpdateVariant(variantID string, req dto.UpdateVariantRequest) (*dto.AdminVariantResponse, error)
	AddObjectiveTemplate(variantID string, req dto.CreateObjectiveTemplateRequest) (*dto.ObjectiveTemplateResponse, error)
	ListObjectiveTemplates(variantID string) ([]dto.ObjectiveTemplateResponse, error)
	GetGameConfig() (*model.GameConfig, error)
	UpdateGameConfig(req dto.UpdateGameConfigRequest) (*model.GameConfig, error)
}
