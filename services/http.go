package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	docs "github.com/driftgate-labs/sortie_api/docs"
	"github.com/driftgate-labs/sortie_api/services/handlers"
	"github.com/driftgate-labs/sortie_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc       *AuthService
	jwtSvc        *JWTService
	missionSvc    *MissionService
	passSvc       *PassService
	profileSvc    *ProfileService
	walletSvc     *WalletService
	rosterSvc     *RosterService
	resourceSvc   *ResourceService
	userSvc       *UserService
	variantSvc    *VariantService
	rateLimitSvc  *RateLimitService
	monitoringSvc *MonitoringService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.authSvc = ctx.Service(AUTH_SVC).(*AuthService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	svc.missionSvc = ctx.Service(MISSION_SVC).(*MissionService)
	svc.passSvc = ctx.Service(PASS_SVC).(*PassService)
	svc.profileSvc = ctx.Service(PROFILE_SVC).(*ProfileService)
	svc.walletSvc = ctx.Service(WALLET_SVC).(*WalletService)
	svc.rosterSvc = ctx.Service(ROSTER_SVC).(*RosterService)
	svc.resourceSvc = ctx.Service(RESOURCE_SVC).(*ResourceService)
	svc.userSvc = ctx.Service(USER_SVC).(*UserService)
	svc.variantSvc = ctx.Service(VARIANT_SVC).(*VariantService)
	svc.rateLimitSvc = ctx.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc = ctx.Service(MONITORING_SVC).(*MonitoringService)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		ErrorHandler: svc.handleError,
	})
	svc.app = app

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(svc.monitoringSvc))
	app.Use(svc.rateLimitSvc.IPRateLimit())

	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.jwtSvc)
	missionHandler := handlers.NewMissionHandler(svc.missionSvc)
	passHandler := handlers.NewPassHandler(svc.passSvc)
	profileHandler := handlers.NewProfileHandler(svc.profileSvc, svc.walletSvc, svc.rosterSvc, svc.resourceSvc)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.profileSvc)
	adminHandler := handlers.NewAdminHandler(svc.userSvc, svc.variantSvc)

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/register", svc.rateLimitSvc.RateLimit("register", 5, "15m"), authHandler.Register)
	v1.Post("/login", svc.rateLimitSvc.RateLimit("login", 10, "15m"), authHandler.Login)
	v1.Post("/refresh", svc.rateLimitSvc.RateLimit("refresh", 20, "15m"), authHandler.Refresh)

	v1.Get("/variants", missionHandler.ListVariants)
	v1.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	authed := v1.Group("", svc.authSvc.RequiredAuth())

	authed.Get("/me", authHandler.Me)
	authed.Post("/logout", authHandler.Logout)

	missions := authed.Group("/missions")
	missions.Post("/start", svc.rateLimitSvc.UserBasedRateLimit("mission_start"), missionHandler.Start)
	missions.Get("/active", missionHandler.GetActive)
	missions.Get("/history", missionHandler.GetHistory)
	missions.Post("/:sessionId/reveal", svc.rateLimitSvc.UserBasedRateLimit("mission_reveal"), missionHandler.Reveal)
	missions.Post("/:sessionId/actions", svc.rateLimitSvc.UserBasedRateLimit("mission_action"), missionHandler.PerformActions)
	missions.Post("/:sessionId/event", svc.rateLimitSvc.UserBasedRateLimit("mission_action"), missionHandler.RespondEvent)
	missions.Post("/:sessionId/extract", missionHandler.Extract)
	missions.Post("/:sessionId/abandon", missionHandler.Abandon)
	missions.Get("/:sessionId", missionHandler.GetSession)
	missions.Get("/:sessionId/map", missionHandler.GetMap)
	missions.Get("/:sessionId/objectives", missionHandler.GetObjectives)
	missions.Get("/:sessionId/reward-estimate", missionHandler.EstimateReward)
	missions.Get("/:sessionId/extract-eligibility", missionHandler.GetExtractEligibility)

	passes := authed.Group("/passes")
	passes.Get("/", passHandler.ListPasses)
	passes.Post("/recharge", svc.rateLimitSvc.UserBasedRateLimit("pass_recharge"), passHandler.Recharge)
	passes.Post("/delegate", svc.rateLimitSvc.UserBasedRateLimit("pass_delegate"), passHandler.Delegate)
	passes.Post("/delegations/:delegationId/revoke", svc.rateLimitSvc.UserBasedRateLimit("pass_delegate"), passHandler.RevokeDelegation)
	passes.Get("/:collectionId/:tokenId", passHandler.Status)
	passes.Get("/:collectionId/:tokenId/recharge-info", passHandler.RechargeInfo)

	authed.Get("/profile", profileHandler.GetProfile)
	authed.Get("/wallet", profileHandler.GetWallet)
	authed.Post("/wallet/withdraw-escrow", profileHandler.WithdrawEscrow)
	authed.Get("/resources", profileHandler.GetResources)
	authed.Get("/roster", profileHandler.GetRoster)
	authed.Get("/roster/:operativeId", profileHandler.GetOperative)
	authed.Put("/roster/:operativeId/activation", profileHandler.SetActivation)

	admin := v1.Group("/admin", svc.authSvc.RequiredAuth(), svc.authSvc.RequiredAdmin())
	admin.Get("/users", adminHandler.AdminGetUsers)
	admin.Put("/users/:userId", adminHandler.AdminUpdateUser)
	admin.Get("/variants", adminHandler.AdminListVariants)
	admin.Post("/variants", adminHandler.CreateVariant)
	admin.Put("/variants/:variantId", adminHandler.UpdateVariant)
	admin.Get("/variants/:variantId/templates", adminHandler.ListObjectiveTemplates)
	admin.Post("/variants/:variantId/templates", adminHandler.AddObjectiveTemplate)
	admin.Get("/config", adminHandler.GetGameConfig)
	admin.Put("/config", adminHandler.UpdateGameConfig)
	admin.Get("/rate-limits/stats", svc.rateLimitSvc.GetRateLimitStats())
	admin.Post("/rate-limits/cleanup", svc.rateLimitSvc.CleanupRateLimits())
	admin.Delete("/rate-limits/:identifier/:endpointType", svc.rateLimitSvc.RemoveRateLimit())
	admin.Put("/rate-limits/config/:endpointType", svc.rateLimitSvc.UpdateConfig())

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
