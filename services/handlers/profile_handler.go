package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/shared"
)

type ProfileHandler struct {
	profileSvc  ProfileServiceInterface
	walletSvc   WalletServiceInterface
	rosterSvc   RosterServiceInterface
	resourceSvc ResourceServiceInterface
}

func NewProfileHandler(profileSvc ProfileServiceInterface, walletSvc WalletServiceInterface, rosterSvc RosterServiceInterface, resourceSvc ResourceServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		profileSvc:  profileSvc,
		walletSvc:   walletSvc,
		rosterSvc:   rosterSvc,
		resourceSvc: resourceSvc,
	}
}

// @Summary Player profile
// @Description Get the caller's mission record, streak, balances and stockpiles
// @Tags profile
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.ProfileResponse}
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.profileSvc.GetProfile(userID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Wallet
// @Description Get the caller's balance, escrow and recent ledger entries
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param limit query int false "Max ledger entries (default 20)"
// @Param offset query int false "Ledger offset"
// @Success 200 {object} shared.Response{data=dto.WalletResponse}
// @Router /api/v1/wallet [get]
func (h *ProfileHandler) GetWallet(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	resp, err := h.walletSvc.GetWallet(userID, limit, offset)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Withdraw escrow
// @Description Move the caller's accrued delegation earnings from escrow into the spendable balance
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.WalletResponse}
// @Router /api/v1/wallet/withdraw-escrow [post]
func (h *ProfileHandler) WithdrawEscrow(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.walletSvc.WithdrawEscrow(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Escrow withdrawn", resp)
}

// @Summary Resource stockpiles
// @Description Get the caller's salvage, crystal and component stockpiles after lazy decay
// @Tags profile
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]dto.ResourceResponse}
// @Router /api/v1/resources [get]
func (h *ProfileHandler) GetResources(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resources, err := h.resourceSvc.GetResources(userID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resources)
}

// @Summary Roster
// @Description List the caller's operatives with their regenerated charge and lock state
// @Tags roster
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.RosterResponse}
// @Router /api/v1/roster [get]
func (h *ProfileHandler) GetRoster(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.rosterSvc.GetRoster(userID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Operative details
// @Description Get one operative from the caller's roster
// @Tags roster
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param operativeId path string true "Operative ID"
// @Success 200 {object} shared.Response{data=dto.OperativeResponse}
// @Router /api/v1/roster/{operativeId} [get]
func (h *ProfileHandler) GetOperative(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	operativeID := c.Params("operativeId")

	resp, err := h.rosterSvc.GetOperative(userID, operativeID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Set operative activation
// @Description Activate or bench an operative. Benched operatives cannot deploy
// @Tags roster
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param operativeId path string true "Operative ID"
// @Param activationRequest body dto.SetActivationRequest true "Desired activation state"
// @Success 200 {object} shared.Response{data=dto.OperativeResponse}
// @Router /api/v1/roster/{operativeId}/activation [put]
func (h *ProfileHandler) SetActivation(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	operativeID := c.Params("operativeId")

	var req dto.SetActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.rosterSvc.SetActivated(userID, operativeID, *req.Activated, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Operative updated", resp)
}
