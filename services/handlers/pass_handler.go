package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/shared"
)

type PassHandler struct {
	passSvc PassServiceInterface
}

func NewPassHandler(passSvc PassServiceInterface) *PassHandler {
	return &PassHandler{
		passSvc: passSvc,
	}
}

func parseTokenID(c *fiber.Ctx) (uint64, error) {
	tokenID, err := strconv.ParseUint(c.Params("tokenId"), 10, 64)
	if err != nil {
		return 0, shared.NewBadRequestError(err, "Invalid token ID")
	}
	return tokenID, nil
}

// @Summary List passes
// @Description List the caller's owned passes and any passes delegated to them
// @Tags passes
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.PassListResponse}
// @Router /api/v1/passes [get]
func (h *PassHandler) ListPasses(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.passSvc.ListPasses(userID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Pass status
// @Description Get usage, charge state and any live delegation for one pass token
// @Tags passes
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param collectionId path string true "Pass collection ID"
// @Param tokenId path int true "Token ID"
// @Success 200 {object} shared.Response{data=dto.PassStatusResponse}
// @Router /api/v1/passes/{collectionId}/{tokenId} [get]
func (h *PassHandler) Status(c *fiber.Ctx) error {
	tokenID, err := parseTokenID(c)
	if err != nil {
		return err
	}

	resp, err := h.passSvc.PassStatus(c.Params("collectionId"), tokenID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Recharge pricing
// @Description Get recharge pricing and cooldown state for one pass token
// @Tags passes
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param collectionId path string true "Pass collection ID"
// @Param tokenId path int true "Token ID"
// @Success 200 {object} shared.Response{data=dto.RechargeInfoResponse}
// @Router /api/v1/passes/{collectionId}/{tokenId}/recharge-info [get]
func (h *PassHandler) RechargeInfo(c *fiber.Ctx) error {
	tokenID, err := parseTokenID(c)
	if err != nil {
		return err
	}

	resp, err := h.passSvc.RechargeInfo(c.Params("collectionId"), tokenID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Recharge a pass
// @Description Buy extra uses for an owned pass at the collection's price
// @Tags passes
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param rechargeRequest body dto.RechargePassRequest true "Pass token and uses to add"
// @Success 200 {object} shared.Response{data=dto.RechargeResultResponse}
// @Router /api/v1/passes/recharge [post]
func (h *PassHandler) Recharge(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.RechargePassRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.passSvc.Recharge(userID, &req, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Pass recharged", resp)
}

// @Summary Delegate a pass
// @Description Lend an owned pass to another account for a time window, optionally capped and revenue-shared
// @Tags passes
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param delegateRequest body dto.DelegatePassRequest true "Delegation terms"
// @Success 201 {object} shared.Response{data=dto.DelegateResultResponse}
// @Router /api/v1/passes/delegate [post]
func (h *PassHandler) Delegate(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.DelegatePassRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.passSvc.Delegate(userID, &req, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Pass delegated", resp)
}

// @Summary Revoke a delegation
// @Description End a live delegation early. The owner regains use of the pass
// @Tags passes
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param delegationId path string true "Delegation ID"
// @Success 200 {object} shared.Response{data=dto.RevokeDelegationResponse}
// @Router /api/v1/passes/delegations/{delegationId}/revoke [post]
func (h *PassHandler) RevokeDelegation(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	delegationID := c.Params("delegationId")

	resp, err := h.passSvc.RevokeDelegation(userID, delegationID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Delegation revoked", resp)
}
