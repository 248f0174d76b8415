package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/shared"
)

type MissionHandler struct {
	missionSvc MissionServiceInterface
}

func NewMissionHandler(missionSvc MissionServiceInterface) *MissionHandler {
	return &MissionHandler{
		missionSvc: missionSvc,
	}
}

// @Summary Start a mission
// @Description Commit a new mission session against a pass and a squad of operatives
// @Tags missions
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param startRequest body dto.StartMissionRequest true "Variant, pass and squad"
// @Success 201 {object} shared.Response{data=dto.StartMissionResponse}
// @Router /api/v1/missions/start [post]
func (h *MissionHandler) Start(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.StartMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.missionSvc.StartMission(userID, &req, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Mission started", resp)
}

// @Summary Reveal the mission
// @Description Mix in server entropy and generate the map and objectives for a committed session
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.RevealMissionResponse}
// @Router /api/v1/missions/{sessionId}/reveal [post]
func (h *MissionHandler) Reveal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.Reveal(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Mission revealed", resp)
}

// @Summary Perform actions
// @Description Resolve a batch of up to 5 squad actions against the live session
// @Tags missions
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Param actionsRequest body dto.PerformActionsRequest true "Action batch"
// @Success 200 {object} shared.Response{data=dto.PerformActionsResponse}
// @Router /api/v1/missions/{sessionId}/actions [post]
func (h *MissionHandler) PerformActions(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	var req dto.PerformActionsRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.missionSvc.PerformActions(userID, sessionID, &req, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Actions resolved", resp)
}

// @Summary Respond to an event
// @Description Resolve the pending mid-mission event with the chosen response
// @Tags missions
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Param eventResponse body dto.EventResponseRequest true "Event response"
// @Success 200 {object} shared.Response{data=dto.EventOutcomeResponse}
// @Router /api/v1/missions/{sessionId}/event [post]
func (h *MissionHandler) RespondEvent(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	var req dto.EventResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.missionSvc.RespondEvent(userID, sessionID, &req, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Event resolved", resp)
}

// @Summary Extract from the mission
// @Description Settle a ready session: compute the reward, pay out and release the squad
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.ExtractMissionResponse}
// @Router /api/v1/missions/{sessionId}/extract [post]
func (h *MissionHandler) Extract(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.Extract(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Mission extracted", resp)
}

// @Summary Abandon the mission
// @Description Terminate the session early with no reward
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.AbandonMissionResponse}
// @Router /api/v1/missions/{sessionId}/abandon [post]
func (h *MissionHandler) Abandon(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.Abandon(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Mission abandoned", resp)
}

// @Summary Active mission
// @Description Get the caller's active mission session, if any
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.MissionSessionResponse}
// @Router /api/v1/missions/active [get]
func (h *MissionHandler) GetActive(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.missionSvc.GetActive(userID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Mission history
// @Description List the caller's past and current sessions, newest first
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param limit query int false "Max sessions to return (default 20, max 50)"
// @Success 200 {object} shared.Response{data=dto.MissionHistoryResponse}
// @Router /api/v1/missions/history [get]
func (h *MissionHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	resp, err := h.missionSvc.GetHistory(userID, limit, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Session details
// @Description Get the full state of one of the caller's sessions
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.MissionSessionResponse}
// @Router /api/v1/missions/{sessionId} [get]
func (h *MissionHandler) GetSession(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.GetSession(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Mission map
// @Description Get the map for a revealed session. Undiscovered nodes stay masked
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.MissionMapResponse}
// @Router /api/v1/missions/{sessionId}/map [get]
func (h *MissionHandler) GetMap(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.GetMap(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Mission objectives
// @Description Get objective progress for a revealed session
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.MissionObjectivesResponse}
// @Router /api/v1/missions/{sessionId}/objectives [get]
func (h *MissionHandler) GetObjectives(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.GetObjectives(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Reward estimate
// @Description Preview the payout the session would settle for right now
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.RewardEstimateResponse}
// @Router /api/v1/missions/{sessionId}/reward-estimate [get]
func (h *MissionHandler) EstimateReward(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.EstimateReward(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Extract eligibility
// @Description Check whether the session can extract right now and why not if it cannot
// @Tags missions
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.ExtractEligibilityResponse}
// @Router /api/v1/missions/{sessionId}/extract-eligibility [get]
func (h *MissionHandler) GetExtractEligibility(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	sessionID := c.Params("sessionId")

	resp, err := h.missionSvc.GetExtractEligibility(userID, sessionID, time.Now().Unix())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary List mission variants
// @Description List the enabled mission variants players can launch
// @Tags missions
// @Produce json
// @Success 200 {object} shared.Response{data=dto.VariantListResponse}
// @Router /api/v1/variants [get]
func (h *MissionHandler) ListVariants(c *fiber.Ctx) error {
	resp, err := h.missionSvc.ListVariants()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
