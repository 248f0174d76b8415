package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/driftgate-labs/sortie_api/shared"
)

type LeaderboardHandler struct {
	profileSvc ProfileServiceInterface
}

func NewLeaderboardHandler(profileSvc ProfileServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		profileSvc: profileSvc,
	}
}

// @Summary Get Leaderboard
// @Description Get the lifetime rewards leaderboard
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Limit results (default 50)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	leaderboard, err := h.profileSvc.GetLeaderboard(limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", leaderboard)
}
