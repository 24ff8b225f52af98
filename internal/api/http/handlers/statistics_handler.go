package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StatisticsHandler serves the IT dashboard rollup.
type StatisticsHandler struct {
	stats *service.StatisticsService
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(stats *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// Get handles GET /api/statistics.
func (h *StatisticsHandler) Get(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	stats, err := h.stats.GetStatistics(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatisticsResponse(stats))
}
