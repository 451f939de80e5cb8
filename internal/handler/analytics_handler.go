package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/internal/utils"
)

// AnalyticsHandler serves the dashboard aggregation endpoints.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler builds an analytics handler instance.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/insights", h.insights)
}

func (h *AnalyticsHandler) overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.Context(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build overview")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "overview retrieved", overview)
}

func (h *AnalyticsHandler) insights(c *fiber.Ctx) error {
	insights, err := h.service.Insights(c.Context(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build insights")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "insights retrieved", insights)
}
