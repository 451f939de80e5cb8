package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/internal/utils"
)

// RecommendationHandler manages the project-plan endpoint.
type RecommendationHandler struct {
	service service.RecommendationService
	logger  zerolog.Logger
}

// NewRecommendationHandler builds a recommendation handler instance.
func NewRecommendationHandler(service service.RecommendationService, logger zerolog.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger.With().Str("component", "recommendation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *RecommendationHandler) Register(router fiber.Router) {
	router.Post("", h.recommend)
}

func (h *RecommendationHandler) recommend(c *fiber.Ctx) error {
	var payload dto.RecommendationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	plan, err := h.service.Recommend(c.Context(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "plan generated", plan)
}
