package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/datasets"
	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/internal/utils"
)

// PredictionHandler manages the prediction proxy endpoints.
type PredictionHandler struct {
	service service.PredictionService
	logger  zerolog.Logger
}

// NewPredictionHandler builds a prediction handler instance.
func NewPredictionHandler(service service.PredictionService, logger zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{
		service: service,
		logger:  logger.With().Str("component", "prediction_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PredictionHandler) Register(router fiber.Router) {
	router.Post("/:dataset/explain", h.explain)
	router.Post("/:dataset", h.quick)
}

func (h *PredictionHandler) explain(c *fiber.Ctx) error {
	features, err := parseFeatures(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	explanation, err := h.service.Explain(c.Context(), c.Params("dataset"), features)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "explanation retrieved", explanation)
}

func (h *PredictionHandler) quick(c *fiber.Ctx) error {
	features, err := parseFeatures(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	prediction, err := h.service.Quick(c.Context(), c.Params("dataset"), features)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prediction retrieved", prediction)
}

func parseFeatures(c *fiber.Ctx) (map[string]float64, error) {
	var features map[string]float64
	if err := c.BodyParser(&features); err != nil {
		return nil, err
	}

	return features, nil
}

func (h *PredictionHandler) handleError(c *fiber.Ctx, err error) error {
	var inputErr *datasets.ValidationError
	switch {
	case errors.Is(err, service.ErrUnknownDataset):
		return utils.SendError(c, fiber.StatusNotFound, "unknown dataset")
	case errors.As(err, &inputErr):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid input values", inputErr.Fields)
	case errors.Is(err, service.ErrPredictionUpstream):
		return utils.SendError(c, fiber.StatusBadGateway, "prediction service unavailable")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
