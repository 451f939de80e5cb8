package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/datasets"
	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/repository"
	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/internal/utils"
)

// ProjectHandler manages the saved-estimate endpoints.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler builds a project handler instance.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/feedback", h.feedback)
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	filter := repository.ProjectFilter{}
	if dataset := strings.TrimSpace(c.Query("dataset")); dataset != "" {
		filter.Dataset = &dataset
	}
	if raw := strings.TrimSpace(c.Query("has_feedback")); raw != "" {
		hasFeedback := raw == "true" || raw == "1"
		filter.HasFeedback = &hasFeedback
	}

	projects, err := h.service.List(c.Context(), userIDFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "projects retrieved", projects)
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	var payload dto.ProjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project saved", project)
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	project, err := h.service.Get(c.Context(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project retrieved", project)
}

func (h *ProjectHandler) feedback(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.UpdateFeedback(c.Context(), userIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback recorded", project)
}

func (h *ProjectHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var inputErr *datasets.ValidationError
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrEmptyProjectName):
		return utils.SendError(c, fiber.StatusBadRequest, "project name must not be empty")
	case errors.Is(err, service.ErrUnknownDataset):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown dataset")
	case errors.As(err, &inputErr):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid input values", inputErr.Fields)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
