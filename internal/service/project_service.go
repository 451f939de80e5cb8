package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/datasets"
	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
)

// ErrProjectNotFound indicates a project could not be found for the user.
var ErrProjectNotFound = errors.New("project not found")

// ErrEmptyProjectName indicates the save payload had no usable name.
var ErrEmptyProjectName = errors.New("project name must not be empty")

// ProjectService owns the save and feedback workflows. A project's dataset
// and input values are immutable after creation; feedback updates touch only
// the three feedback fields.
type ProjectService interface {
	Create(ctx context.Context, userID uint, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error)
	List(ctx context.Context, userID uint, filter repository.ProjectFilter) ([]dto.ProjectResponse, error)
	Get(ctx context.Context, userID, id uint) (dto.ProjectResponse, error)
	UpdateFeedback(ctx context.Context, userID, id uint, payload dto.FeedbackRequest) (dto.ProjectResponse, error)
}

type projectService struct {
	projects  repository.ProjectRepository
	cache     *redis.Client
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(projects repository.ProjectRepository, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger) ProjectService {
	return &projectService{
		projects:  projects,
		cache:     cache,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "project_service").Logger(),
	}
}

func (s *projectService) Create(ctx context.Context, userID uint, payload dto.ProjectCreateRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return dto.ProjectResponse{}, ErrEmptyProjectName
	}

	definition, ok := datasets.Lookup(payload.Dataset)
	if !ok {
		return dto.ProjectResponse{}, ErrUnknownDataset
	}

	if err := definition.Validate(payload.InputValues); err != nil {
		return dto.ProjectResponse{}, err
	}

	inputValues := make(datatypes.JSONMap, len(payload.InputValues))
	for key, value := range payload.InputValues {
		inputValues[key] = value
	}

	project := models.Project{
		UserID:          userID,
		Name:            name,
		Description:     s.policy.Sanitize(strings.TrimSpace(payload.Description)),
		Dataset:         definition.Tag,
		InputValues:     inputValues,
		PredictedEffort: payload.PredictedEffort,
	}

	if err := s.projects.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.invalidateAnalytics(ctx, userID)
	s.logger.Info().Uint("project_id", project.ID).Str("dataset", project.Dataset).Msg("project saved")

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) List(ctx context.Context, userID uint, filter repository.ProjectFilter) ([]dto.ProjectResponse, error) {
	projects, err := s.projects.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewProjectResponseSlice(projects), nil
}

func (s *projectService) Get(ctx context.Context, userID, id uint) (dto.ProjectResponse, error) {
	project, err := s.projects.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) UpdateFeedback(ctx context.Context, userID, id uint, payload dto.FeedbackRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.projects.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrProjectNotFound
		}
		return dto.ProjectResponse{}, err
	}

	rating := payload.Rating
	project.FeedbackRating = &rating

	if payload.Comment != nil {
		project.FeedbackComment = s.policy.Sanitize(strings.TrimSpace(*payload.Comment))
	}

	if payload.ActualEffort != nil {
		project.ActualEffort = payload.ActualEffort
	}

	if err := s.projects.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.invalidateAnalytics(ctx, userID)
	s.logger.Info().Uint("project_id", project.ID).Int("rating", rating).Msg("feedback recorded")

	return dto.NewProjectResponse(project), nil
}

// invalidateAnalytics drops the cached analytics entries so panels see the
// mutation on their next fetch. Cache errors are non-fatal.
func (s *projectService) invalidateAnalytics(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}

	keys := []string{
		fmt.Sprintf(overviewCacheKeyFormat, userID),
		fmt.Sprintf(insightsCacheKeyFormat, userID),
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate analytics cache")
	}
}
