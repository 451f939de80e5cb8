package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/models"
)

// ProjectFilter narrows project queries. Every query is additionally scoped
// to the owning user; there is no cross-user listing.
type ProjectFilter struct {
	Dataset     *string
	HasFeedback *bool
}

// ProjectRepository defines data operations for saved estimates. No delete
// operation exists anywhere in the API.
type ProjectRepository interface {
	ListByUser(ctx context.Context, userID uint, filter ProjectFilter) ([]models.Project, error)
	GetByIDForUser(ctx context.Context, id, userID uint) (models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ListByUser(ctx context.Context, userID uint, filter ProjectFilter) ([]models.Project, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("user_id = ?", userID)

	if filter.Dataset != nil {
		query = query.Where("dataset = ?", *filter.Dataset)
	}

	if filter.HasFeedback != nil {
		if *filter.HasFeedback {
			query = query.Where("feedback_rating IS NOT NULL")
		} else {
			query = query.Where("feedback_rating IS NULL")
		}
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *projectRepository) GetByIDForUser(ctx context.Context, id, userID uint) (models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		First(&project).Error; err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}
