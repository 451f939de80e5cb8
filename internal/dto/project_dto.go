package dto

import (
	"time"

	"github.com/effortlens/effortlens-api/internal/models"
)

// ProjectCreateRequest is the save-workflow payload: the last submitted form
// values plus the prediction returned for them.
type ProjectCreateRequest struct {
	Name            string             `json:"name" validate:"required"`
	Description     string             `json:"description" validate:"omitempty,max=2000"`
	Dataset         string             `json:"dataset" validate:"required,oneof=china desharnais albrecht cocomo"`
	InputValues     map[string]float64 `json:"input_values" validate:"required"`
	PredictedEffort float64            `json:"predicted_effort" validate:"gte=0"`
}

// FeedbackRequest updates the feedback fields of one project. Rating is the
// only required field; comment and actual effort stay optional.
type FeedbackRequest struct {
	Rating       int      `json:"rating" validate:"required,gte=1,lte=5"`
	Comment      *string  `json:"comment" validate:"omitempty,max=2000"`
	ActualEffort *float64 `json:"actual_effort" validate:"omitempty,gte=0"`
}

// ProjectResponse is returned to API clients when viewing projects.
type ProjectResponse struct {
	ID              uint                   `json:"id"`
	UserID          uint                   `json:"user_id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Dataset         string                 `json:"dataset"`
	InputValues     map[string]interface{} `json:"input_values"`
	PredictedEffort float64                `json:"predicted_effort"`
	EffortBand      string                 `json:"effort_band"`
	ActualEffort    *float64               `json:"actual_effort"`
	FeedbackRating  *int                   `json:"feedback_rating"`
	FeedbackComment string                 `json:"feedback_comment"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewProjectResponse converts a Project model into a DTO.
func NewProjectResponse(model models.Project) ProjectResponse {
	return ProjectResponse{
		ID:              model.ID,
		UserID:          model.UserID,
		Name:            model.Name,
		Description:     model.Description,
		Dataset:         model.Dataset,
		InputValues:     model.InputValues,
		PredictedEffort: model.PredictedEffort,
		EffortBand:      models.EffortBand(model.PredictedEffort),
		ActualEffort:    model.ActualEffort,
		FeedbackRating:  model.FeedbackRating,
		FeedbackComment: model.FeedbackComment,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewProjectResponseSlice converts project models into DTOs.
func NewProjectResponseSlice(models []models.Project) []ProjectResponse {
	responses := make([]ProjectResponse, 0, len(models))
	for _, project := range models {
		responses = append(responses, NewProjectResponse(project))
	}

	return responses
}
