package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/pkg/ai"
)

// RecommendationService produces the narrative project plan for a prediction.
// Plan generation is best-effort: any planner failure degrades to the
// placeholder plan so the numeric result stays usable.
type RecommendationService interface {
	Recommend(ctx context.Context, payload dto.RecommendationRequest) (ai.ProjectPlan, error)
}

type recommendationService struct {
	planner   ai.Planner
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRecommendationService constructs a RecommendationService instance.
func NewRecommendationService(planner ai.Planner, validate *validator.Validate, logger zerolog.Logger) RecommendationService {
	return &recommendationService{
		planner:   planner,
		validator: validate,
		logger:    logger.With().Str("component", "recommendation_service").Logger(),
	}
}

func (s *recommendationService) Recommend(ctx context.Context, payload dto.RecommendationRequest) (ai.ProjectPlan, error) {
	if err := s.validator.Struct(payload); err != nil {
		return ai.ProjectPlan{}, err
	}

	weights := make([]ai.FeatureWeight, 0, len(payload.FeatureImportance))
	for _, entry := range payload.FeatureImportance {
		weights = append(weights, ai.FeatureWeight{
			Feature:    entry.Feature,
			Importance: entry.Importance,
		})
	}

	input := ai.PlanInput{
		Prediction:        payload.Prediction,
		FeatureImportance: weights,
		PersonMonths:      payload.PersonMonths,
	}

	if s.planner == nil {
		return ai.FallbackPlan(), nil
	}

	plan, err := s.planner.Plan(ctx, input)
	if err != nil {
		s.logger.Warn().Err(err).Msg("plan generation failed, serving fallback plan")
		return ai.FallbackPlan(), nil
	}

	return plan, nil
}
