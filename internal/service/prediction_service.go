package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/datasets"
	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/pkg/predictor"
)

// ErrUnknownDataset indicates the dataset tag is outside the supported set.
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrPredictionUpstream indicates the external prediction service failed.
var ErrPredictionUpstream = errors.New("prediction service unavailable")

// PredictionClient abstracts the external prediction/explanation service.
type PredictionClient interface {
	Explain(ctx context.Context, dataset string, features map[string]float64) (predictor.Explanation, error)
	Predict(ctx context.Context, dataset string, features map[string]float64) (float64, error)
}

// PredictionService validates dataset inputs and dispatches them upstream.
// Validation failures never reach the network.
type PredictionService interface {
	Explain(ctx context.Context, dataset string, features map[string]float64) (dto.ExplanationResponse, error)
	Quick(ctx context.Context, dataset string, features map[string]float64) (dto.QuickPredictionResponse, error)
}

type predictionService struct {
	client PredictionClient
	logger zerolog.Logger
}

// NewPredictionService constructs a PredictionService instance.
func NewPredictionService(client PredictionClient, logger zerolog.Logger) PredictionService {
	return &predictionService{
		client: client,
		logger: logger.With().Str("component", "prediction_service").Logger(),
	}
}

func (s *predictionService) Explain(ctx context.Context, dataset string, features map[string]float64) (dto.ExplanationResponse, error) {
	definition, err := s.validate(dataset, features)
	if err != nil {
		return dto.ExplanationResponse{}, err
	}

	explanation, err := s.client.Explain(ctx, definition.Tag, features)
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", definition.Tag).Msg("explain call failed")
		return dto.ExplanationResponse{}, fmt.Errorf("%w: %v", ErrPredictionUpstream, err)
	}

	bars := make([]dto.FeatureImportanceResponse, 0, len(explanation.FeatureImportance))
	for _, weight := range explanation.FeatureImportance {
		bars = append(bars, dto.FeatureImportanceResponse{
			Feature:    weight.Feature,
			Importance: weight.Importance,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return math.Abs(bars[i].Importance) > math.Abs(bars[j].Importance)
	})

	return dto.ExplanationResponse{
		Dataset:           definition.Tag,
		Prediction:        explanation.Prediction,
		Band:              models.EffortBand(explanation.Prediction),
		FeatureImportance: bars,
	}, nil
}

func (s *predictionService) Quick(ctx context.Context, dataset string, features map[string]float64) (dto.QuickPredictionResponse, error) {
	definition, err := s.validate(dataset, features)
	if err != nil {
		return dto.QuickPredictionResponse{}, err
	}

	prediction, err := s.client.Predict(ctx, definition.Tag, features)
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", definition.Tag).Msg("predict call failed")
		return dto.QuickPredictionResponse{}, fmt.Errorf("%w: %v", ErrPredictionUpstream, err)
	}

	return dto.QuickPredictionResponse{
		Dataset:    definition.Tag,
		Prediction: prediction,
		Band:       models.EffortBand(prediction),
	}, nil
}

func (s *predictionService) validate(dataset string, features map[string]float64) (datasets.Definition, error) {
	definition, ok := datasets.Lookup(dataset)
	if !ok {
		return datasets.Definition{}, ErrUnknownDataset
	}

	if err := definition.Validate(features); err != nil {
		return datasets.Definition{}, err
	}

	return definition, nil
}
