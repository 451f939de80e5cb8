package handler_test

import (
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/handler"
	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/pkg/ai"
)

func newRecommendationApp(planner ai.Planner) *fiber.App {
	svc := service.NewRecommendationService(planner, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))

	app := fiber.New()
	handler.NewRecommendationHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/recommendations"))
	return app
}

func TestRecommendationHandlerServesFallbackWithoutPlanner(t *testing.T) {
	app := newRecommendationApp(nil)

	resp := postJSON(t, app, "/api/v1/recommendations", dto.RecommendationRequest{
		Prediction: 250.4,
		FeatureImportance: []dto.FeatureImportanceInput{
			{Feature: "AFP", Importance: 0.6},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    ai.ProjectPlan `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Equal(t, "plan generated", body.Message)
	require.Equal(t, ai.FallbackPlan(), body.Data)
}

func TestRecommendationHandlerRejectsInvalidPayload(t *testing.T) {
	app := newRecommendationApp(nil)

	resp := postJSON(t, app, "/api/v1/recommendations", dto.RecommendationRequest{Prediction: -1})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
