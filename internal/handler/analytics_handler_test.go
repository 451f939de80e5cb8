package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/handler"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
	"github.com/effortlens/effortlens-api/internal/service"
)

func newAnalyticsApp(t *testing.T, userID uint) (*fiber.App, repository.ProjectRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}))

	repo := repository.NewProjectRepository(db)
	svc := service.NewAnalyticsService(repo, nil, time.Minute, zerolog.New(io.Discard))

	app := fiber.New()
	group := app.Group("/api/v1/analytics", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	handler.NewAnalyticsHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app, repo
}

func TestAnalyticsHandlerOverview(t *testing.T) {
	app, repo := newAnalyticsApp(t, 41)

	rating := 5
	actual := 210.0
	require.NoError(t, repo.Create(context.Background(), &models.Project{
		UserID:          41,
		Name:            "Billing",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 250.4,
		FeedbackRating:  &rating,
		ActualEffort:    &actual,
	}))
	require.NoError(t, repo.Create(context.Background(), &models.Project{
		UserID:          41,
		Name:            "Portal",
		Dataset:         "albrecht",
		InputValues:     datatypes.JSONMap{"Input": 10.0},
		PredictedEffort: 40,
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    dto.OverviewResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Equal(t, 2, body.Data.TotalProjects)
	require.Equal(t, 1, body.Data.WithFeedback)
	require.NotNil(t, body.Data.AverageEffort)
	require.InDelta(t, 145.2, *body.Data.AverageEffort, 1e-9)
	require.NotNil(t, body.Data.CompletionRate)
	require.InDelta(t, 50, *body.Data.CompletionRate, 1e-9)
	require.Len(t, body.Data.EffortDistribution, 4)
}

func TestAnalyticsHandlerInsights(t *testing.T) {
	app, repo := newAnalyticsApp(t, 42)

	rating := 4
	actual := 200.0
	require.NoError(t, repo.Create(context.Background(), &models.Project{
		UserID:          42,
		Name:            "Gateway",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 230,
		FeedbackRating:  &rating,
		ActualEffort:    &actual,
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/insights", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    dto.InsightsResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Len(t, body.Data.Accuracy, 1)
	require.InDelta(t, 15, body.Data.Accuracy[0].VariancePercent, 1e-9)
	require.Equal(t, "Good", body.Data.Accuracy[0].Category)
	require.NotNil(t, body.Data.AverageAccuracy)
	require.InDelta(t, 85, *body.Data.AverageAccuracy, 1e-9)
	require.Len(t, body.Data.MonthlyTrend, 1)
}
