package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/handler"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
	"github.com/effortlens/effortlens-api/internal/service"
)

func newProjectApp(t *testing.T, userID uint) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}))

	svc := service.NewProjectService(repository.NewProjectRepository(db), nil, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))

	app := fiber.New()
	group := app.Group("/api/v1/projects", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	handler.NewProjectHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

type projectEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    dto.ProjectResponse `json:"data"`
}

type projectListEnvelope struct {
	Success bool                  `json:"success"`
	Data    []dto.ProjectResponse `json:"data"`
}

func TestProjectHandlerSaveAndFeedbackFlow(t *testing.T) {
	app := newProjectApp(t, 31)

	createResp := postJSON(t, app, "/api/v1/projects", dto.ProjectCreateRequest{
		Name:            "Billing Revamp",
		Description:     "Replatform the billing stack",
		Dataset:         "china",
		InputValues:     chinaPayload(),
		PredictedEffort: 250.4,
	})
	require.Equal(t, fiber.StatusCreated, createResp.StatusCode)

	var created projectEnvelope
	decodeResponse(t, createResp, &created)
	require.True(t, created.Success)
	require.Equal(t, "project saved", created.Message)
	require.Equal(t, "Medium", created.Data.EffortBand)
	require.NotZero(t, created.Data.ID)

	listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var listed projectListEnvelope
	decodeResponse(t, listResp, &listed)
	require.Len(t, listed.Data, 1)
	require.Equal(t, "Billing Revamp", listed.Data[0].Name)

	badFeedback := postPatch(t, app, projectPath(created.Data.ID), dto.FeedbackRequest{Rating: 0})
	require.Equal(t, fiber.StatusBadRequest, badFeedback.StatusCode)

	actual := 230.0
	comment := "Close enough"
	goodFeedback := postPatch(t, app, projectPath(created.Data.ID), dto.FeedbackRequest{
		Rating:       4,
		Comment:      &comment,
		ActualEffort: &actual,
	})
	require.Equal(t, fiber.StatusOK, goodFeedback.StatusCode)

	var updated projectEnvelope
	decodeResponse(t, goodFeedback, &updated)
	require.Equal(t, "feedback recorded", updated.Message)
	require.NotNil(t, updated.Data.FeedbackRating)
	require.Equal(t, 4, *updated.Data.FeedbackRating)
	require.Equal(t, "Close enough", updated.Data.FeedbackComment)

	filtered, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects?has_feedback=true", nil))
	require.NoError(t, err)

	var rated projectListEnvelope
	decodeResponse(t, filtered, &rated)
	require.Len(t, rated.Data, 1)

	filtered, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects?has_feedback=false", nil))
	require.NoError(t, err)

	var unrated projectListEnvelope
	decodeResponse(t, filtered, &unrated)
	require.Empty(t, unrated.Data)
}

func TestProjectHandlerCreateValidation(t *testing.T) {
	app := newProjectApp(t, 32)

	resp := postJSON(t, app, "/api/v1/projects", dto.ProjectCreateRequest{
		Name:            "   ",
		Dataset:         "china",
		InputValues:     chinaPayload(),
		PredictedEffort: 100,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "project name must not be empty", body.Message)

	incomplete := chinaPayload()
	delete(incomplete, "AFP")
	resp = postJSON(t, app, "/api/v1/projects", dto.ProjectCreateRequest{
		Name:            "Partial",
		Dataset:         "china",
		InputValues:     incomplete,
		PredictedEffort: 100,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var detailed struct {
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decodeResponse(t, resp, &detailed)
	require.Equal(t, "invalid input values", detailed.Message)
	require.Len(t, detailed.Errors, 1)
	require.Equal(t, "AFP", detailed.Errors[0].Field)
}

func TestProjectHandlerGetUnknownProject(t *testing.T) {
	app := newProjectApp(t, 33)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects/424242", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func projectPath(id uint) string {
	return fmt.Sprintf("/api/v1/projects/%d/feedback", id)
}

func postPatch(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}
