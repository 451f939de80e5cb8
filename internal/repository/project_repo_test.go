package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/models"
)

func setupProjectTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}))
	return db
}

func TestProjectRepositoryListOrdersNewestFirst(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)

	older := models.Project{
		UserID:          51,
		Name:            "Older",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 100,
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	newer := models.Project{
		UserID:          51,
		Name:            "Newer",
		Dataset:         "albrecht",
		InputValues:     datatypes.JSONMap{"Input": 10.0},
		PredictedEffort: 200,
		CreatedAt:       time.Now(),
	}
	foreign := models.Project{
		UserID:          52,
		Name:            "Foreign",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 1.0},
		PredictedEffort: 50,
	}

	require.NoError(t, repo.Create(context.Background(), &older))
	require.NoError(t, repo.Create(context.Background(), &newer))
	require.NoError(t, repo.Create(context.Background(), &foreign))

	projects, err := repo.ListByUser(context.Background(), 51, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "Newer", projects[0].Name)
	require.Equal(t, "Older", projects[1].Name)
}

func TestProjectRepositoryFilters(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)

	rating := 4
	rated := models.Project{
		UserID:          53,
		Name:            "Rated",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 100,
		FeedbackRating:  &rating,
	}
	unrated := models.Project{
		UserID:          53,
		Name:            "Unrated",
		Dataset:         "cocomo",
		InputValues:     datatypes.JSONMap{"loc": 20.0},
		PredictedEffort: 200,
	}

	require.NoError(t, repo.Create(context.Background(), &rated))
	require.NoError(t, repo.Create(context.Background(), &unrated))

	dataset := "cocomo"
	byDataset, err := repo.ListByUser(context.Background(), 53, ProjectFilter{Dataset: &dataset})
	require.NoError(t, err)
	require.Len(t, byDataset, 1)
	require.Equal(t, "Unrated", byDataset[0].Name)

	hasFeedback := true
	withFeedback, err := repo.ListByUser(context.Background(), 53, ProjectFilter{HasFeedback: &hasFeedback})
	require.NoError(t, err)
	require.Len(t, withFeedback, 1)
	require.Equal(t, "Rated", withFeedback[0].Name)
}

func TestProjectRepositoryGetScopedToUser(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)

	project := models.Project{
		UserID:          54,
		Name:            "Scoped",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 100,
	}
	require.NoError(t, repo.Create(context.Background(), &project))

	found, err := repo.GetByIDForUser(context.Background(), project.ID, 54)
	require.NoError(t, err)
	require.Equal(t, "Scoped", found.Name)

	_, err = repo.GetByIDForUser(context.Background(), project.ID, 55)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepositoryUpdatePersistsFeedback(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)

	project := models.Project{
		UserID:          56,
		Name:            "Feedback",
		Dataset:         "china",
		InputValues:     datatypes.JSONMap{"AFP": 100.0},
		PredictedEffort: 100,
	}
	require.NoError(t, repo.Create(context.Background(), &project))

	rating := 5
	actual := 92.0
	project.FeedbackRating = &rating
	project.ActualEffort = &actual
	project.FeedbackComment = "spot on"
	require.NoError(t, repo.Update(context.Background(), &project))

	stored, err := repo.GetByIDForUser(context.Background(), project.ID, 56)
	require.NoError(t, err)
	require.NotNil(t, stored.FeedbackRating)
	require.Equal(t, 5, *stored.FeedbackRating)
	require.NotNil(t, stored.ActualEffort)
	require.InDelta(t, 92, *stored.ActualEffort, 1e-9)
	require.Equal(t, "spot on", stored.FeedbackComment)
}
