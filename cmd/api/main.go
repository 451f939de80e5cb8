package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/effortlens/effortlens-api/internal/config"
	"github.com/effortlens/effortlens-api/internal/database"
	"github.com/effortlens/effortlens-api/internal/handler"
	"github.com/effortlens/effortlens-api/internal/middleware"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
	"github.com/effortlens/effortlens-api/internal/router"
	"github.com/effortlens/effortlens-api/internal/service"
	"github.com/effortlens/effortlens-api/pkg/ai"
	"github.com/effortlens/effortlens-api/pkg/predictor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Project{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	predictionClient, err := predictor.New(predictor.Config{
		BaseURL: cfg.PredictorBaseURL,
		Timeout: cfg.PredictorTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create prediction client: %v", err)
	}

	planner, err := buildPlanner(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create planner: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	tokenConfig := service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	authService := service.NewAuthService(userRepo, redisClient, tokenConfig, validate, logger)
	predictionService := service.NewPredictionService(predictionClient, logger)
	recommendationService := service.NewRecommendationService(planner, validate, logger)
	projectService := service.NewProjectService(projectRepo, redisClient, validate, logger)
	analyticsService := service.NewAnalyticsService(projectRepo, redisClient, cfg.AnalyticsTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	datasetHandler := handler.NewDatasetHandler()
	predictionHandler := handler.NewPredictionHandler(predictionService, logger)
	recommendationHandler := handler.NewRecommendationHandler(recommendationService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           authHandler,
		DatasetHandler:        datasetHandler,
		PredictionHandler:     predictionHandler,
		RecommendationHandler: recommendationHandler,
		ProjectHandler:        projectHandler,
		AnalyticsHandler:      analyticsHandler,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret, authService.IsTokenRevoked),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildPlanner(cfg config.Config, logger zerolog.Logger) (ai.Planner, error) {
	switch cfg.AIProvider {
	case "gemini":
		return ai.NewGeminiPlanner(ai.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			Logger: logger,
		})
	default:
		return ai.NewOpenAIPlanner(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
