package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
)

const (
	overviewCacheKeyFormat = "analytics:overview:%d"
	insightsCacheKeyFormat = "analytics:insights:%d"

	trendMonths      = 6
	recentActivity   = 6
	recentProjectMax = 5
)

// AnalyticsService shapes the user's saved projects into dashboard numbers.
// Everything here is a pure derivation of the fetched record set; nothing is
// persisted back.
type AnalyticsService interface {
	Overview(ctx context.Context, userID uint) (dto.OverviewResponse, error)
	Insights(ctx context.Context, userID uint) (dto.InsightsResponse, error)
}

type analyticsService struct {
	projects repository.ProjectRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(projects repository.ProjectRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &analyticsService{
		projects: projects,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "analytics_service").Logger(),
	}
}

func (s *analyticsService) Overview(ctx context.Context, userID uint) (dto.OverviewResponse, error) {
	cacheKey := fmt.Sprintf(overviewCacheKeyFormat, userID)
	tracer := otel.Tracer("github.com/effortlens/effortlens-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.overview")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	var cached dto.OverviewResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	projects, err := s.projects.ListByUser(ctx, userID, repository.ProjectFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_projects_failed")
		return dto.OverviewResponse{}, err
	}

	response := buildOverview(projects)
	span.SetAttributes(attribute.Int("analytics.project_count", len(projects)))

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) Insights(ctx context.Context, userID uint) (dto.InsightsResponse, error) {
	cacheKey := fmt.Sprintf(insightsCacheKeyFormat, userID)
	tracer := otel.Tracer("github.com/effortlens/effortlens-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.insights")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	var cached dto.InsightsResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	projects, err := s.projects.ListByUser(ctx, userID, repository.ProjectFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_projects_failed")
		return dto.InsightsResponse{}, err
	}

	response := buildInsights(projects)
	span.SetAttributes(attribute.Int("analytics.project_count", len(projects)))

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read analytics cache")
		}
		return false
	}

	return json.Unmarshal([]byte(cached), out) == nil
}

func (s *analyticsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store analytics cache")
	}
}

// buildOverview derives the headline numbers. Averages over an empty set stay
// nil so clients render a "no data" state instead of NaN.
func buildOverview(projects []models.Project) dto.OverviewResponse {
	response := dto.OverviewResponse{
		TotalProjects:      len(projects),
		EffortDistribution: effortDistribution(projects),
		RecentActivity:     []dto.ActivityPoint{},
		RecentProjects:     []dto.ProjectResponse{},
	}

	effortSum := 0.0
	ratingSum := 0
	for _, project := range projects {
		effortSum += project.PredictedEffort
		if project.HasFeedback() {
			response.WithFeedback++
			ratingSum += *project.FeedbackRating
		}
	}

	if response.TotalProjects > 0 {
		avgEffort := effortSum / float64(response.TotalProjects)
		completionRate := float64(response.WithFeedback) / float64(response.TotalProjects) * 100
		response.AverageEffort = &avgEffort
		response.CompletionRate = &completionRate
	}

	if response.WithFeedback > 0 {
		avgRating := float64(ratingSum) / float64(response.WithFeedback)
		response.AverageRating = &avgRating
	}

	for i, project := range projects {
		if i >= recentActivity {
			break
		}
		response.RecentActivity = append(response.RecentActivity, dto.ActivityPoint{
			Date:   project.CreatedAt.Format("2006-01-02"),
			Effort: project.PredictedEffort,
		})
	}

	for i, project := range projects {
		if i >= recentProjectMax {
			break
		}
		response.RecentProjects = append(response.RecentProjects, dto.NewProjectResponse(project))
	}

	return response
}

func effortDistribution(projects []models.Project) []dto.BandCount {
	counts := map[string]int{}
	for _, project := range projects {
		counts[models.EffortBand(project.PredictedEffort)]++
	}

	bands := []string{models.EffortBandLow, models.EffortBandMedium, models.EffortBandHigh, models.EffortBandVeryHigh}
	distribution := make([]dto.BandCount, 0, len(bands))
	for _, band := range bands {
		distribution = append(distribution, dto.BandCount{Band: band, Count: counts[band]})
	}

	return distribution
}

// buildInsights derives the accuracy analysis and the monthly effort trend.
func buildInsights(projects []models.Project) dto.InsightsResponse {
	response := dto.InsightsResponse{
		Accuracy:     []dto.AccuracyRow{},
		MonthlyTrend: monthlyTrend(projects),
	}

	accuracySum := 0.0
	for _, project := range projects {
		if !project.HasFeedback() {
			continue
		}

		diff, percent, ok := models.Variance(project.PredictedEffort, project.ActualEffort)
		if !ok {
			continue
		}

		response.Accuracy = append(response.Accuracy, dto.AccuracyRow{
			ProjectID:       project.ID,
			Name:            project.Name,
			Predicted:       project.PredictedEffort,
			Actual:          *project.ActualEffort,
			Variance:        diff,
			VariancePercent: percent,
			Category:        models.VarianceCategory(percent),
			Rating:          *project.FeedbackRating,
		})

		capped := percent
		if capped > 100 {
			capped = 100
		}
		accuracySum += 100 - capped
	}

	if len(response.Accuracy) > 0 {
		avgAccuracy := accuracySum / float64(len(response.Accuracy))
		response.AverageAccuracy = &avgAccuracy
	}

	return response
}

// monthlyTrend averages predicted effort per calendar month over the most
// recent six months present in the record set, oldest first.
func monthlyTrend(projects []models.Project) []dto.MonthlyEffort {
	type bucket struct {
		total float64
		count int
	}

	buckets := map[time.Time]*bucket{}
	for _, project := range projects {
		month := time.Date(project.CreatedAt.Year(), project.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		if buckets[month] == nil {
			buckets[month] = &bucket{}
		}
		buckets[month].total += project.PredictedEffort
		buckets[month].count++
	}

	months := make([]time.Time, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].After(months[j]) })

	if len(months) > trendMonths {
		months = months[:trendMonths]
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	trend := make([]dto.MonthlyEffort, 0, len(months))
	for _, month := range months {
		entry := buckets[month]
		trend = append(trend, dto.MonthlyEffort{
			Month:         month.Format("Jan 2006"),
			AverageEffort: entry.total / float64(entry.count),
			ProjectCount:  entry.count,
		})
	}

	return trend
}
