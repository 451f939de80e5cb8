package dto

// BandCount is one slice of the effort distribution.
type BandCount struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

// ActivityPoint is one entry of the recent-activity series.
type ActivityPoint struct {
	Date   string  `json:"date"`
	Effort float64 `json:"effort"`
}

// OverviewResponse summarises the user's saved projects. Averages are nil
// when there is no data to average over.
type OverviewResponse struct {
	TotalProjects      int               `json:"total_projects"`
	WithFeedback       int               `json:"with_feedback"`
	CompletionRate     *float64          `json:"completion_rate"`
	AverageEffort      *float64          `json:"average_effort"`
	AverageRating      *float64          `json:"average_rating"`
	EffortDistribution []BandCount       `json:"effort_distribution"`
	RecentActivity     []ActivityPoint   `json:"recent_activity"`
	RecentProjects     []ProjectResponse `json:"recent_projects"`
	CacheHit           bool              `json:"cache_hit,omitempty"`
}

// AccuracyRow compares one project's prediction against its reported actual.
type AccuracyRow struct {
	ProjectID       uint    `json:"project_id"`
	Name            string  `json:"name"`
	Predicted       float64 `json:"predicted"`
	Actual          float64 `json:"actual"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Category        string  `json:"category"`
	Rating          int     `json:"rating"`
}

// MonthlyEffort is one point of the effort trend series.
type MonthlyEffort struct {
	Month         string  `json:"month"`
	AverageEffort float64 `json:"average_effort"`
	ProjectCount  int     `json:"project_count"`
}

// InsightsResponse carries the accuracy analysis and effort trend.
type InsightsResponse struct {
	Accuracy        []AccuracyRow   `json:"accuracy"`
	AverageAccuracy *float64        `json:"average_accuracy"`
	MonthlyTrend    []MonthlyEffort `json:"monthly_trend"`
	CacheHit        bool            `json:"cache_hit,omitempty"`
}
