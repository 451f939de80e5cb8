package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// Project represents one saved effort estimate together with any later feedback.
// Dataset and InputValues are fixed at creation; only the feedback fields may
// change afterwards.
type Project struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index" json:"user_id"`
	Name            string            `gorm:"size:255;not null" json:"name"`
	Description     string            `gorm:"type:text" json:"description"`
	Dataset         string            `gorm:"size:32;not null" json:"dataset"`
	InputValues     datatypes.JSONMap `gorm:"type:json" json:"input_values"`
	PredictedEffort float64           `gorm:"not null" json:"predicted_effort"`
	ActualEffort    *float64          `json:"actual_effort"`
	FeedbackRating  *int              `json:"feedback_rating"`
	FeedbackComment string            `gorm:"type:text" json:"feedback_comment"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	User            User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// HasFeedback reports whether the project has received a rating.
func (p Project) HasFeedback() bool {
	return p.FeedbackRating != nil
}

// Effort bands used for badge colouring. Lower bounds are inclusive.
const (
	EffortBandLow      = "Low"
	EffortBandMedium   = "Medium"
	EffortBandHigh     = "High"
	EffortBandVeryHigh = "Very High"
)

// EffortBand buckets a predicted effort into one of four severity bands.
func EffortBand(effort float64) string {
	switch {
	case effort < 100:
		return EffortBandLow
	case effort < 300:
		return EffortBandMedium
	case effort < 600:
		return EffortBandHigh
	default:
		return EffortBandVeryHigh
	}
}

// Variance categories for prediction accuracy.
const (
	VarianceExcellent        = "Excellent"
	VarianceGood             = "Good"
	VarianceNeedsImprovement = "Needs Improvement"
)

// Variance returns |predicted-actual| and that difference as a percentage of
// the actual effort. Undefined (ok=false) when actual is absent or zero.
func Variance(predicted float64, actual *float64) (diff, percent float64, ok bool) {
	if actual == nil || *actual == 0 {
		return 0, 0, false
	}

	diff = math.Abs(predicted - *actual)
	percent = diff / *actual * 100

	return diff, percent, true
}

// VarianceCategory classifies a variance percentage.
func VarianceCategory(percent float64) string {
	switch {
	case percent < 10:
		return VarianceExcellent
	case percent < 25:
		return VarianceGood
	default:
		return VarianceNeedsImprovement
	}
}
