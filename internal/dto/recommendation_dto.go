package dto

// FeatureImportanceInput seeds the planner with one explanation entry.
type FeatureImportanceInput struct {
	Feature    string  `json:"feature" validate:"required"`
	Importance float64 `json:"importance"`
}

// RecommendationRequest carries the prediction context handed to the planner.
type RecommendationRequest struct {
	Prediction        float64                  `json:"prediction" validate:"gte=0"`
	FeatureImportance []FeatureImportanceInput `json:"feature_importance" validate:"dive"`
	PersonMonths      bool                     `json:"person_months"`
}
