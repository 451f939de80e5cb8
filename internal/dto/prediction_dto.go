package dto

// FeatureImportanceResponse is one bar of the feature-importance breakdown.
type FeatureImportanceResponse struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ExplanationResponse is returned by the explain endpoint: the point estimate,
// its presentational severity band and the importance bars sorted by
// descending magnitude.
type ExplanationResponse struct {
	Dataset           string                      `json:"dataset"`
	Prediction        float64                     `json:"prediction"`
	Band              string                      `json:"band"`
	FeatureImportance []FeatureImportanceResponse `json:"feature_importance"`
}

// QuickPredictionResponse is returned by the non-explanatory variant.
type QuickPredictionResponse struct {
	Dataset    string  `json:"dataset"`
	Prediction float64 `json:"prediction"`
	Band       string  `json:"band"`
}
