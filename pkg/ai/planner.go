package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	planDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "effortlens",
		Subsystem: "planner",
		Name:      "request_duration_seconds",
		Help:      "Duration of plan generation requests",
	}, []string{"provider"})

	planFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "effortlens",
		Subsystem: "planner",
		Name:      "request_failures_total",
		Help:      "Number of failed plan generation requests",
	}, []string{"provider"})
)

// PlanInput seeds the planner with the prediction context.
type PlanInput struct {
	Prediction        float64
	FeatureImportance []FeatureWeight
	PersonMonths      bool
}

// FeatureWeight is one entry of the feature-importance vector.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TeamRecommendations describes the suggested team composition.
type TeamRecommendations struct {
	TeamSize      string   `json:"team_size"`
	RolesNeeded   []string `json:"roles_needed"`
	TeamStructure string   `json:"team_structure"`
}

// ResourcePlanning describes budget and resource allocation advice.
type ResourcePlanning struct {
	BudgetEstimate     string   `json:"budget_estimate"`
	KeyResources       []string `json:"key_resources"`
	AllocationStrategy string   `json:"allocation_strategy"`
}

// Milestone is one phase of the proposed timeline.
type Milestone struct {
	Phase        string   `json:"phase"`
	Duration     string   `json:"duration"`
	Deliverables []string `json:"deliverables"`
}

// TimelinePlanning describes the proposed schedule.
type TimelinePlanning struct {
	EstimatedDuration string      `json:"estimated_duration"`
	MajorMilestones   []Milestone `json:"major_milestones"`
}

// Risk is one identified project risk.
type Risk struct {
	Risk       string `json:"risk"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
}

// RiskManagement lists the top risks and fallback plans.
type RiskManagement struct {
	HighPriorityRisks []Risk   `json:"high_priority_risks"`
	ContingencyPlans  []string `json:"contingency_plans"`
}

// FeatureExplanation interprets one feature's contribution to the estimate.
type FeatureExplanation struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Explanation string  `json:"explanation"`
}

// ProjectPlan is the structured narrative returned by the planner. Every key
// is always populated; sections the model omitted carry placeholder values.
type ProjectPlan struct {
	TeamRecommendations TeamRecommendations  `json:"team_recommendations"`
	ResourcePlanning    ResourcePlanning     `json:"resource_planning"`
	TimelinePlanning    TimelinePlanning     `json:"timeline_planning"`
	RiskManagement      RiskManagement       `json:"risk_management"`
	FeatureExplanations []FeatureExplanation `json:"feature_explanations"`
	Summary             string               `json:"summary"`
}

// Planner describes a generative model capable of producing a project plan.
type Planner interface {
	Plan(ctx context.Context, input PlanInput) (ProjectPlan, error)
}

// FallbackPlan is the fully placeholder plan used when plan generation fails.
func FallbackPlan() ProjectPlan {
	return ProjectPlan{
		TeamRecommendations: TeamRecommendations{
			TeamSize:      "Unable to determine team size",
			RolesNeeded:   []string{},
			TeamStructure: "Team structure not available",
		},
		ResourcePlanning: ResourcePlanning{
			BudgetEstimate:     "Budget estimation failed",
			KeyResources:       []string{},
			AllocationStrategy: "Resource allocation not available",
		},
		TimelinePlanning: TimelinePlanning{
			EstimatedDuration: "Timeline estimation failed",
			MajorMilestones:   []Milestone{},
		},
		RiskManagement: RiskManagement{
			HighPriorityRisks: []Risk{},
			ContingencyPlans:  []string{},
		},
		FeatureExplanations: []FeatureExplanation{},
		Summary:             "Failed to generate project analysis",
	}
}

const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["summary"],
  "properties": {
    "team_recommendations": {
      "type": "object",
      "properties": {
        "team_size": {"type": "string"},
        "roles_needed": {"type": "array", "items": {"type": "string"}},
        "team_structure": {"type": "string"}
      }
    },
    "resource_planning": {
      "type": "object",
      "properties": {
        "budget_estimate": {"type": "string"},
        "key_resources": {"type": "array", "items": {"type": "string"}},
        "allocation_strategy": {"type": "string"}
      }
    },
    "timeline_planning": {
      "type": "object",
      "properties": {
        "estimated_duration": {"type": "string"},
        "major_milestones": {"type": "array", "items": {"type": "object"}}
      }
    },
    "risk_management": {
      "type": "object",
      "properties": {
        "high_priority_risks": {"type": "array", "items": {"type": "object"}},
        "contingency_plans": {"type": "array", "items": {"type": "string"}}
      }
    },
    "feature_explanations": {"type": "array", "items": {"type": "object"}},
    "summary": {"type": "string"}
  }
}`

var compiledPlanSchema = jsonschema.MustCompileString("plan.json", planSchema)

func buildPlanPrompt(input PlanInput) string {
	unit := "hours"
	if input.PersonMonths {
		unit = "months"
	}

	builder := strings.Builder{}
	builder.WriteString("As a senior project management consultant, analyze this project's effort prediction ")
	builder.WriteString("and provide detailed, actionable recommendations.\n\n")
	builder.WriteString("Project Metrics:\n")
	builder.WriteString(fmt.Sprintf("- Person %s: %.2f\n", unit, input.Prediction))
	builder.WriteString("- Feature Importance Breakdown:\n")
	for _, weight := range input.FeatureImportance {
		builder.WriteString(fmt.Sprintf("  * %s: %.4f\n", weight.Feature, weight.Importance))
	}
	builder.WriteString("\nRespond strictly with a JSON object using these keys:\n")
	builder.WriteString(`{"team_recommendations": {"team_size": string, "roles_needed": [string], "team_structure": string},` + "\n")
	builder.WriteString(`"resource_planning": {"budget_estimate": string, "key_resources": [string], "allocation_strategy": string},` + "\n")
	builder.WriteString(`"timeline_planning": {"estimated_duration": string, "major_milestones": [{"phase": string, "duration": string, "deliverables": [string]}]},` + "\n")
	builder.WriteString(`"risk_management": {"high_priority_risks": [{"risk": string, "impact": string, "mitigation": string}], "contingency_plans": [string]},` + "\n")
	builder.WriteString(`"feature_explanations": [{"feature": string, "importance": number, "explanation": string}],` + "\n")
	builder.WriteString(`"summary": string}` + "\n\n")
	builder.WriteString("Keep responses concise, limit risks to the top 2-3, and make every recommendation specific and actionable.")

	return builder.String()
}

// decodePlan extracts the first JSON object from the model output, validates
// it against the plan schema and fills any missing section with placeholders.
func decodePlan(content string) (ProjectPlan, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return ProjectPlan{}, fmt.Errorf("no JSON object found in planner response")
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ProjectPlan{}, fmt.Errorf("parse plan json: %w", err)
	}

	if err := compiledPlanSchema.Validate(decoded); err != nil {
		return ProjectPlan{}, fmt.Errorf("plan does not match schema: %w", err)
	}

	object, ok := decoded.(map[string]interface{})
	if !ok {
		return ProjectPlan{}, fmt.Errorf("plan is not a JSON object")
	}

	return normalizePlan(object), nil
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}

	return content[start : end+1]
}

func normalizePlan(object map[string]interface{}) ProjectPlan {
	plan := ProjectPlan{}

	team := childObject(object, "team_recommendations")
	plan.TeamRecommendations = TeamRecommendations{
		TeamSize:      stringOr(team, "team_size", "Team size not specified"),
		RolesNeeded:   stringSlice(team, "roles_needed"),
		TeamStructure: stringOr(team, "team_structure", "Team structure not specified"),
	}

	resources := childObject(object, "resource_planning")
	plan.ResourcePlanning = ResourcePlanning{
		BudgetEstimate:     stringOr(resources, "budget_estimate", "Budget not estimated"),
		KeyResources:       stringSlice(resources, "key_resources"),
		AllocationStrategy: stringOr(resources, "allocation_strategy", "Resource allocation not specified"),
	}

	timeline := childObject(object, "timeline_planning")
	plan.TimelinePlanning = TimelinePlanning{
		EstimatedDuration: stringOr(timeline, "estimated_duration", "Duration not specified"),
		MajorMilestones:   milestoneSlice(timeline, "major_milestones"),
	}

	risks := childObject(object, "risk_management")
	plan.RiskManagement = RiskManagement{
		HighPriorityRisks: riskSlice(risks, "high_priority_risks"),
		ContingencyPlans:  stringSlice(risks, "contingency_plans"),
	}

	plan.FeatureExplanations = featureExplanationSlice(object, "feature_explanations")
	plan.Summary = stringOr(object, "summary", "Summary not available")

	return plan
}

func childObject(parent map[string]interface{}, key string) map[string]interface{} {
	if parent == nil {
		return nil
	}
	if child, ok := parent[key].(map[string]interface{}); ok {
		return child
	}

	return nil
}

func stringOr(object map[string]interface{}, key, fallback string) string {
	if object != nil {
		if value, ok := object[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}

	return fallback
}

func stringSlice(object map[string]interface{}, key string) []string {
	result := []string{}
	if object == nil {
		return result
	}

	items, ok := object[key].([]interface{})
	if !ok {
		return result
	}

	for _, item := range items {
		if value, ok := item.(string); ok && strings.TrimSpace(value) != "" {
			result = append(result, value)
		}
	}

	return result
}

func milestoneSlice(object map[string]interface{}, key string) []Milestone {
	result := []Milestone{}
	if object == nil {
		return result
	}

	items, ok := object[key].([]interface{})
	if !ok {
		return result
	}

	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		result = append(result, Milestone{
			Phase:        stringOr(entry, "phase", "Phase not specified"),
			Duration:     stringOr(entry, "duration", "Duration not specified"),
			Deliverables: stringSlice(entry, "deliverables"),
		})
	}

	return result
}

func riskSlice(object map[string]interface{}, key string) []Risk {
	result := []Risk{}
	if object == nil {
		return result
	}

	items, ok := object[key].([]interface{})
	if !ok {
		return result
	}

	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		result = append(result, Risk{
			Risk:       stringOr(entry, "risk", "Risk not specified"),
			Impact:     stringOr(entry, "impact", "Impact not specified"),
			Mitigation: stringOr(entry, "mitigation", "Mitigation not specified"),
		})
	}

	return result
}

func featureExplanationSlice(object map[string]interface{}, key string) []FeatureExplanation {
	result := []FeatureExplanation{}
	if object == nil {
		return result
	}

	items, ok := object[key].([]interface{})
	if !ok {
		return result
	}

	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		result = append(result, FeatureExplanation{
			Feature:     stringOr(entry, "feature", "Feature not specified"),
			Importance:  numberOr(entry, "importance", 0),
			Explanation: stringOr(entry, "explanation", "Explanation not available"),
		})
	}

	return result
}

// numberOr tolerates models returning numeric fields as strings.
func numberOr(object map[string]interface{}, key string, fallback float64) float64 {
	if object == nil {
		return fallback
	}

	switch value := object[key].(type) {
	case float64:
		return value
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}

	return fallback
}
