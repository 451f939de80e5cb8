package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI planner.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIPlanner implements Planner against the OpenAI chat completion API.
type OpenAIPlanner struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIPlanner builds a new planner using the provided configuration.
func NewOpenAIPlanner(cfg OpenAIConfig) (*OpenAIPlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	tracer := otel.Tracer("github.com/effortlens/effortlens-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIPlanner{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Plan requests a structured project plan from OpenAI and parses the response.
func (p *OpenAIPlanner) Plan(parent context.Context, input PlanInput) (ProjectPlan, error) {
	ctx, span := p.tracer.Start(parent, "openai.plan", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: plannerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPlanPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := p.client.CreateChatCompletion(ctx, request)
	planDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	if err != nil {
		planFailures.WithLabelValues("openai").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, fmt.Errorf("openai plan: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		planFailures.WithLabelValues("openai").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	plan, err := decodePlan(content)
	if err != nil {
		planFailures.WithLabelValues("openai").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, err
	}

	return plan, nil
}

func plannerSystemPrompt() string {
	return "You are a senior project management consultant. Respond with a single JSON object containing " +
		"team_recommendations, resource_planning, timeline_planning, risk_management, feature_explanations, " +
		"and summary. Never include prose outside the JSON object."
}
