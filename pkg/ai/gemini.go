package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig defines configuration options for the Gemini planner.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// GeminiPlanner implements Planner against the generativelanguage REST API.
type GeminiPlanner struct {
	cfg        GeminiConfig
	httpClient *http.Client
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewGeminiPlanner builds a new planner using the provided configuration.
func NewGeminiPlanner(cfg GeminiConfig) (*GeminiPlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GeminiPlanner{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     otel.Tracer("github.com/effortlens/effortlens-api/pkg/ai/gemini"),
		logger:     cfg.Logger.With().Str("component", "gemini_planner").Logger(),
	}, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Plan requests a structured project plan from Gemini and parses the response.
func (p *GeminiPlanner) Plan(parent context.Context, input PlanInput) (ProjectPlan, error) {
	ctx, span := p.tracer.Start(parent, "gemini.plan", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPlanPrompt(input)}}},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return ProjectPlan{}, fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return ProjectPlan{}, fmt.Errorf("build gemini request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := p.httpClient.Do(request)
	planDuration.WithLabelValues("gemini").Observe(time.Since(start).Seconds())
	if err != nil {
		planFailures.WithLabelValues("gemini").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, fmt.Errorf("gemini plan: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		planFailures.WithLabelValues("gemini").Inc()
		err := fmt.Errorf("gemini returned status %d", response.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, err
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		planFailures.WithLabelValues("gemini").Inc()
		span.RecordError(err)
		return ProjectPlan{}, fmt.Errorf("read gemini response: %w", err)
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		planFailures.WithLabelValues("gemini").Inc()
		span.RecordError(err)
		return ProjectPlan{}, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		planFailures.WithLabelValues("gemini").Inc()
		err := fmt.Errorf("gemini returned no candidates")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, err
	}

	plan, err := decodePlan(decoded.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		planFailures.WithLabelValues("gemini").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProjectPlan{}, err
	}

	return plan, nil
}
