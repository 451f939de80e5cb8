package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "effortlens",
		Subsystem: "predictor",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests to the effort prediction service",
	}, []string{"dataset", "operation"})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "effortlens",
		Subsystem: "predictor",
		Name:      "request_failures_total",
		Help:      "Number of failed requests to the effort prediction service",
	}, []string{"dataset", "operation"})
)

// FeatureImportance is one entry of the explanation vector.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Explanation is the decoded result of an explain call.
type Explanation struct {
	Prediction        float64             `json:"prediction"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
}

// Config defines configuration options for the prediction client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client calls the external effort prediction/explanation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// New builds a prediction client from the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("predictor base url is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     otel.Tracer("github.com/effortlens/effortlens-api/pkg/predictor"),
		logger:     cfg.Logger.With().Str("component", "predictor_client").Logger(),
	}, nil
}

// Explain posts the dataset feature map to /explain/{dataset} and returns the
// point estimate together with the feature-importance vector.
func (c *Client) Explain(ctx context.Context, dataset string, features map[string]float64) (Explanation, error) {
	var payload struct {
		Success     bool        `json:"success"`
		Explanation Explanation `json:"explanation"`
	}

	path := fmt.Sprintf("/explain/%s", dataset)
	if err := c.post(ctx, dataset, "explain", path, features, &payload); err != nil {
		return Explanation{}, err
	}

	if !payload.Success {
		requestFailures.WithLabelValues(dataset, "explain").Inc()
		return Explanation{}, fmt.Errorf("prediction service reported failure for %s", dataset)
	}

	return payload.Explanation, nil
}

// Predict posts the dataset feature map to /{dataset} and returns the bare
// point estimate without an explanation.
func (c *Client) Predict(ctx context.Context, dataset string, features map[string]float64) (float64, error) {
	var payload struct {
		Success    bool    `json:"success"`
		Prediction float64 `json:"prediction"`
	}

	path := fmt.Sprintf("/%s", dataset)
	if err := c.post(ctx, dataset, "predict", path, features, &payload); err != nil {
		return 0, err
	}

	if !payload.Success {
		requestFailures.WithLabelValues(dataset, "predict").Inc()
		return 0, fmt.Errorf("prediction service reported failure for %s", dataset)
	}

	return payload.Prediction, nil
}

func (c *Client) post(parent context.Context, dataset, operation, path string, body, out interface{}) error {
	ctx, span := c.tracer.Start(parent, "predictor."+operation, trace.WithAttributes(
		attribute.String("predictor.dataset", dataset),
	))
	defer span.End()

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode predictor request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build predictor request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := c.httpClient.Do(request)
	requestDuration.WithLabelValues(dataset, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		requestFailures.WithLabelValues(dataset, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("call prediction service: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		requestFailures.WithLabelValues(dataset, operation).Inc()
		err := fmt.Errorf("prediction service returned status %d", response.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Int("status", response.StatusCode).Str("dataset", dataset).Msg("prediction service error")
		return err
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		requestFailures.WithLabelValues(dataset, operation).Inc()
		span.RecordError(err)
		return fmt.Errorf("read predictor response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		requestFailures.WithLabelValues(dataset, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return fmt.Errorf("decode predictor response: %w", err)
	}

	return nil
}
