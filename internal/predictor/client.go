// Package predictor is the HTTP client for the external disease-prediction service.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// defaultConfidence is assumed when the service reports none
const defaultConfidence = 0.8

// ErrNoProbability is returned when a response carries neither probability nor prediction
var ErrNoProbability = errors.New("predictor response has no probability")

// response is the body of /predict_{disease}. Older model builds answer with
// "prediction" instead of "probability".
type response struct {
	Probability *float64 `json:"probability"`
	Prediction  *float64 `json:"prediction"`
	Confidence  *float64 `json:"confidence"`
}

// Score is one disease probability as reported by the service
type Score struct {
	Probability float64
	Confidence  float64
}

// Client calls the prediction service
type Client struct {
	httpClient    *resty.Client
	healthTimeout time.Duration
	logger        *zap.Logger
}

// NewClient creates a client for cfg.BaseURL. A zero cfg.Timeout leaves predict
// calls unbounded.
func NewClient(cfg config.PredictorConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}

	return &Client{
		httpClient:    client,
		healthTimeout: healthTimeout,
		logger:        logger,
	}
}

// Predict posts features to /predict_{disease}
func (c *Client) Predict(ctx context.Context, disease string, features any) (Score, error) {
	var body response
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(features).
		SetResult(&body).
		// some model builds label JSON bodies text/plain or text/html
		ForceContentType("application/json").
		Post("/predict_" + disease)
	if err != nil {
		return Score{}, fmt.Errorf("failed to call predictor for %s: %w", disease, err)
	}
	if resp.IsError() {
		return Score{}, fmt.Errorf("predictor returned status %d for %s", resp.StatusCode(), disease)
	}

	c.logger.Debug("Predictor responded",
		zap.String("disease", disease),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)
	return body.score()
}

func (r response) score() (Score, error) {
	s := Score{Confidence: defaultConfidence}
	switch {
	case r.Probability != nil && *r.Probability != 0:
		s.Probability = *r.Probability
	case r.Prediction != nil:
		s.Probability = *r.Prediction
	case r.Probability != nil:
		s.Probability = 0
	default:
		return Score{}, ErrNoProbability
	}
	if r.Confidence != nil && *r.Confidence != 0 {
		s.Confidence = *r.Confidence
	}
	return s, nil
}

// Health probes GET /health within the health timeout
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return fmt.Errorf("failed to reach predictor: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("predictor health returned status %d", resp.StatusCode())
	}
	return nil
}
