package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// Paths served by a remote scoring API
const (
	ScorePath = "/api/v1/score"
	ModelPath = "/api/v1/model"
)

// ScoreRequest is the body of a remote scoring call
type ScoreRequest struct {
	Features models.FeatureRecord `json:"features"`
}

// ScoreResponse is returned by a remote scoring call. Probabilities is [bowling, batting].
type ScoreResponse struct {
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  string    `json:"model_version"`
}

// HTTPPredictor delegates scoring to a remote HTTP model service
type HTTPPredictor struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger

	mu   sync.RWMutex
	info ModelInfo
}

// NewHTTPPredictor creates a remote predictor. Call Refresh to fetch model info.
func NewHTTPPredictor(baseURL, apiKey string, cfg HTTPClientConfig, logger *logrus.Logger) *HTTPPredictor {
	return &HTTPPredictor{
		client:  NewRateLimitedHTTPClient("ml_remote_http", cfg, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
		info:    ModelInfo{Source: baseURL},
	}
}

func (p *HTTPPredictor) newRequest(method, path string, body []byte) (*retryablehttp.Request, error) {
	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequest(method, p.baseURL+path, rawBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}
	return req, nil
}

// PredictProba implements Predictor
func (p *HTTPPredictor) PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error) {
	start := time.Now()
	defer func() {
		PredictionLatency.WithLabelValues(BackendRemoteHTTP).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(ScoreRequest{Features: rec})
	if err != nil {
		return Probability{}, fmt.Errorf("failed to encode score request: %w", err)
	}
	req, err := p.newRequest(http.MethodPost, ScorePath, body)
	if err != nil {
		return Probability{}, err
	}

	status, data, err := p.client.Do(ctx, req)
	if err != nil {
		RemoteErrorsTotal.WithLabelValues(BackendRemoteHTTP, "transport").Inc()
		return Probability{}, err
	}
	if status != http.StatusOK {
		RemoteErrorsTotal.WithLabelValues(BackendRemoteHTTP, "status").Inc()
		return Probability{}, statusError(status, data)
	}

	var resp ScoreResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		RemoteErrorsTotal.WithLabelValues(BackendRemoteHTTP, "decode").Inc()
		return Probability{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	prob, err := ProbabilityFromVector(resp.Probabilities)
	if err != nil {
		RemoteErrorsTotal.WithLabelValues(BackendRemoteHTTP, "decode").Inc()
		return Probability{}, err
	}
	return prob, nil
}

// statusError maps a non-200 reply onto the package errors
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d: %s", ErrFeatureMismatch, status, msg)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, status, msg)
	}
}

// Refresh fetches model info from the remote service
func (p *HTTPPredictor) Refresh(ctx context.Context) error {
	req, err := p.newRequest(http.MethodGet, ModelPath, nil)
	if err != nil {
		return err
	}

	status, data, err := p.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, data)
	}

	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	info.Source = p.baseURL

	p.mu.Lock()
	p.info = info
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"url":           p.baseURL,
		"model_version": info.Version,
	}).Info("Remote model info refreshed")
	return nil
}

// HealthCheck verifies the remote service answers
func (p *HTTPPredictor) HealthCheck(ctx context.Context) error {
	return p.Refresh(ctx)
}

// Info implements Predictor
func (p *HTTPPredictor) Info() ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

// Close releases idle connections
func (p *HTTPPredictor) Close() error {
	return p.client.Close()
}
