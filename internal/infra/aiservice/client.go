// Package aiservice is the HTTP client of the external recommendation service.
package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gamified-lms/internal/domain"
)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. The per-call deadline comes from the caller's context;
// timeout only bounds the transport.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error) {
	var out struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	if err := c.post(ctx, "/recommend", req, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *Client) Predict(ctx context.Context, req domain.PredictionRequest) (domain.Prediction, error) {
	var out domain.Prediction
	if err := c.post(ctx, "/predict", req, &out); err != nil {
		return domain.Prediction{}, err
	}
	return out, nil
}

func (c *Client) AnalyzeProfile(ctx context.Context, req domain.ProfileRequest) (domain.LearnerProfile, error) {
	var out domain.LearnerProfile
	if err := c.post(ctx, "/profile/analyze", req, &out); err != nil {
		return domain.LearnerProfile{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Dependency("ai service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Dependency("ai service", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Dependency("ai service", fmt.Errorf("POST %s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.Dependency("ai service", fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
