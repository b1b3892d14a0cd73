// Package backend is the HTTP client for the trip-planning backend's
// latest-document endpoints.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/backend/resilience"
)

// DefaultBaseURL points at the local planning backend.
const DefaultBaseURL = "http://localhost:8000"

// ErrNoContent signals a 204: the backend has nothing for this document yet.
// Not a failure; callers skip the update and keep polling.
var ErrNoContent = errors.New("backend has no content yet")

// HTTPError is a non-2xx, non-204 response. Recovered locally by treating
// the cycle as a no-op.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// FetchRecorder receives per-fetch timings and outcomes.
type FetchRecorder interface {
	RecordFetch(endpoint string, duration time.Duration, err error)
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL of the planning backend (optional, defaults to localhost).
	BaseURL string

	// Timeout bounds each backend call when HTTPClient is nil (optional,
	// defaults to the resilience package's 10s).
	Timeout time.Duration

	// HTTPClient to use (optional). Nil uses a resilient client with
	// defaults.
	HTTPClient *resilience.Client

	// Metrics records fetch timings (optional).
	Metrics FetchRecorder

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches the latest itinerary and route documents.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	metrics    FetchRecorder
	logger     zerolog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		resCfg := resilience.DefaultConfig("planning-backend")
		if cfg.Timeout > 0 {
			resCfg.Timeout = cfg.Timeout
		}
		httpClient = resilience.NewClient(resCfg)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// LatestItinerary fetches the most recent itinerary payload. The body is
// returned undecoded; normalization and fingerprinting happen downstream.
func (c *Client) LatestItinerary(ctx context.Context) (json.RawMessage, error) {
	return c.latest(ctx, "/itinerary/latest")
}

// LatestRoute fetches the most recent route document for the map view.
func (c *Client) LatestRoute(ctx context.Context) (json.RawMessage, error) {
	return c.latest(ctx, "/route/latest")
}

func (c *Client) latest(ctx context.Context, path string) (raw json.RawMessage, err error) {
	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.RecordFetch(path, time.Since(start), err)
		}()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, ErrNoContent
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return json.RawMessage(body), nil
}

// BreakerHealth reports breaker state for the ops status endpoint.
func (c *Client) BreakerHealth() BreakerHealth {
	return BreakerHealth{
		State:    c.httpClient.BreakerState().String(),
		Requests: c.httpClient.BreakerCounts().Requests,
		Failures: c.httpClient.BreakerCounts().TotalFailures,
	}
}

// BreakerHealth is a snapshot of the backend circuit breaker.
type BreakerHealth struct {
	State    string `json:"state"`
	Requests uint32 `json:"requests"`
	Failures uint32 `json:"failures"`
}

// ItinerarySource adapts the client to the scheduler's itinerary document.
type ItinerarySource struct {
	Client *Client
}

// Fetch implements the scheduler source contract.
func (s ItinerarySource) Fetch(ctx context.Context) (json.RawMessage, error) {
	return s.Client.LatestItinerary(ctx)
}

// Name identifies the source in logs and metrics.
func (s ItinerarySource) Name() string { return "itinerary" }

// RouteSource adapts the client to the scheduler's route document.
type RouteSource struct {
	Client *Client
}

// Fetch implements the scheduler source contract.
func (s RouteSource) Fetch(ctx context.Context) (json.RawMessage, error) {
	return s.Client.LatestRoute(ctx)
}

// Name identifies the source in logs and metrics.
func (s RouteSource) Name() string { return "route" }
