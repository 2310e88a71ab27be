package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"github.com/riskcompass/riskcompass/pkg/utils/safe"
)

const (
	DefaultCalculationTimeout = 30 * time.Second
	DefaultHealthTimeout      = 5 * time.Second

	maxResponseSize = 8 << 20
)

// Client calls the external scoring service over HTTP
type Client struct {
	baseURL            string
	httpClient         *http.Client
	calculationTimeout time.Duration
	healthTimeout      time.Duration
}

var _ interfaces.ScoringService = (*Client)(nil)

// Option configures Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithCalculationTimeout sets the timeout of predict and mitigation calls
func WithCalculationTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.calculationTimeout = d
		}
	}
}

// WithHealthTimeout sets the timeout of the health check
func WithHealthTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.healthTimeout = d
		}
	}
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, goerr.New("scoring service URL is required")
	}

	c := &Client{
		baseURL:            baseURL,
		httpClient:         &http.Client{},
		calculationTimeout: DefaultCalculationTimeout,
		healthTimeout:      DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured service URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict posts the questionnaire to /predict
func (c *Client) Predict(ctx context.Context, req map[string]string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/predict", req, c.calculationTimeout)
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/health", nil, c.healthTimeout)
}

// MitigationStrategy posts to /mitigation-strategy
func (c *Client) MitigationStrategy(ctx context.Context, req *model.MitigationStrategyRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/mitigation-strategy", req, c.calculationTimeout)
}

// RecommendationRiskReduction posts to /recommendation-risk-reduction
func (c *Client) RecommendationRiskReduction(ctx context.Context, req *model.RecommendationRiskReductionRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/recommendation-risk-reduction", req, c.calculationTimeout)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal scoring request", goerr.V("path", path))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build scoring request", goerr.V("path", path))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(path, "error", started)
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, goerr.Wrap(interfaces.ErrScoringUnavailable, "scoring service refused connection",
				goerr.V("path", path), goerr.V("cause", err.Error()))
		}
		return nil, goerr.Wrap(err, "scoring request failed", goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		observe(path, "error", started)
		return nil, goerr.Wrap(err, "failed to read scoring response", goerr.V("path", path))
	}
	observe(path, strconv.Itoa(resp.StatusCode), started)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.From(ctx).Warn("scoring service returned error",
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, goerr.New(upstreamDetail(raw, resp.Status),
			goerr.V("path", path), goerr.V("status", resp.StatusCode))
	}

	if !json.Valid(raw) {
		return nil, goerr.New("scoring service returned invalid JSON", goerr.V("path", path))
	}
	return json.RawMessage(raw), nil
}

// upstreamDetail extracts a human readable message from an error body
func upstreamDetail(body []byte, fallback string) string {
	var msg struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		if s, ok := msg.Detail.(string); ok && s != "" {
			return s
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	return "scoring service returned " + fallback
}
