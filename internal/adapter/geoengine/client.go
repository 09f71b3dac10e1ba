package geoengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	json "github.com/goccy/go-json"
)

const (
	opComputeMap = "compute_map"
	opProject    = "project"

	codeNoImagery = "NO_IMAGERY"

	// maxErrorBody bounds how much of an error response is kept for logs.
	maxErrorBody = 4 << 10
)

// Client implements domain.Analyzer against the geospatial analytics API.
type Client struct {
	baseURL    string
	project    string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an analytics client. baseURL must not end with a slash.
func NewClient(baseURL, project, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		project: project,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ComputeLossMap asks the analytics service to build the severity image for q
// and returns its tile layer.
func (c *Client) ComputeLossMap(ctx context.Context, q domain.LossQuery) (domain.LossMap, error) {
	body, err := json.Marshal(newComputeRequest(q))
	if err != nil {
		return domain.LossMap{}, fmt.Errorf("encode compute request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/vegetationLoss:computeMap", c.baseURL, url.PathEscape(c.project))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return domain.LossMap{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.do(req)
	c.metrics.UpstreamDuration.WithLabelValues(opComputeMap).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "error").Inc()
		return domain.LossMap{}, fmt.Errorf("%w: compute map: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := c.decodeError(resp, q)
		var ni *domain.NoImageryError
		if errors.As(err, &ni) {
			c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "no_imagery").Inc()
			c.logger.Info("no imagery available", "year", ni.Year, "base", ni.Base)
			return domain.LossMap{}, err
		}
		c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "error").Inc()
		return domain.LossMap{}, err
	}

	var out computeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "error").Inc()
		return domain.LossMap{}, fmt.Errorf("%w: decode compute response: %w", domain.ErrUpstream, err)
	}
	if out.TileURL == "" {
		c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "error").Inc()
		return domain.LossMap{}, fmt.Errorf("%w: compute response has no tile url", domain.ErrUpstream)
	}

	c.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "success").Inc()
	c.logger.Debug("loss map computed",
		"map_id", out.MapID,
		"base_scenes", out.ImageCount.Base,
		"compare_scenes", out.ImageCount.Compare,
		"elapsed", time.Since(start),
	)
	return domain.LossMap{
		MapID:         out.MapID,
		TileURL:       out.TileURL,
		BaseScenes:    out.ImageCount.Base,
		CompareScenes: out.ImageCount.Compare,
	}, nil
}

// CheckReadiness verifies the project is reachable with the configured credentials.
func (c *Client) CheckReadiness(ctx context.Context) error {
	u := fmt.Sprintf("%s/v1/projects/%s", c.baseURL, url.PathEscape(c.project))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.do(req)
	c.metrics.UpstreamDuration.WithLabelValues(opProject).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(opProject, "error").Inc()
		return fmt.Errorf("%w: project lookup: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(opProject, "error").Inc()
		return fmt.Errorf("%w: project lookup: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	c.metrics.UpstreamRequests.WithLabelValues(opProject, "success").Inc()
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if id := observability.RequestID(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return c.httpClient.Do(req)
}

// decodeError turns a non-200 response into a NoImageryError when the
// service says so, and into a wrapped ErrUpstream otherwise.
func (c *Client) decodeError(resp *http.Response, q domain.LossQuery) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Code == codeNoImagery {
		year := env.Error.Year
		if year == 0 {
			year = q.BaseYear
		}
		return &domain.NoImageryError{Year: year, Base: year == q.BaseYear}
	}

	c.logger.Warn("analytics service error",
		"status", resp.StatusCode,
		"code", env.Error.Code,
		"body", string(raw),
	)
	return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, env.Error.Message)
}
