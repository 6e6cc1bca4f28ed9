package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/metrics"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps response bodies at 10MB. Search pages run well
	// under 1MB; anything larger is a misbehaving upstream.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client is the outbound HTTP client shared by the upstream API fetcher and
// the cron self-invoke path. It enforces a body size cap and records
// per-host request metrics.
type Client struct {
	client *http.Client
	logger ectologger.Logger
}

// Config holds HTTP client configuration
type Config struct {
	Timeout            time.Duration
	MaxIdleConns       int
	IdleConnTimeout    time.Duration
	DisableCompression bool
	DisableKeepAlives  bool
}

// DefaultConfig returns default HTTP client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// NewClient creates a new HTTP client
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	return &Client{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:       cfg.MaxIdleConns,
				IdleConnTimeout:    cfg.IdleConnTimeout,
				DisableCompression: cfg.DisableCompression,
				DisableKeepAlives:  cfg.DisableKeepAlives,
			},
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Response is a fully-read HTTP response. Body is always non-nil on success.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Do executes the request, reads the whole body under the size cap, and
// records outbound metrics. Non-2xx statuses are not treated as errors here;
// callers own status triage.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	start := time.Now()

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		metrics.OutboundRequests.WithLabelValues(req.Method, req.URL.Host, "error").Inc()
		c.logger.WithContext(ctx).WithError(err).Errorf("HTTP request failed: %s %s", req.Method, req.URL.String())
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.OutboundRequests.WithLabelValues(req.Method, req.URL.Host, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.OutboundRequestDuration.WithLabelValues(req.Method, req.URL.Host).Observe(duration.Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: over %d bytes", MaxResponseSize)
	}

	c.logger.WithContext(ctx).Debugf("HTTP %s %s -> %d (%s)",
		req.Method, req.URL.String(), resp.StatusCode, duration)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   duration,
	}, nil
}

// Get performs a GET request with the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return c.Do(ctx, req)
}
