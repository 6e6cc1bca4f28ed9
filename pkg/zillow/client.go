package zillow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/httpclient"
	"github.com/zach-wendland/bna-rentals/pkg/metrics"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// ClientConfig holds the upstream API settings.
type ClientConfig struct {
	// Host is the RapidAPI host, e.g. "zillow56.p.rapidapi.com"
	Host string
	// APIKey is the RapidAPI key
	APIKey string
	// Retries is the total number of attempts per page fetch
	Retries int
	// Cooldown is the base backoff unit, multiplied by the attempt number
	Cooldown time.Duration
	// BaseURL overrides the derived https://Host base when set
	BaseURL string
}

// Client fetches search result pages from the listings API.
type Client struct {
	http   *httpclient.Client
	config ClientConfig
	logger ectologger.Logger
}

func NewClient(http *httpclient.Client, config ClientConfig, logger ectologger.Logger) *Client {
	if config.Retries < 1 {
		config.Retries = 1
	}
	return &Client{
		http:   http,
		config: config,
		logger: logger,
	}
}

// Page is one fetched search result page. A 404 from the upstream maps
// to a Page with no results rather than an error.
type Page struct {
	Results []map[string]any
	// TotalPages is the page count the payload declares, 0 when absent
	TotalPages int
}

// FetchPage fetches a single search result page with retries. Page
// numbers below 1 are clamped to 1. A 401 or 403 fails immediately with
// an AuthError; a 429 waits cooldown * attempt and retries, failing
// with a RateLimitError once attempts are exhausted; any other failure
// backs off the same way and ends in an APIError carrying the extracted
// message and status.
func (c *Client) FetchPage(ctx context.Context, params SearchParams, page int) (*Page, error) {
	ctx, span := tracing.StartSpan(ctx, "ZillowClient.FetchPage")
	defer span.End()

	if page < 1 {
		page = 1
	}

	base := c.config.BaseURL
	if base == "" {
		base = "https://" + c.config.Host
	}
	url := fmt.Sprintf("%s/search?%s", base, params.Query(page).Encode())
	headers := map[string]string{
		"X-RapidAPI-Key":  c.config.APIKey,
		"X-RapidAPI-Host": c.config.Host,
	}

	var lastMessage string
	var lastStatus int
	var lastBody []byte
	rateLimited := false

	for attempt := 1; attempt <= c.config.Retries; attempt++ {
		resp, err := c.http.Get(ctx, url, headers)
		switch {
		case err != nil:
			rateLimited = false
			lastMessage = err.Error()
			lastStatus = 0
			lastBody = nil

		case resp.StatusCode == http.StatusNotFound:
			// Nothing matches the search. Not an error.
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"location": params.Location,
				"page":     page,
			}).Info("no listings found for location")
			metrics.RecordPageFetch(params.Location, "not_found", 0)
			return &Page{}, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			metrics.RecordPageFetch(params.Location, "auth_error", 0)
			return nil, NewAuthError(resp.StatusCode, resp.Body)

		case resp.StatusCode == http.StatusTooManyRequests:
			rateLimited = true
			lastStatus = resp.StatusCode
			lastBody = resp.Body
			lastMessage = "rate limited"
			metrics.RateLimitRetries.Inc()

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result, err := c.parsePage(resp.Body)
			if err != nil {
				rateLimited = false
				lastMessage = err.Error()
				lastStatus = resp.StatusCode
				lastBody = resp.Body
				break
			}
			metrics.RecordPageFetch(params.Location, "ok", len(result.Results))
			return result, nil

		default:
			rateLimited = false
			lastMessage = extractMessage(resp.Body, resp.StatusCode)
			lastStatus = resp.StatusCode
			lastBody = resp.Body
		}

		if attempt < c.config.Retries {
			wait := c.config.Cooldown * time.Duration(attempt)
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"location": params.Location,
				"page":     page,
				"attempt":  attempt,
				"wait":     wait.String(),
				"status":   lastStatus,
			}).Warnf("page fetch failed, retrying: %s", lastMessage)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	metrics.RecordPageFetch(params.Location, "error", 0)
	if rateLimited {
		return nil, NewRateLimitError(lastBody, c.config.Retries)
	}
	return nil, NewAPIError(lastMessage, lastStatus, lastBody)
}

// parsePage decodes a successful payload and extracts the result set.
// The payload may be an object carrying a "results" or "props" sequence,
// or a bare sequence of records.
func (c *Client) parsePage(body []byte) (*Page, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode search payload: %w", err)
	}

	page := &Page{}
	switch v := payload.(type) {
	case map[string]any:
		if seq, ok := sequenceField(v, "results"); ok {
			page.Results = seq
		} else if seq, ok := sequenceField(v, "props"); ok {
			page.Results = seq
		}
		page.TotalPages = intField(v, "totalPages")
	case []any:
		page.Results = toRecords(v)
	}
	return page, nil
}

func sequenceField(m map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := m[key].([]any)
	if !ok {
		return nil, false
	}
	return toRecords(raw), true
}

func toRecords(raw []any) []map[string]any {
	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// extractMessage pulls a human readable message out of an error payload.
func extractMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(statusCode)
}

// sleep waits for the given duration unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
