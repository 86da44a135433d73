// Package sfl_http is the outbound client for the Sunflower Land API.
// It owns authentication, bounded retry with backoff, and the courtesy
// request limiter; pacing between players is the caller's concern.
package sfl_http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmaher/sfl-tracker/internal/config"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
	"golang.org/x/time/rate"
)

type authScheme int

const (
	authAPIKey authScheme = iota // x-api-key header (farm endpoint)
	authBearer                   // Authorization header (marketplace endpoint)
)

type Client struct {
	baseURL     string
	apiKey      string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       config.RetryLimits
	Latency     *telemetry.LatencyTracker

	// sleep is swapped out in tests so retry paths run instantly.
	sleep func(time.Duration)
}

func NewClient(cfg *config.Config, retry config.RetryLimits) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		bearerToken: cfg.BearerToken,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		// One request per second is far below the upstream limit; the
		// limiter only guards against bugs in the calling loop.
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   retry,
		Latency: telemetry.NewLatencyTracker(256),
		sleep:   time.Sleep,
	}
}

// FetchFarm retrieves the farm snapshot for one farm ID. Farm lookups
// are the anchor of a player's pipeline run, so they get the wider
// fallback attempt budget.
func (c *Client) FetchFarm(ctx context.Context, farmID string) ([]byte, error) {
	return c.get(ctx, "/community/farms/"+farmID, authAPIKey, c.retry.FallbackAttempts)
}

// FetchMarketplace retrieves the marketplace profile (trade feed) for
// one farm ID.
func (c *Client) FetchMarketplace(ctx context.Context, farmID string) ([]byte, error) {
	return c.get(ctx, "/marketplace/profile/"+farmID, authBearer, c.retry.MaxAttempts)
}

func (c *Client) get(ctx context.Context, path string, auth authScheme, attempts int) ([]byte, error) {
	if attempts < 1 {
		attempts = 1
	}
	baseDelay := time.Duration(c.retry.BaseDelaySec * float64(time.Second))
	maxBackoff := time.Duration(c.retry.MaxBackoffSec * float64(time.Second))

	var sawRateLimit bool
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("limiter wait: %w", err)
		}

		body, status, err := c.doOnce(ctx, path, auth)
		if err != nil {
			// Timeout or connection failure: transient.
			lastErr = err
			telemetry.Warnf("sfl_http: GET %s failed (attempt %d/%d): %v", path, attempt+1, attempts, err)
			if attempt < attempts-1 {
				c.sleep(baseDelay)
			}
			continue
		}

		switch {
		case status == http.StatusOK:
			if len(body) == 0 {
				// The marketplace endpoint intermittently returns an
				// empty 200 body; treat it as transient.
				lastErr = fmt.Errorf("empty response body")
				telemetry.Warnf("sfl_http: GET %s returned empty body (attempt %d/%d)", path, attempt+1, attempts)
				if attempt < attempts-1 {
					c.sleep(baseDelay)
				}
				continue
			}
			return body, nil

		case status == http.StatusTooManyRequests:
			sawRateLimit = true
			backoff := baseDelay * (1 << min(attempt, 4))
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			telemetry.Warnf("sfl_http: GET %s rate limited (attempt %d/%d), backing off %s", path, attempt+1, attempts, backoff)
			if attempt < attempts-1 {
				c.sleep(backoff)
			}

		case status == http.StatusNotFound || status == http.StatusGone ||
			status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, fmt.Errorf("%w: GET %s status=%d", ErrNotFound, path, status)

		default:
			lastErr = fmt.Errorf("status=%d", status)
			telemetry.Warnf("sfl_http: GET %s status=%d (attempt %d/%d)", path, status, attempt+1, attempts)
			if attempt < attempts-1 {
				c.sleep(baseDelay)
			}
		}
	}

	if sawRateLimit {
		return nil, fmt.Errorf("%w: GET %s after %d attempts", ErrRateLimited, path, attempts)
	}
	return nil, fmt.Errorf("%w: GET %s after %d attempts: %v", ErrUnavailable, path, attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, auth authScheme) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	switch auth {
	case authAPIKey:
		req.Header.Set("x-api-key", c.apiKey)
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	elapsed := time.Since(start)
	c.Latency.Record(elapsed)
	telemetry.Debugf("sfl_http: GET %s -> %d (%s)", path, resp.StatusCode, elapsed)

	return body, resp.StatusCode, nil
}
