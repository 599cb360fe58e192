// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package hospitable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/metrics"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://public.api.hospitable.com"

const (
	breakerName       = "hospitable-api"
	defaultMaxRetries = 5
	maxRetryDelay     = 2 * time.Minute
	maxErrorBody      = 4096
)

var (
	// ErrMissingToken is returned by NewClient without an API token.
	ErrMissingToken = errors.New("hospitable: API token is required")

	errMissingAction = errors.New("webhook event has no action")
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hospitable: GET %s failed %d: %s", e.Path, e.StatusCode, e.Body)
}

// Client is a read-only client for the Hospitable public API. Requests are
// throttled by a token bucket, retried on HTTP 429 and guarded by a circuit
// breaker that only counts transport failures and 5xx responses.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
	perPage    int
	maxRetries int
	baseDelay  time.Duration
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.HospitableConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("hospitable: invalid base URL: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(),
		perPage:    perPage,
		maxRetries: defaultMaxRetries,
		baseDelay:  time.Second,
	}, nil
}

func newBreaker() *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Hospitable circuit breaker state changed")
		},
	})
}

// get performs one logical GET, decoding a 200 body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doRequestWithRateLimit(ctx, path, query, out)
	})
	switch {
	case err == nil:
		metrics.RecordCircuitBreakerResult(breakerName, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerResult(breakerName, "rejected")
		return fmt.Errorf("hospitable: GET %s: %w", path, err)
	default:
		metrics.RecordCircuitBreakerResult(breakerName, "failure")
		return err
	}
}

// doRequestWithRateLimit retries HTTP 429 with exponential backoff, honoring
// Retry-After when the server sends one.
func (c *Client) doRequestWithRateLimit(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(path, status).Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return fmt.Errorf("hospitable: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("hospitable: GET %s: %w", path, err)
		}
		status = strconv.Itoa(resp.StatusCode)

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			metrics.UpstreamRateLimited.WithLabelValues(path).Inc()

			if attempt >= c.maxRetries {
				return &StatusError{
					Path:       path,
					StatusCode: resp.StatusCode,
					Body:       fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
				}
			}
			delay := retryDelay(resp.Header.Get("Retry-After"), c.baseDelay<<attempt)
			logging.Warn().Str("path", path).Dur("retry_delay", delay).Int("attempt", attempt+1).
				Msg("Hospitable API rate limited (HTTP 429), retrying")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		return decodeResponse(resp, path, out)
	}
}

func decodeResponse(resp *http.Response, path string, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hospitable: decode %s: %w", path, err)
	}
	return nil
}

// retryDelay reads Retry-After as seconds or an HTTP date, else fallback.
func retryDelay(header string, fallback time.Duration) time.Duration {
	delay := fallback
	if header != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
			delay = time.Duration(secs) * time.Second
		} else if at, err := http.ParseTime(header); err == nil {
			delay = time.Until(at)
		}
	}
	if delay < 0 {
		delay = 0
	}
	return min(delay, maxRetryDelay)
}
