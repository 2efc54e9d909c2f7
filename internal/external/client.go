// Package external holds the outbound clients of the service. Every call to a
// third-party API goes through BaseClient, which applies circuit breaking,
// request-id propagation and error mapping. Calls are never retried.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"bluewaters/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BaseClient pairs an *http.Client with a circuit breaker.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBreaker builds the breaker used by vendor clients: it opens after more
// than five consecutive failures and half-opens after 30s.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
}

// NewBaseClient creates a BaseClient with its own breaker.
func NewBaseClient(httpClient *http.Client, breakerName, userAgent string) *BaseClient {
	return NewBaseClientWithBreaker(httpClient, NewBreaker(breakerName), userAgent)
}

// NewBaseClientWithBreaker creates a BaseClient around a caller-owned breaker.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	userAgent string,
) *BaseClient {
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// BreakerState reports the current state of the underlying circuit breaker.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do executes req once through the breaker. 5xx and 429 responses count as
// breaker failures and come back as *types.AppError with the body closed; any
// other status is returned to the caller as-is, body open.
//
// Transport failures and an open breaker are also reported as
// *types.AppError with an upstream_* or internal_* code.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
	}
	return nil, c.mapError(resp, err)
}

// BreakerRejected reports whether err came from an open (or saturated
// half-open) breaker, i.e. the upstream was never contacted.
func BreakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if BreakerRejected(err) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(types.ErrCodeInternalUnexpected, fmt.Sprintf("upstream request failed: %v", err), err)
}
