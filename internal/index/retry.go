package index

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryableStatus lists the HTTP status codes that indicate a transient
// index failure worth retrying. All other non-success statuses are permanent
// request errors and surface immediately.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Default retry parameters for the REST transport.
const (
	defaultMaxAttempts   = 4
	defaultRetryInterval = 500 * time.Millisecond
	defaultRetryMaxWait  = 10 * time.Second
)

// retryingClient issues HTTP requests with exponential backoff on transient
// failures. Connection errors and retryable status codes are retried across
// all verbs up to maxAttempts total attempts; the request body is rebuilt
// from the buffered payload on every attempt.
type retryingClient struct {
	// client performs the actual HTTP round trips.
	client *http.Client
	// maxAttempts is the total number of attempts including the first.
	maxAttempts int
	// initialInterval seeds the exponential backoff schedule.
	initialInterval time.Duration
	// log receives a WARN entry per retried attempt.
	log *slog.Logger
}

// do sends one request, retrying transient failures. On success the caller
// owns the response body. A non-retryable status is returned as-is for the
// caller to interpret — do only decides whether to retry, not whether the
// response is an error.
func (c *retryingClient) do(ctx context.Context, method, url string, payload []byte, headers map[string]string) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = defaultRetryMaxWait
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("index: create request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("index: request failed: %w", err)
		case retryableStatus[resp.StatusCode]:
			lastErr = fmt.Errorf("index: transient HTTP %d from %s %s", resp.StatusCode, method, url)
			// Drain so the connection can be reused, then retry.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
		default:
			return resp, nil
		}

		if attempt == c.maxAttempts {
			break
		}

		wait := bo.NextBackOff()
		c.log.Warn("index: retrying after transient failure",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("index: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("index: giving up after %d attempts: %w", c.maxAttempts, lastErr)
}
