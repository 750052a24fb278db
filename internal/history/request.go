package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIError represents an error response from the history API. Message
// carries the server's own error text when the body is the usual
// {"message": ...} JSON shape, the HTTP status text otherwise.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // server-requested wait, 0 if none given
}

func (e *APIError) Error() string {
	return fmt.Sprintf("history api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the request may be retried. History reads
// are idempotent, so anything transient qualifies: server errors,
// throttling, and request timeouts. Client errors (bad room id, auth)
// never do.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout
}

// newAPIError builds an APIError from a failed response.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		apiErr.Message = wire.Message
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	return apiErr
}

// fetch performs one GET attempt against the history API.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp, body)
	}

	return body, nil
}

// get fetches and decodes a response, retrying transient failures with
// jittered exponential backoff. A throttled response's Retry-After
// overrides the computed backoff when it asks for a longer wait.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; ; attempt++ {
		body, err := c.fetch(ctx, path, query)
		if err == nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil
		}

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return err
		}
		lastErr = err
		if attempt == c.maxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}

		// Jitter: backoff * (0.5 to 1.5)
		wait := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
		if apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		c.logger.Debug("retrying history fetch",
			"attempt", attempt+1,
			"wait", wait,
			"path", path,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}
