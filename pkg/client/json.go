package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of an error body ends up in an APIError.
const maxErrorBody = 512

// Envelope is the response wrapper used by every content API endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// GetJSON fetches endpoint and decodes its envelope. Non-2xx answers become
// an *APIError; success=false becomes ErrUnsuccessful. A malformed or
// unsuccessful body is evicted from the cache.
func GetJSON[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	var zero T

	resp, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return zero, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyError(resp, nil),
			Message:    msg,
		}
	}

	var env Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.Evict(ctx, endpoint, query)
		return zero, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	if !env.Success {
		c.Evict(ctx, endpoint, query)
		if env.Message != "" {
			return zero, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
		}
		return zero, ErrUnsuccessful
	}

	return env.Data, nil
}
