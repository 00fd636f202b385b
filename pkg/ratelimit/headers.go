package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names sent by Laravel's ThrottleRequests middleware.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// ParseHeaders builds a state from response headers. ok is false when the
// response carries no rate limit information at all.
func ParseHeaders(headers http.Header, now time.Time) (state *RateLimitState, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	retryStr := headers.Get(HeaderRetryAfter)
	if remainStr == "" && retryStr == "" {
		return nil, false, nil
	}

	state = &RateLimitState{LastUpdate: now, ResetAt: now.Add(DefaultWindow)}

	if remainStr != "" {
		if state.Remaining, err = parseIntHeader(remainStr); err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
		}
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if state.Limit, err = parseIntHeader(limitStr); err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	switch {
	case retryStr != "":
		// A Retry-After means the window is exhausted whatever Remaining says.
		state.Remaining = 0
		resetAt, err := parseRetryAfter(retryStr, now)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
		}
		state.ResetAt = resetAt
	case headers.Get(HeaderReset) != "":
		ts, err := strconv.ParseInt(strings.TrimSpace(headers.Get(HeaderReset)), 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetAt = time.Unix(ts, 0)
	}

	state.UpdateHealth()
	return state, true, nil
}

func parseIntHeader(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return now.Add(time.Duration(secs) * time.Second), nil
	}
	return http.ParseTime(v)
}
