package client

import (
	"errors"
	"fmt"
)

var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context ends during backoff.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the tracker blocks a request because
	// the content API window is exhausted.
	ErrRateLimited = errors.New("request blocked: content api rate limit exhausted")

	// ErrUnsuccessful is returned when the API answers with success=false.
	ErrUnsuccessful = errors.New("content api reported failure")
)

// ErrorClass classifies failed requests.
type ErrorClass string

const (
	// ErrorClassClient is a 4xx other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer is a 5xx.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit is a 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork is a transport error or timeout.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a non-2xx answer from the content API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content api %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("content api %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry reports whether errors of the given class are worth retrying.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
