package openalex

import (
	"errors"
	"fmt"
)

// Common errors returned by the OpenAlex client.
var (
	// ErrNotFound indicates the work was not found.
	ErrNotFound = errors.New("not found in OpenAlex")

	// ErrAuthError indicates the request was rejected as unauthorized.
	ErrAuthError = errors.New("OpenAlex authorization error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("OpenAlex rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with OpenAlex")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from OpenAlex")
)

// APIError represents a non-success response from the OpenAlex API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAlex API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing work.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
