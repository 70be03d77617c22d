package s2

import (
	"errors"
	"fmt"
)

// Common errors returned by the Semantic Scholar client.
var (
	// ErrNotFound indicates the paper was not found.
	ErrNotFound = errors.New("not found in Semantic Scholar")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("Semantic Scholar authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("Semantic Scholar rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")
)

// APIError represents a non-success response from the Semantic Scholar API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Semantic Scholar API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing paper.
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
