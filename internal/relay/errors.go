package relay

import (
	"errors"
	"fmt"

	"github.com/illarion/varicrypt/internal/storage"
)

// Errors that can be checked with errors.Is.
var (
	// ErrNotFound indicates the message id is unknown, expired or was
	// already received. It is the same value the local store returns.
	ErrNotFound = storage.ErrNotFound
	// ErrRateLimited indicates the store is throttling this client.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrBadRequest indicates the store rejected the request body.
	ErrBadRequest = errors.New("request rejected")
)

// APIError represents an HTTP error from the message store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store error %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 400, 413, 422:
		return target == ErrBadRequest
	case 404:
		return target == ErrNotFound
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
