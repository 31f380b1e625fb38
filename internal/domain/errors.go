package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAuthRequired        = errors.New("requester identity required")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrMissingStartImage   = errors.New("start image is required")
	ErrAuthToken           = errors.New("unable to obtain access token")
)

// ConfigurationError indicates a required setting is absent or invalid.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Setting)
}

// UploadError wraps a failure while persisting bytes to object storage.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RemoteAPIError carries the HTTP status and raw body from a provider response.
type RemoteAPIError struct {
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote api status %d: %s", e.Status, e.Body)
}

// TimeoutError distinguishes client-side deadline expiry from remote failures.
// Aggregate is true when the overall polling budget ran out rather than a
// single status request.
type TimeoutError struct {
	Aggregate bool
	After     string
}

func (e *TimeoutError) Error() string {
	if e.Aggregate {
		return fmt.Sprintf("video generation timed out after %s", e.After)
	}
	return fmt.Sprintf("status request timed out after %s", e.After)
}

// ResponseFormatError indicates a success payload in none of the known shapes.
type ResponseFormatError struct {
	Detail string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected operation response: %s", e.Detail)
}
