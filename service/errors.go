package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAttributeNotFound is returned when attribute metadata has no entry for a name
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrUnsupportedAuth is returned for an auth mode the client cannot build a header for
	ErrUnsupportedAuth = errors.New("unsupported auth mode")
	// ErrMissingCredentials is returned when the auth mode has no credentials
	ErrMissingCredentials = errors.New("missing credentials")
)

// APIError is returned for any MoySklad response with status >= 400
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moysklad %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
