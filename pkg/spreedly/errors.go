package spreedly

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the concrete error types through errors.Is.
var (
	ErrConfiguration = errors.New("spreedly: invalid configuration")
	ErrNotFound      = errors.New("spreedly: resource not found")
	ErrUnauthorized  = errors.New("spreedly: unauthorized")
	ErrHTTP          = errors.New("spreedly: http failure")
)

// ConfigurationError is returned before any network I/O when credentials are missing.
type ConfigurationError struct {
	Fields []string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrConfiguration.Error()
	}
	return fmt.Sprintf("%s: missing %s", ErrConfiguration, strings.Join(e.Fields, ", "))
}

func (e *ConfigurationError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// NotFoundError reports an HTTP 404 from the API.
type NotFoundError struct {
	Method string
	URL    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrNotFound, e.Method, e.URL)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnauthorizedError reports an HTTP 401 or 403 from the API.
type UnauthorizedError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: %s %s returned status %d", ErrUnauthorized, e.Method, e.URL, e.StatusCode)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// HTTPError reports a transport failure (Err set) or a status the client cannot
// interpret as either a result or a business failure (StatusCode set).
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", ErrHTTP, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s %s returned unexpected status %d", ErrHTTP, e.Method, e.URL, e.StatusCode)
}

func (e *HTTPError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrHTTP}
	}
	return []error{ErrHTTP, e.Err}
}
