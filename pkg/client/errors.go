package client

import (
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx response whose body was valid JSON.
// Detail carries the backend-provided reason when present.
type HTTPError struct {
	StatusCode int
	Detail     string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
}

// MalformedResponseError means the body could not be parsed as JSON. This
// points at misrouting (wrong base URL, a proxy error page) rather than an
// application-level rejection.
type MalformedResponseError struct {
	StatusCode int
	Body       string // truncated raw body
	HTML       bool
	RequestID  string
}

func (e *MalformedResponseError) Error() string {
	if e.HTML {
		return fmt.Sprintf("HTTP %d: response is an HTML page, not JSON", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: response is not valid JSON", e.StatusCode)
}

// TransportError wraps a failure to reach the backend at all.
type TransportError struct {
	Err       error
	RequestID string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthorized reports a 401 or 403, i.e. the device's trust was revoked.
func IsUnauthorized(err error) bool {
	return IsStatus(err, 401) || IsStatus(err, 403)
}

// IsMalformed reports whether err is a MalformedResponseError.
func IsMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// Detail extracts the backend-provided reason from err, or "" if there is none.
func Detail(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Detail
	}
	return ""
}
