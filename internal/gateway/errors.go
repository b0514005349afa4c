package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError indicates a required credential or endpoint is missing.
// It is raised before any network call is attempted.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gateway not configured: %s is missing", e.Setting)
}

// ValidationError reports a missing or empty required input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// GatewayError indicates the remote call failed or returned an unusable
// payload.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ErrEmptyResponse is wrapped by GatewayError when the remote side answered
// without usable text.
var ErrEmptyResponse = errors.New("empty response")

// StatusMessage is the fallback text for an error response whose body
// carries no structured error.
func StatusMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "the request was rejected as invalid"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "not authorized; sign in again"
	case status == http.StatusNotFound:
		return "not found"
	case status == http.StatusTooManyRequests:
		return "too many requests; try again shortly"
	case status >= 500:
		return "the grading service is unavailable"
	default:
		if text := http.StatusText(status); text != "" {
			return text
		}
		return fmt.Sprintf("unexpected status %d", status)
	}
}
