// Package errors defines the service error taxonomy shared by all components.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a service error.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// ServiceError is an error with an HTTP status and a client-safe message.
type ServiceError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value detail pair and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, status int, message string, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, HTTPStatus: status, cause: cause}
}

// InvalidInput reports missing or malformed caller-supplied data.
func InvalidInput(message string) *ServiceError {
	return newError(KindInvalidInput, http.StatusBadRequest, message, nil)
}

// Unauthorized reports missing, invalid, or expired credentials.
func Unauthorized(message string) *ServiceError {
	return newError(KindUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken normalizes every token verification failure to a single
// message so callers cannot distinguish expired from forged tokens.
func InvalidToken(cause error) *ServiceError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "invalid or expired token", cause)
}

// Forbidden reports an authenticated but disallowed request.
func Forbidden(message string) *ServiceError {
	return newError(KindForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports an unknown resource.
func NotFound(message string) *ServiceError {
	return newError(KindNotFound, http.StatusNotFound, message, nil)
}

// Conflict reports a duplicate-resource condition.
func Conflict(message string) *ServiceError {
	return newError(KindConflict, http.StatusConflict, message, nil)
}

// RateLimitExceeded reports that the caller exceeded the allowed request rate.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(KindRateLimited, http.StatusTooManyRequests, "too many requests, please try again later", nil)
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// Unavailable reports a degraded dependency.
func Unavailable(message string) *ServiceError {
	return newError(KindUnavailable, http.StatusServiceUnavailable, message, nil)
}

// Internal wraps an unexpected failure. The cause is logged server-side and
// never surfaced to the client.
func Internal(cause error) *ServiceError {
	return newError(KindInternal, http.StatusInternalServerError, "an unexpected error occurred", cause)
}

// AsServiceError extracts a *ServiceError from err, or wraps it as Internal.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return Internal(err)
}
