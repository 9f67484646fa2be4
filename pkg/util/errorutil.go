package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewConfigurationError signals a missing or malformed startup setting.
// Fatal: the service refuses to start on it.
func NewConfigurationError(message string) error {
	return NewDomainError("CONFIGURATION_ERROR", message, http.StatusInternalServerError, nil)
}

// NewAuthenticationError signals that session acquisition or renewal
// against the upstream platform failed twice in a row.
func NewAuthenticationError(message string, err error) error {
	return &DomainError{
		Code:       "AUTHENTICATION_FAILED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// NewUpstreamError wraps a non-2xx upstream response, preserving the
// upstream status code and body for diagnosis.
func NewUpstreamError(statusCode int, body string) error {
	return &DomainError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("upstream request failed with status %d", statusCode),
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"upstream_status": statusCode,
			"upstream_body":   body,
		},
	}
}

// NewNoCategoriesAvailable signals an empty category directory: the
// classifier cannot suggest anything and must not silently default.
func NewNoCategoriesAvailable() error {
	return NewDomainError("NO_CATEGORIES_AVAILABLE", "no categories available in the upstream directory", http.StatusConflict, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// UpstreamStatus extracts the upstream status code from an UPSTREAM_ERROR,
// or 0 when the error carries none.
func UpstreamStatus(err error) int {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return 0
	}
	if status, ok := domainErr.Details["upstream_status"].(int); ok {
		return status
	}
	return 0
}
