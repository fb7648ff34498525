package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeAuth represents credential exchange failures against the OAuth endpoint
	ErrTypeAuth ErrorType = "authentication"
	// ErrTypeTransport represents network-level failures (DNS, refused, timeout)
	ErrTypeTransport ErrorType = "transport"
	// ErrTypeUpstream represents non-2xx responses from the upstream data API
	ErrTypeUpstream ErrorType = "upstream"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Status  int                    `json:"status,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStatus attaches the upstream HTTP status to the error
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// AuthError creates a new authentication error
func AuthError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeAuth,
		Message: msg,
		Cause:   cause,
	}
}

// TransportError creates a new transport error
func TransportError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeTransport,
		Message: msg,
		Cause:   cause,
	}
}

// UpstreamError creates a new upstream HTTP error carrying the upstream status
func UpstreamError(msg string, status int) *AppError {
	return &AppError{
		Type:    ErrTypeUpstream,
		Message: msg,
		Status:  status,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  404,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// GetStatus returns the HTTP status carried by an AppError, or fallback when absent
func GetStatus(err error, fallback int) int {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Status == 0 {
		return fallback
	}
	return appErr.Status
}
