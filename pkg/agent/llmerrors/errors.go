// Package llmerrors provides structured error classification for generation backends.
package llmerrors

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different categories of LLM errors for retry logic.
type ErrorType int8

const (
	// Retryable error types.

	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeEmptyResponse represents a successful call that returned no text.
	ErrorTypeEmptyResponse

	// Non-retryable error types.

	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed request errors (too long, violates policy).
	ErrorTypeBadPrompt
	// ErrorTypeUnknown represents default for unclassified errors.
	ErrorTypeUnknown

	// ErrorTypeServiceUnavailable is emitted once transport retries are exhausted.
	// The caller treats the backend as down for this attempt.
	ErrorTypeServiceUnavailable
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	case ErrorTypeServiceUnavailable:
		return "service_unavailable"
	default:
		return "invalid"
	}
}

// Error represents a classified LLM error.
type Error struct {
	Err        error     // Wrapped underlying error
	Message    string    // Human-readable error message
	Type       ErrorType // Classified error type
	StatusCode int       // HTTP status code if applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("LLM error (%s): %s", e.Type.String(), e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("LLM error (%s): %v", e.Type.String(), e.Err)
	}
	return fmt.Sprintf("LLM error (%s): status %d", e.Type.String(), e.StatusCode)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the transport layer should try again.
// Everything is retryable unless explicitly excluded.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeAuth, ErrorTypeBadPrompt, ErrorTypeServiceUnavailable:
		return false
	default:
		return true
	}
}

// Is checks if an error is of a specific type.
func Is(err error, errorType ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type of an error, or ErrorTypeUnknown if not classified.
func TypeOf(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// NewError creates a new classified LLM error.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewErrorWithStatus creates a new classified LLM error with HTTP status.
func NewErrorWithStatus(errorType ErrorType, statusCode int, message string) *Error {
	return &Error{Type: errorType, StatusCode: statusCode, Message: message}
}

// NewErrorWithCause creates a new classified LLM error wrapping another error.
func NewErrorWithCause(errorType ErrorType, cause error, message string) *Error {
	return &Error{Type: errorType, Err: cause, Message: message}
}

// FromStatus classifies an HTTP status returned by a provider SDK.
// It returns nil when the status carries no classification (0 or 2xx).
func FromStatus(statusCode int, cause error) *Error {
	var t ErrorType
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		t = ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		t = ErrorTypeTransient
	case statusCode >= 500:
		t = ErrorTypeTransient
	case statusCode >= 400:
		t = ErrorTypeBadPrompt
	default:
		return nil
	}
	return &Error{Type: t, Err: cause, StatusCode: statusCode, Message: fmt.Sprintf("status %d: %v", statusCode, cause)}
}

// Classify maps an arbitrary provider error onto an ErrorType by inspecting
// context errors and then well-known message patterns. Already classified
// errors are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewErrorWithCause(ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return NewErrorWithCause(ErrorTypeTransient, err, "request canceled")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "unauthorized", "api key", "permission denied"):
		return NewErrorWithCause(ErrorTypeAuth, err, "authentication error")
	case containsAny(msg, "429", "rate limit", "quota", "resource_exhausted"):
		return NewErrorWithCause(ErrorTypeRateLimit, err, "rate limiting detected")
	case containsAny(msg, "500", "502", "503", "504", "overloaded", "unavailable"):
		return NewErrorWithCause(ErrorTypeTransient, err, "server error")
	case containsAny(msg, "timeout", "connection", "network", "temporary", "eof", "reset"):
		return NewErrorWithCause(ErrorTypeTransient, err, "network or connection error")
	case containsAny(msg, "400", "invalid", "malformed", "too large", "not found"):
		return NewErrorWithCause(ErrorTypeBadPrompt, err, "prompt or request error")
	default:
		return NewErrorWithCause(ErrorTypeUnknown, err, "unclassified error")
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// SanitizePrompt creates a safe representation of a prompt for logging.
// Long prompts keep their first and last portions plus a hash of the full content.
func SanitizePrompt(prompt string, maxChars int) string {
	runes := []rune(prompt)
	if len(runes) <= maxChars {
		return prompt
	}

	half := maxChars / 2
	if half < 20 {
		half = 20
	}
	if 2*half >= len(runes) {
		return prompt
	}

	hash := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("%s...[%d runes, hash:%x]...%s",
		string(runes[:half]), len(runes), hash[:8], string(runes[len(runes)-half:]))
}

// IsServiceUnavailable checks if the error indicates exhausted transport retries.
func IsServiceUnavailable(err error) bool {
	return Is(err, ErrorTypeServiceUnavailable)
}

// NewServiceUnavailableError wraps the last retryable error after retries are exhausted.
func NewServiceUnavailableError(cause error, attempts int) *Error {
	return &Error{
		Type:    ErrorTypeServiceUnavailable,
		Err:     cause,
		Message: fmt.Sprintf("service unavailable after %d attempts", attempts),
	}
}
