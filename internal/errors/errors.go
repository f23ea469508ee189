// Package errors provides the typed errors returned by the completion backends.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
	ErrUnknownBackend  = errors.New("unknown backend")
)

// maxBodyLength limits how much of an error body is kept for diagnostics.
const maxBodyLength = 4096

// BackendError carries the details shared by every backend failure.
type BackendError struct {
	Op         string
	Endpoint   string
	HTTPStatus int
	Body       string
	Cause      error
}

func (e *BackendError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.HTTPStatus > 0 {
		fmt.Fprintf(&sb, " [%d]", e.HTTPStatus)
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&sb, " at %s", e.Endpoint)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// WithBody attaches a (truncated) response body.
func (e *BackendError) WithBody(body string) *BackendError {
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength]
	}
	e.Body = body
	return e
}

// AuthError represents rejected or missing credentials
type AuthError struct {
	BackendError
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.BackendError.Error()
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(op string) *AuthError {
	return &AuthError{BackendError{Op: op}}
}

// APIError represents a non-success HTTP response
type APIError struct {
	BackendError
}

func (e *APIError) Error() string {
	return "API error: " + e.BackendError.Error()
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, op string) *APIError {
	return &APIError{BackendError{Op: op, Endpoint: endpoint, HTTPStatus: statusCode}}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	BackendError
}

func (e *TimeoutError) Error() string {
	return "request timed out: " + e.BackendError.Error()
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(op string, cause error) *TimeoutError {
	return &TimeoutError{BackendError{Op: op, Cause: cause}}
}

// NetworkError represents a transport failure before any response arrived
type NetworkError struct {
	BackendError
}

func (e *NetworkError) Error() string {
	return "network error: " + e.BackendError.Error()
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(op, endpoint string, cause error) *NetworkError {
	return &NetworkError{BackendError{Op: op, Endpoint: endpoint, Cause: cause}}
}

// UsageLimitError represents a usage limit exceeded error
type UsageLimitError struct {
	BackendError
}

func (e *UsageLimitError) Error() string {
	return "usage limit exceeded: " + e.BackendError.Error()
}

// NewUsageLimitError creates a new UsageLimitError
func NewUsageLimitError(op string) *UsageLimitError {
	return &UsageLimitError{BackendError{Op: op, HTTPStatus: http.StatusTooManyRequests}}
}

// ModelError represents an unknown or unavailable model
type ModelError struct {
	BackendError
	Model string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (%s): %s", e.Model, e.BackendError.Error())
}

// NewModelError creates a new ModelError
func NewModelError(model, op string) *ModelError {
	return &ModelError{BackendError: BackendError{Op: op}, Model: model}
}

// BlockedError represents a reply withheld by the provider's safety filters
type BlockedError struct {
	BackendError
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(reason string) *BlockedError {
	return &BlockedError{BackendError: BackendError{Op: "generate content"}, Reason: reason}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// FromStatus maps an HTTP status code to the matching typed error.
func FromStatus(status int, endpoint, op, body string) error {
	base := BackendError{Op: op, Endpoint: endpoint, HTTPStatus: status}
	base.WithBody(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{base}
	case status == http.StatusTooManyRequests:
		return &UsageLimitError{base}
	case status == http.StatusNotFound:
		return &ModelError{BackendError: base}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &TimeoutError{base}
	default:
		return &APIError{base}
	}
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) || errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrMissingAPIKey)
}

// IsRateLimitError checks if an error is a usage limit error
func IsRateLimitError(err error) bool {
	var limitErr *UsageLimitError
	return errors.As(err, &limitErr)
}

// IsNetworkError checks if an error is a transport error
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError checks if an error is a timeout
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded)
}

// IsBlockedError checks if an error is a safety block
func IsBlockedError(err error) bool {
	var blockedErr *BlockedError
	return errors.As(err, &blockedErr)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// IsModelError checks if an error is a model error
func IsModelError(err error) bool {
	var modelErr *ModelError
	return errors.As(err, &modelErr)
}

// IsCanceled checks if the caller gave up on the request
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0.
func GetHTTPStatus(err error) int {
	if be := backendError(err); be != nil {
		return be.HTTPStatus
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or "".
func GetEndpoint(err error) string {
	if be := backendError(err); be != nil {
		return be.Endpoint
	}
	return ""
}

// GetResponseBody returns the response body carried by err, or "".
func GetResponseBody(err error) string {
	if be := backendError(err); be != nil {
		return be.Body
	}
	return ""
}

func backendError(err error) *BackendError {
	var (
		authErr    *AuthError
		apiErr     *APIError
		timeoutErr *TimeoutError
		netErr     *NetworkError
		limitErr   *UsageLimitError
		modelErr   *ModelError
		blockedErr *BlockedError
	)
	switch {
	case errors.As(err, &authErr):
		return &authErr.BackendError
	case errors.As(err, &apiErr):
		return &apiErr.BackendError
	case errors.As(err, &timeoutErr):
		return &timeoutErr.BackendError
	case errors.As(err, &netErr):
		return &netErr.BackendError
	case errors.As(err, &limitErr):
		return &limitErr.BackendError
	case errors.As(err, &modelErr):
		return &modelErr.BackendError
	case errors.As(err, &blockedErr):
		return &blockedErr.BackendError
	}
	return nil
}
