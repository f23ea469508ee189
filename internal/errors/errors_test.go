package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("generate content")

	expected := "authentication failed: generate content"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrAuthFailed) {
		t.Error("Expected AuthError to match ErrAuthFailed")
	}

	if !err.Is(NewAuthError("target")) {
		t.Error("Expected error to be auth error type")
	}

	if err.Is(NewAPIError(400, "test", "other")) {
		t.Error("Expected error not to match different type")
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(500, "https://example.test/v1", "generate content")

	expected := "API error: generate content [500] at https://example.test/v1"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if GetHTTPStatus(err) != 500 {
		t.Errorf("GetHTTPStatus() = %d, want 500", GetHTTPStatus(err))
	}
	if GetEndpoint(err) != "https://example.test/v1" {
		t.Errorf("GetEndpoint() = %q", GetEndpoint(err))
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("generate content", "https://example.test", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected NetworkError to unwrap to its cause")
	}
	if !IsNetworkError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("Expected wrapped NetworkError to be detected")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %s, want cause in message", err.Error())
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("generate content", context.DeadlineExceeded)

	if !IsTimeoutError(err) {
		t.Error("Expected TimeoutError to be detected")
	}
	if !IsTimeoutError(context.DeadlineExceeded) {
		t.Error("Expected context.DeadlineExceeded to count as timeout")
	}
}

func TestBlockedError(t *testing.T) {
	err := NewBlockedError("SAFETY")
	if err.Error() != "content blocked: SAFETY" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !IsBlockedError(err) {
		t.Error("Expected BlockedError to be detected")
	}

	empty := NewBlockedError("")
	if empty.Error() != "content blocked" {
		t.Errorf("Error() = %s, want 'content blocked'", empty.Error())
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("no candidates", "candidates")

	if err.Error() != "parse error at candidates: no candidates" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("Expected ParseError to match ErrInvalidResponse")
	}
	if !IsParseError(fmt.Errorf("outer: %w", err)) {
		t.Error("Expected wrapped ParseError to be detected")
	}
	if NewParseError("bad", "").Error() != "parse error: bad" {
		t.Errorf("unexpected message without path")
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{401, IsAuthError, "auth"},
		{403, IsAuthError, "auth"},
		{429, IsRateLimitError, "rate limit"},
		{404, IsModelError, "model"},
		{504, IsTimeoutError, "timeout"},
		{500, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr)
		}, "api"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.name), func(t *testing.T) {
			err := FromStatus(tt.status, "endpoint", "generate content", `{"error":{}}`)
			if !tt.check(err) {
				t.Errorf("FromStatus(%d) = %T, wrong category", tt.status, err)
			}
			if GetHTTPStatus(err) != tt.status {
				t.Errorf("GetHTTPStatus() = %d, want %d", GetHTTPStatus(err), tt.status)
			}
			if GetResponseBody(err) != `{"error":{}}` {
				t.Errorf("GetResponseBody() = %q", GetResponseBody(err))
			}
		})
	}
}

func TestWithBodyTruncates(t *testing.T) {
	be := &BackendError{Op: "op"}
	be.WithBody(strings.Repeat("x", maxBodyLength+100))
	if len(be.Body) != maxBodyLength {
		t.Errorf("Body length = %d, want %d", len(be.Body), maxBodyLength)
	}
}

func TestHelpersOnPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	if IsAuthError(plain) || IsRateLimitError(plain) || IsNetworkError(plain) ||
		IsTimeoutError(plain) || IsBlockedError(plain) || IsParseError(plain) || IsModelError(plain) {
		t.Error("Expected plain error to match no category")
	}
	if GetHTTPStatus(plain) != 0 || GetEndpoint(plain) != "" || GetResponseBody(plain) != "" {
		t.Error("Expected zero values for plain error")
	}
	if !IsAuthError(ErrMissingAPIKey) {
		t.Error("Expected ErrMissingAPIKey to count as auth error")
	}
	if !IsCanceled(fmt.Errorf("x: %w", context.Canceled)) {
		t.Error("Expected wrapped context.Canceled to be detected")
	}
}
