package client

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{name: "client error should not retry", errorClass: ErrorClassClient, expected: false},
		{name: "server error should retry", errorClass: ErrorClassServer, expected: true},
		{name: "rate limit should retry", errorClass: ErrorClassRateLimit, expected: true},
		{name: "network error should retry", errorClass: ErrorClassNetwork, expected: true},
		{name: "empty error class should not retry", errorClass: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := shouldRetry(tt.errorClass); result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				StatusCode: 500,
				ErrorClass: ErrorClassServer,
				Message:    "Internal Server Error",
				Err:        io.ErrUnexpectedEOF,
			},
			expected: "api server error (status 500): Internal Server Error: unexpected EOF",
		},
		{
			name: "error without wrapped error",
			apiError: &APIError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "Not Found",
			},
			expected: "api client error (status 404): Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{StatusCode: 502, ErrorClass: ErrorClassServer, Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is should find the wrapped error")
	}

	wrapped := fmt.Errorf("get page: %w", err)
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", apiErr.StatusCode)
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "plain error is network", err: io.EOF, expected: ErrorClassNetwork},
		{name: "api error", err: &APIError{ErrorClass: ErrorClassRateLimit}, expected: ErrorClassRateLimit},
		{name: "wrapped api error", err: fmt.Errorf("x: %w", &APIError{ErrorClass: ErrorClassClient}), expected: ErrorClassClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classOf(tt.err); got != tt.expected {
				t.Errorf("classOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}
