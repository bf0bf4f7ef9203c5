package client

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name: "status error",
			err: &FetchError{
				Endpoint:   "/pokemon/missingno",
				StatusCode: 404,
				Class:      ErrorClassClient,
				Message:    "404 Not Found",
			},
			expected: "failed to fetch /pokemon/missingno: 404 Not Found",
		},
		{
			name: "error with wrapped error",
			err: &FetchError{
				Endpoint: "/pokemon?limit=24&offset=0",
				Class:    ErrorClassNetwork,
				Message:  "network error",
				Err:      io.ErrUnexpectedEOF,
			},
			expected: "failed to fetch /pokemon?limit=24&offset=0: network error: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := &FetchError{Endpoint: "/pokemon/1", Class: ErrorClassNetwork, Message: "network error", Err: io.EOF}

	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is should find the wrapped error")
	}

	wrapped := fmt.Errorf("load page 0: %w", err)
	var fetchErr *FetchError
	if !errors.As(wrapped, &fetchErr) {
		t.Fatal("errors.As should find *FetchError")
	}
	if fetchErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", fetchErr.Class, ErrorClassNetwork)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"404 fetch error", &FetchError{StatusCode: 404}, true},
		{"wrapped 404", fmt.Errorf("resolve: %w", &FetchError{StatusCode: 404}), true},
		{"500 fetch error", &FetchError{StatusCode: 500}, false},
		{"other error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
