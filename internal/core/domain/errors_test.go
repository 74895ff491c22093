package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestEdgeError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *EdgeError
		expected int
	}{
		{"routing miss", NewEdgeError(ErrorTypeRoutingMiss, "x", nil), http.StatusNotFound},
		{"rate limited", NewEdgeError(ErrorTypeRateLimited, "x", nil), http.StatusTooManyRequests},
		{"invalid", ErrInvalid("bad body"), http.StatusBadRequest},
		{"store", NewEdgeError(ErrorTypeStore, "x", nil), http.StatusServiceUnavailable},
		{"handler", NewEdgeError(ErrorTypeHandler, "x", nil), http.StatusInternalServerError},
		{"explicit", &EdgeError{Type: ErrorTypeHandler, StatusCode: http.StatusTeapot}, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestEdgeError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("get rl:1.2.3.4: %w", StoreError("get", cause))

	if !errors.Is(err, ErrStoreFailure) {
		t.Error("expected errors.Is(err, ErrStoreFailure)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to remain reachable")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("store error must not match ErrRateLimited")
	}

	var edgeErr *EdgeError
	if !errors.As(err, &edgeErr) {
		t.Fatal("expected errors.As to find *EdgeError")
	}
	if edgeErr.Type != ErrorTypeStore {
		t.Errorf("Type = %q, want %q", edgeErr.Type, ErrorTypeStore)
	}
}

func TestEdgeError_Error(t *testing.T) {
	err := NewEdgeError(ErrorTypeHandler, "render", errors.New("boom"))
	if got, want := err.Error(), "handler_failure: render: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = ErrInvalid("missing identity")
	if got, want := err.Error(), "invalid_request: missing identity"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
