package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// mockInterceptor records calls and returns a configured result.
type mockInterceptor struct {
	name   string
	result Result
	err    error
	calls  []*http.Request
}

func (m *mockInterceptor) Name() string { return m.name }

func (m *mockInterceptor) Intercept(ctx context.Context, r *http.Request) (Result, error) {
	m.calls = append(m.calls, r)
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

func TestChain_Run_Empty(t *testing.T) {
	c := NewChain()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	out, err := c.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Request != req {
		t.Error("expected same request when no interceptors")
	}
	if out.ShortCircuited() {
		t.Error("expected no short-circuit")
	}
}

func TestChain_Run_Continue(t *testing.T) {
	a := &mockInterceptor{name: "a", result: Continue()}
	b := &mockInterceptor{name: "b", result: Continue()}
	c := NewChain(a, b)

	req := httptest.NewRequest(http.MethodGet, "/shoes", nil)
	out, err := c.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Request != req {
		t.Error("expected same request on continue")
	}
	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", len(a.calls), len(b.calls))
	}
}

func TestChain_Run_RewriteIsVisibleDownstream(t *testing.T) {
	rewritten := httptest.NewRequest(http.MethodGet, "/rewritten", nil)
	a := &mockInterceptor{name: "a", result: Rewrite(rewritten)}
	b := &mockInterceptor{name: "b", result: Continue()}
	c := NewChain(a, b)

	out, err := c.Run(context.Background(), httptest.NewRequest(http.MethodGet, "/orig", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.calls[0] != rewritten {
		t.Error("expected second interceptor to see rewritten request")
	}
	if out.Request != rewritten {
		t.Error("expected outcome to carry rewritten request")
	}
}

func TestChain_Run_ShortCircuitStopsChain(t *testing.T) {
	resp := domain.NewResponse(http.StatusForbidden, []byte("Forbidden"))
	a := &mockInterceptor{name: "guard", result: ShortCircuit(resp)}
	b := &mockInterceptor{name: "after", result: Continue()}
	c := NewChain(a, b)

	out, err := c.Run(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.ShortCircuited() || out.Response != resp {
		t.Fatal("expected short-circuit response")
	}
	if out.StoppedBy != "guard" {
		t.Errorf("StoppedBy = %q, want %q", out.StoppedBy, "guard")
	}
	if len(b.calls) != 0 {
		t.Error("expected later interceptor not to run")
	}
}

func TestChain_Run_ErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	a := &mockInterceptor{name: "a", err: boom}
	b := &mockInterceptor{name: "b", result: Continue()}
	c := NewChain(a, b)

	_, err := c.Run(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
	if len(b.calls) != 0 {
		t.Error("expected chain to abort on error")
	}
}

func TestChain_Run_ShortCircuitWithoutResponse(t *testing.T) {
	a := &mockInterceptor{name: "broken", result: Result{Action: ActionShortCircuit}}
	c := NewChain(a)

	if _, err := c.Run(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
		t.Fatal("expected error for short-circuit without response")
	}
}

func TestChain_UseIgnoresNil(t *testing.T) {
	c := NewChain()
	c.Use(nil)
	c.Use(InterceptorFunc("noop", func(ctx context.Context, r *http.Request) (Result, error) {
		return Continue(), nil
	}))
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestAction_String(t *testing.T) {
	if ActionShortCircuit.String() != "short_circuit" {
		t.Errorf("String() = %q", ActionShortCircuit.String())
	}
	if Action(99).String() != "unknown" {
		t.Errorf("String() = %q", Action(99).String())
	}
}
