package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// Action is what an interceptor decided for a request.
type Action int

const (
	// ActionContinue passes the request on unchanged.
	ActionContinue Action = iota
	// ActionRewrite passes a replacement request to the next interceptor.
	ActionRewrite
	// ActionShortCircuit ends the chain with a final response.
	ActionShortCircuit
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionRewrite:
		return "rewrite"
	case ActionShortCircuit:
		return "short_circuit"
	default:
		return "unknown"
	}
}

// Result is returned by an interceptor.
type Result struct {
	Action   Action
	Request  *http.Request
	Response *domain.Response
}

// Continue leaves the request untouched.
func Continue() Result { return Result{Action: ActionContinue} }

// Rewrite replaces the request seen by later interceptors and the router.
func Rewrite(r *http.Request) Result { return Result{Action: ActionRewrite, Request: r} }

// ShortCircuit ends the chain with resp.
func ShortCircuit(resp *domain.Response) Result {
	return Result{Action: ActionShortCircuit, Response: resp}
}

// Interceptor inspects a request before routing.
type Interceptor interface {
	Name() string
	Intercept(ctx context.Context, r *http.Request) (Result, error)
}

type funcInterceptor struct {
	name string
	fn   func(ctx context.Context, r *http.Request) (Result, error)
}

func (f funcInterceptor) Name() string { return f.name }

func (f funcInterceptor) Intercept(ctx context.Context, r *http.Request) (Result, error) {
	return f.fn(ctx, r)
}

// InterceptorFunc adapts a function to an Interceptor.
func InterceptorFunc(name string, fn func(ctx context.Context, r *http.Request) (Result, error)) Interceptor {
	return funcInterceptor{name: name, fn: fn}
}

// Outcome is what the chain hands back to the dispatcher. Exactly one of
// Request and Response is set.
type Outcome struct {
	Request  *http.Request
	Response *domain.Response
	// StoppedBy names the interceptor that short-circuited, if any.
	StoppedBy string
}

// ShortCircuited reports whether an interceptor produced the final response.
func (o Outcome) ShortCircuited() bool {
	return o.Response != nil
}

// Chain runs interceptors in registration order.
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain from interceptors.
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, i := range interceptors {
		c.Use(i)
	}
	return c
}

// Use appends an interceptor. Nil interceptors are ignored.
func (c *Chain) Use(i Interceptor) {
	if i == nil {
		return
	}
	c.interceptors = append(c.interceptors, i)
}

// Len returns the number of interceptors.
func (c *Chain) Len() int {
	return len(c.interceptors)
}

// Run executes every interceptor in order. Each sees the request produced by
// the previous one. A short-circuit stops the chain; an interceptor error
// aborts it and is returned.
func (c *Chain) Run(ctx context.Context, r *http.Request) (Outcome, error) {
	current := r
	for _, i := range c.interceptors {
		res, err := i.Intercept(ctx, current)
		if err != nil {
			return Outcome{}, fmt.Errorf("interceptor %s error: %w", i.Name(), err)
		}

		switch res.Action {
		case ActionShortCircuit:
			if res.Response == nil {
				return Outcome{}, fmt.Errorf("interceptor %s short-circuited without a response", i.Name())
			}
			return Outcome{Response: res.Response, StoppedBy: i.Name()}, nil
		case ActionRewrite:
			if res.Request != nil {
				current = res.Request
				ctx = current.Context()
			}
		case ActionContinue:
		}
	}

	return Outcome{Request: current}, nil
}
