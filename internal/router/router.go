// Package router matches (method, path) pairs to handlers.
//
// Exact patterns are looked up directly and always win. Patterns containing
// ":name" segments are tried in registration order; the first structural
// match wins. Segments are compared and bound verbatim, without
// percent-decoding, so "/a%20b" binds "a%20b".
//
// Consecutive slashes produce empty segments, and a parameter segment will
// bind an empty string for them ("/shop//" style paths). This is kept as-is.
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// Params holds parameter bindings for one match.
type Params map[string]string

// Handler serves a matched route.
type Handler func(ctx context.Context, r *http.Request, params Params) (*domain.Response, error)

// Match is the result of a successful Dispatch.
type Match struct {
	Pattern string
	Handler Handler
	Params  Params
}

// NotFoundError is returned when no route matches. Params carries whatever
// the last structurally compatible parameterized route bound before a
// literal segment failed to match.
type NotFoundError struct {
	Method string
	Path   string
	Params Params
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.Method, e.Path)
}

// Unwrap lets errors.Is(err, domain.ErrRoutingMiss) succeed.
func (e *NotFoundError) Unwrap() error {
	return domain.ErrRoutingMiss
}

type route struct {
	method   string
	pattern  string
	segments []string
	handler  Handler
}

// Router holds the route table. Registration is expected at startup but is
// safe to interleave with Dispatch.
type Router struct {
	mu sync.RWMutex

	exact map[string]*route
	// params preserves registration order for parameterized routes.
	params []*route
}

// New creates an empty router.
func New() *Router {
	return &Router{
		exact: make(map[string]*route),
	}
}

// Register adds a route. Registering the same (method, pattern) twice
// replaces the handler and keeps the first position in the fallback order.
func (rt *Router) Register(method, pattern string, h Handler) {
	method = strings.ToUpper(method)
	pattern = NormalizePath(pattern)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !strings.Contains(pattern, "/:") {
		rt.exact[routeKey(method, pattern)] = &route{method: method, pattern: pattern, handler: h}
		return
	}

	for _, r := range rt.params {
		if r.method == method && r.pattern == pattern {
			r.handler = h
			return
		}
	}
	rt.params = append(rt.params, &route{
		method:   method,
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  h,
	})
}

// Dispatch resolves method and path to a route. A miss returns a
// *NotFoundError.
func (rt *Router) Dispatch(method, path string) (Match, error) {
	method = strings.ToUpper(method)
	path = NormalizePath(path)

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if r, ok := rt.exact[routeKey(method, path)]; ok {
		return Match{Pattern: r.pattern, Handler: r.handler, Params: Params{}}, nil
	}

	segments := splitPath(path)
	partial := Params{}

	for _, r := range rt.params {
		if r.method != method || len(r.segments) != len(segments) {
			continue
		}

		bound := Params{}
		matched := true
		for i, seg := range r.segments {
			if name, ok := strings.CutPrefix(seg, ":"); ok {
				bound[name] = segments[i]
				continue
			}
			if seg != segments[i] {
				matched = false
				break
			}
		}

		if matched {
			return Match{Pattern: r.pattern, Handler: r.handler, Params: bound}, nil
		}
		partial = bound
	}

	return Match{}, &NotFoundError{Method: method, Path: path, Params: partial}
}

// Routes returns "METHOD pattern" strings in lookup order, exact routes first.
func (rt *Router) Routes() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	out := make([]string, 0, len(rt.exact)+len(rt.params))
	for _, r := range rt.exact {
		out = append(out, routeKey(r.method, r.pattern))
	}
	for _, r := range rt.params {
		out = append(out, routeKey(r.method, r.pattern))
	}
	return out
}

// NormalizePath strips a single trailing slash except on the root path.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}
