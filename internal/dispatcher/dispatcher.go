// Package dispatcher drives a request through the interceptor chain and the
// router and owns the error boundary.
//
// Each request moves through these states:
//
//	Received -> MiddlewareRun -> ShortCircuited -> Responded
//	                          -> Routed -> HandlerExecuting -> Responded
//	                                                        -> Failed -> Responded
//
// A routing miss in Routed renders the not-found page. Interceptor errors,
// handler errors and panics all land in Failed, which answers with the
// generic error page and records an ErrorEvent best effort. Responded is the
// only terminal state; nothing is retried.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/pipeline"
	"github.com/tjfontaine/edge-content-gateway/internal/ratelimit"
	"github.com/tjfontaine/edge-content-gateway/internal/router"
	"github.com/tjfontaine/edge-content-gateway/internal/server"
)

const tracerName = "github.com/tjfontaine/edge-content-gateway/internal/dispatcher"

// Outcome labels how a dispatch ended.
const (
	OutcomeResponded      = "responded"
	OutcomeShortCircuited = "short_circuited"
	OutcomeNotFound       = "not_found"
	OutcomeFailed         = "failed"
)

// NotFoundFunc renders the response for a routing miss. params holds what
// the router bound before the miss.
type NotFoundFunc func(r *http.Request, params router.Params) *domain.Response

// ErrorPageFunc renders the generic failure response.
type ErrorPageFunc func(r *http.Request) *domain.Response

// MetricsRecorder observes dispatch outcomes.
type MetricsRecorder interface {
	ObserveDispatch(outcome string, duration time.Duration)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotFound sets the not-found renderer.
func WithNotFound(fn NotFoundFunc) Option {
	return func(d *Dispatcher) { d.notFound = fn }
}

// WithErrorPage sets the failure renderer.
func WithErrorPage(fn ErrorPageFunc) Option {
	return func(d *Dispatcher) { d.errorPage = fn }
}

// WithEventRecorder records an ErrorEvent for every failed dispatch.
func WithEventRecorder(rec ports.EventRecorder) Option {
	return func(d *Dispatcher) { d.events = rec }
}

// WithClientKey sets how error events identify the client.
func WithClientKey(fn ratelimit.KeyFunc) Option {
	return func(d *Dispatcher) { d.clientKey = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsRecorder) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

// Dispatcher is the http.Handler at the core of the gateway.
type Dispatcher struct {
	chain     *pipeline.Chain
	router    *router.Router
	notFound  NotFoundFunc
	errorPage ErrorPageFunc
	events    ports.EventRecorder
	clientKey ratelimit.KeyFunc
	logger    *slog.Logger
	metrics   MetricsRecorder
	tracer    trace.Tracer
}

// New creates a dispatcher over chain and rt.
func New(chain *pipeline.Chain, rt *router.Router, opts ...Option) *Dispatcher {
	if chain == nil {
		chain = pipeline.NewChain()
	}
	d := &Dispatcher{
		chain:     chain,
		router:    rt,
		notFound:  defaultNotFound,
		errorPage: defaultErrorPage,
		clientKey: ratelimit.DefaultKeyFunc("", false),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatcher")
	return d
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := d.tracer.Start(r.Context(), "dispatch",
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	resp, final, outcome := d.dispatch(r)
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	// Headers for the decision that let this request through.
	if dec, ok := ratelimit.DecisionFromContext(final.Context()); ok && resp.Header.Get("X-RateLimit-Limit") == "" {
		ratelimit.WriteHeaders(resp.Header, dec)
	}

	span.SetAttributes(
		attribute.String("dispatch.outcome", outcome),
		attribute.Int("http.response.status_code", resp.Status),
	)
	if d.metrics != nil {
		d.metrics.ObserveDispatch(outcome, time.Since(start))
	}

	if err := resp.WriteTo(w); err != nil {
		d.logger.Debug("failed to write response", slog.String("error", err.Error()))
	}
}

// dispatch returns the response, the request as last rewritten by the
// chain, and the outcome label.
func (d *Dispatcher) dispatch(r *http.Request) (*domain.Response, *http.Request, string) {
	// MiddlewareRun
	out, err := d.runChain(r)
	if err != nil {
		return d.fail(r, err), r, OutcomeFailed
	}
	if out.ShortCircuited() {
		trace.SpanFromContext(r.Context()).AddEvent("short_circuit",
			trace.WithAttributes(attribute.String("interceptor", out.StoppedBy)))
		server.AddLogField(r.Context(), "short_circuit", out.StoppedBy)
		return out.Response, r, OutcomeShortCircuited
	}
	req := out.Request

	// Routed on the escaped path; handlers decode their own params.
	match, err := d.router.Dispatch(req.Method, req.URL.EscapedPath())
	if err != nil {
		var nf *router.NotFoundError
		params := router.Params{}
		if errors.As(err, &nf) {
			params = nf.Params
		}
		resp := d.notFound(req, params)
		if resp == nil {
			resp = defaultNotFound(req, params)
		}
		return resp, req, OutcomeNotFound
	}
	trace.SpanFromContext(req.Context()).SetAttributes(attribute.String("http.route", match.Pattern))

	// HandlerExecuting
	resp, err := d.runHandler(req, match)
	if err != nil {
		return d.fail(req, err), req, OutcomeFailed
	}
	if resp == nil {
		return d.fail(req, fmt.Errorf("%w: handler for %s returned no response", domain.ErrHandlerFailure, match.Pattern)), req, OutcomeFailed
	}
	return resp, req, OutcomeResponded
}

func (d *Dispatcher) runChain(r *http.Request) (out pipeline.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = d.panicError("interceptor chain", rec)
		}
	}()
	return d.chain.Run(r.Context(), r)
}

func (d *Dispatcher) runHandler(r *http.Request, match router.Match) (resp *domain.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = d.panicError("handler "+match.Pattern, rec)
		}
	}()
	return match.Handler(r.Context(), r, match.Params)
}

func (d *Dispatcher) panicError(where string, rec any) error {
	d.logger.Error("panic recovered",
		slog.String("in", where),
		slog.Any("panic", rec),
		slog.String("stack", string(debug.Stack())),
	)
	return fmt.Errorf("%w: panic in %s: %v", domain.ErrHandlerFailure, where, rec)
}

// fail is the Failed state: log, record, and answer generically.
func (d *Dispatcher) fail(r *http.Request, err error) *domain.Response {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, "dispatch failed")
	server.AddError(ctx, err)

	requestID := server.GetRequestID(ctx)
	d.logger.Error("request failed",
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	if d.events != nil {
		event := &domain.ErrorEvent{
			Message:   err.Error(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Client:    d.clientKey(r),
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		}
		if rerr := d.events.Record(context.WithoutCancel(ctx), event); rerr != nil {
			d.logger.Warn("failed to record error event", slog.String("error", rerr.Error()))
		}
	}

	resp := d.errorPage(r)
	if resp == nil || resp.Header == nil {
		resp = defaultErrorPage(r)
	}
	resp.Header.Set("Cache-Control", "no-store")
	return resp
}

func defaultNotFound(*http.Request, router.Params) *domain.Response {
	resp := domain.NewResponse(http.StatusNotFound, []byte(http.StatusText(http.StatusNotFound)))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

func defaultErrorPage(*http.Request) *domain.Response {
	resp := domain.NewResponse(http.StatusInternalServerError, []byte(http.StatusText(http.StatusInternalServerError)))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}
