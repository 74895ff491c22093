package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/pipeline"
)

// decisionContextKey is the context key for the request's rate limit decision.
type decisionContextKey struct{}

// WithDecision stores d in ctx so the dispatcher can emit rate limit headers.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision recorded for this request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// WriteHeaders sets X-RateLimit-* headers for d.
func WriteHeaders(h http.Header, d Decision) {
	if d.Degraded || d.Limit <= 0 {
		return
	}
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// Interceptor applies a Limiter ahead of routing.
type Interceptor struct {
	limiter *Limiter
	keyFn   KeyFunc
	logger  *slog.Logger
}

var _ pipeline.Interceptor = (*Interceptor)(nil)

// NewInterceptor creates the rate limit interceptor. A nil keyFn uses the
// RemoteAddr host.
func NewInterceptor(limiter *Limiter, keyFn KeyFunc, logger *slog.Logger) *Interceptor {
	if keyFn == nil {
		keyFn = DefaultKeyFunc("", false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		limiter: limiter,
		keyFn:   keyFn,
		logger:  logger.With("component", "ratelimit"),
	}
}

func (i *Interceptor) Name() string { return "ratelimit" }

// Intercept allows the request through with its decision attached, or
// short-circuits with 429 (over limit) or 503 (store down, failing closed).
func (i *Interceptor) Intercept(ctx context.Context, r *http.Request) (pipeline.Result, error) {
	client := i.keyFn(r)

	dec, err := i.limiter.Check(ctx, client)
	if err != nil {
		i.logger.Warn("rate limit store failure",
			slog.String("client", client),
			slog.Bool("fail_open", dec.Allowed),
			slog.String("error", err.Error()),
		)
	}

	if dec.Allowed {
		return pipeline.Rewrite(r.WithContext(WithDecision(ctx, dec))), nil
	}

	if dec.Degraded {
		resp := domain.NewResponse(http.StatusServiceUnavailable, []byte(http.StatusText(http.StatusServiceUnavailable)))
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp.Header.Set("Cache-Control", "no-store")
		return pipeline.ShortCircuit(resp), nil
	}

	resp := domain.NewResponse(http.StatusTooManyRequests, []byte(http.StatusText(http.StatusTooManyRequests)))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Header.Set("Cache-Control", "no-store")
	resp.Header.Set("Retry-After", strconv.Itoa(int(dec.RetryAfter(i.limiter.now())/time.Second)))
	WriteHeaders(resp.Header, dec)
	return pipeline.ShortCircuit(resp), nil
}
