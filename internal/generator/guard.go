// Package generator wraps content generators with the limits the edge
// handler needs: a bounded call time, an upstream request budget and a cap
// on output length.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

// DefaultTimeout bounds a single generation.
const DefaultTimeout = 10 * time.Second

// ErrBudgetExhausted is returned when the upstream request budget has no
// token available before the deadline.
var ErrBudgetExhausted = errors.New("generator request budget exhausted")

// Truncator caps text at a token budget.
type Truncator interface {
	Truncate(text string, maxTokens int) (string, error)
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	Timeout time.Duration
	// RequestsPerSecond limits upstream calls; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
	// MaxTokens caps the returned text; zero disables truncation.
	MaxTokens int
}

// Guard decorates a ContentGenerator.
type Guard struct {
	next      ports.ContentGenerator
	cfg       GuardConfig
	limiter   *rate.Limiter
	truncator Truncator
	logger    *slog.Logger
}

var _ ports.ContentGenerator = (*Guard)(nil)

// NewGuard wraps next. truncator may be nil when MaxTokens is zero.
func NewGuard(next ports.ContentGenerator, cfg GuardConfig, truncator Truncator, logger *slog.Logger) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Guard{
		next:      next,
		cfg:       cfg,
		truncator: truncator,
		logger:    logger.With("component", "generator"),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

// Generate calls the wrapped generator within the configured limits.
func (g *Guard) Generate(ctx context.Context, identity, region string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBudgetExhausted, err)
		}
	}

	start := time.Now()
	text, err := g.next.Generate(ctx, identity, region)
	if err != nil {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if g.cfg.MaxTokens > 0 && g.truncator != nil {
		truncated, terr := g.truncator.Truncate(text, g.cfg.MaxTokens)
		if terr != nil {
			g.logger.Warn("token truncation failed, keeping full text", slog.String("error", terr.Error()))
		} else {
			text = truncated
		}
	}

	g.logger.Debug("content generated",
		slog.String("identity", identity),
		slog.String("region", region),
		slog.Duration("duration", time.Since(start)),
	)
	return text, nil
}
