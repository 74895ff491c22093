// Package security holds request interceptors that reject traffic before it
// reaches the rate limiter.
package security

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/pipeline"
)

// DefaultThreatScoreMax is the highest upstream threat score still allowed.
const DefaultThreatScoreMax = 5

// ThreatGuard rejects requests whose upstream threat score header exceeds a
// threshold. It trusts the score set by the fronting CDN and computes
// nothing itself. Requests without the header, or with a non-numeric value,
// pass.
type ThreatGuard struct {
	header   string
	maxScore int
	logger   *slog.Logger
}

var _ pipeline.Interceptor = (*ThreatGuard)(nil)

// NewThreatGuard creates a guard reading header. It returns nil when header
// is empty and the guard is disabled.
func NewThreatGuard(header string, maxScore int, logger *slog.Logger) *ThreatGuard {
	if header == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreatGuard{
		header:   header,
		maxScore: maxScore,
		logger:   logger.With("component", "threat_guard"),
	}
}

func (g *ThreatGuard) Name() string { return "threat_guard" }

func (g *ThreatGuard) Intercept(ctx context.Context, r *http.Request) (pipeline.Result, error) {
	raw := strings.TrimSpace(r.Header.Get(g.header))
	if raw == "" {
		return pipeline.Continue(), nil
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score <= g.maxScore {
		return pipeline.Continue(), nil
	}

	g.logger.Info("request blocked by threat score",
		slog.Int("score", score),
		slog.String("path", r.URL.Path),
	)

	resp := domain.NewResponse(http.StatusForbidden, []byte(http.StatusText(http.StatusForbidden)))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Header.Set("X-Threat-Blocked", "true")
	resp.Header.Set("Cache-Control", "no-store")
	return pipeline.ShortCircuit(resp), nil
}
