package ports

import (
	"context"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// ContentGenerator produces page text for an identity in a region. It may
// fail or time out; callers own the fallback.
type ContentGenerator interface {
	Generate(ctx context.Context, identity, region string) (string, error)
}

// GeneratorFunc adapts a function to ContentGenerator.
type GeneratorFunc func(ctx context.Context, identity, region string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, identity, region string) (string, error) {
	return f(ctx, identity, region)
}

// EventRecorder persists error and conversion records.
type EventRecorder interface {
	Record(ctx context.Context, event domain.Event) error
}
