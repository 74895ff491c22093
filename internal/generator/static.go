package generator

import (
	"context"
	"fmt"

	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

// DefaultStaticTemplate takes the identity and the region.
const DefaultStaticTemplate = "%s: a hand-picked overview of the best options available in %s."

// Static produces deterministic text without any upstream call. It serves
// offline deployments and tests.
type Static struct {
	Template string
}

var _ ports.ContentGenerator = Static{}

func (s Static) Generate(ctx context.Context, identity, region string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl := s.Template
	if tmpl == "" {
		tmpl = DefaultStaticTemplate
	}
	return fmt.Sprintf(tmpl, identity, region), nil
}
