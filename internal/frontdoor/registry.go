// Package frontdoor provides the public HTTP surface: the landing page, the
// content page for an identity, and the conversion beacon. Handlers return
// *domain.Response values and are mounted on the router explicitly through
// Register so route order is visible at the call site.
package frontdoor

import (
	"github.com/tjfontaine/edge-content-gateway/internal/router"
)

// HandlerRegistration represents a registered route handler.
type HandlerRegistration struct {
	Path    string
	Method  string
	Handler router.Handler
}

// Register adds registrations to rt in order.
func Register(rt *router.Router, regs []HandlerRegistration) {
	for _, reg := range regs {
		rt.Register(reg.Method, reg.Path, reg.Handler)
	}
}
