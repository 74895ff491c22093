package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc derives the client identity for a request.
type KeyFunc func(r *http.Request) string

// DefaultKeyFunc prefers keyHeader (for example CF-Connecting-IP), then the
// first X-Forwarded-For hop when trustXFF is set, then the RemoteAddr host.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
