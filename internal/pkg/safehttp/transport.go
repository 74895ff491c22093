// Package safehttp builds outbound HTTP transports for calls to content
// generation upstreams.
package safehttp

import (
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Options configures NewTransport.
type Options struct {
	DialTimeout time.Duration
	// BlockPrivateNetworks refuses loopback, private and link-local
	// destinations to reduce SSRF risk.
	BlockPrivateNetworks bool
}

// NewTransport returns a transport honoring opts.
func NewTransport(opts Options) *http.Transport {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	if opts.BlockPrivateNetworks {
		dialer.Control = denyPrivate
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dialer.DialContext
	return t
}

// denyPrivate runs after DNS resolution, so the address is always an IP.
func denyPrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("failed to parse remote IP for %q", address)
	}
	if IsPrivate(ip) {
		return fmt.Errorf("access to private IP %s is denied", ip)
	}
	return nil
}

// IsPrivate reports whether ip is loopback, private, link-local or
// unspecified.
func IsPrivate(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
