// Package egress restricts outbound HTTP traffic to a fixed set of hosts.
package egress

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"leadplan/engine/internal/llm"
)

// AllowlistRoundTripper enforces HTTPS-only requests to a fixed host allowlist.
type AllowlistRoundTripper struct {
	Base      http.RoundTripper
	Allowlist map[string]bool
}

// NewAllowlistRoundTripper returns a RoundTripper that enforces a host allowlist.
func NewAllowlistRoundTripper(base http.RoundTripper, hosts []string) *AllowlistRoundTripper {
	allowlist := make(map[string]bool, len(hosts))
	for _, host := range hosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			allowlist[host] = true
		}
	}
	return &AllowlistRoundTripper{Base: base, Allowlist: allowlist}
}

func (rt *AllowlistRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.check(req); err != nil {
		return nil, err
	}
	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func (rt *AllowlistRoundTripper) check(req *http.Request) error {
	if req.URL == nil {
		return llm.ErrEgressBlocked
	}
	host := req.URL.Hostname()
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q for %s", llm.ErrEgressBlocked, req.URL.Scheme, host)
	}
	if host == "" {
		return llm.ErrEgressBlocked
	}
	if ip := net.ParseIP(host); ip != nil {
		return fmt.Errorf("%w: literal address %s", llm.ErrEgressBlocked, host)
	}
	if !rt.Allowlist[strings.ToLower(host)] {
		return fmt.Errorf("%w: host %s not allowed", llm.ErrEgressBlocked, host)
	}
	return nil
}
