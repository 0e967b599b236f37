package main

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"go.uber.org/zap"
)

// allowList guards the Slack endpoints when ALLOWED_CIDRS is set. One
// instance is shared by every route it protects.
type allowList struct {
	networks []netip.Prefix
	logger   *zap.Logger
}

func newAllowList(networks []netip.Prefix, logger *zap.Logger) *allowList {
	if len(networks) > 0 {
		logger.Info("request allow-list enabled", zap.Int("networks", len(networks)))
	}
	return &allowList{networks: networks, logger: logger}
}

// protect wraps next. With no networks configured every request passes.
func (a *allowList) protect(next http.HandlerFunc) http.Handler {
	if len(a.networks) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, ok := requestAddr(r)
		if !ok || !a.allows(addr) {
			a.logger.Warn("request denied by allow-list",
				zap.String("remote", r.RemoteAddr),
				zap.String("forwarded_for", r.Header.Get("X-Forwarded-For")),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func (a *allowList) allows(addr netip.Addr) bool {
	for _, n := range a.networks {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}

// requestAddr resolves the caller's address. Behind a load balancer the
// first X-Forwarded-For entry is the original client.
func requestAddr(r *http.Request) (netip.Addr, bool) {
	raw := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		raw, _, _ = strings.Cut(xff, ",")
	} else if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
