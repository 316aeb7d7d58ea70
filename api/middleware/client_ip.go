package middleware

import (
	"net"
	"net/http"
	"strings"
)

// clientIP prefers the left-most X-Forwarded-For entry set by the load
// balancer, then X-Real-IP, then the socket peer. Values that do not parse as
// an IP are skipped.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
