package pkg

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address of the request, preferring the
// headers set by the reverse proxy. Ports are stripped.
func ClientIP(r *http.Request) string {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		// client, proxy1, proxy2
		ipAddr, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	}
	ipAddr = strings.TrimSpace(ipAddr)
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		return host
	}
	return ipAddr
}
