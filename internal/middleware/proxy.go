package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies installs an IP extractor that honors X-Real-IP and
// X-Forwarded-For only when the direct peer falls inside one of the given
// CIDR ranges. Rate limiting and request logs depend on c.RealIP() being
// the actual client, not the reverse proxy.
func TrustedProxies(e *echo.Echo, cidrs []string) {
	var networks []*net.IPNet
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		networks = append(networks, network)
	}

	e.IPExtractor = func(req *http.Request) string {
		peer := peerIP(req.RemoteAddr)
		if !cidrsContain(networks, peer) {
			return peer
		}
		if real := strings.TrimSpace(req.Header.Get("X-Real-IP")); real != "" {
			return real
		}
		// Leftmost X-Forwarded-For entry is the original client.
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		return peer
	}
}

func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func cidrsContain(networks []*net.IPNet, ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
