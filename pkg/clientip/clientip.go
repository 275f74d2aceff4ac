// Package clientip extracts the originating client IP from HTTP requests
// that may have passed through proxies or load balancers.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client's IP address from the request.
// Priority order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. X-Forwarded-For (standard proxy header, first valid IP)
//  3. X-Real-IP (nginx reverse proxy)
//  4. RemoteAddr (direct connection fallback)
func GetIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	// X-Forwarded-For can contain multiple IPs, use the first valid one.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := parseIP(strings.TrimSpace(ip)); parsed != "" {
				return parsed
			}
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP.
		if parsed := parseIP(r.RemoteAddr); parsed != "" {
			return parsed
		}
		return ""
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP string, returning "" when invalid.
func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
