package netutil

import (
	"net/netip"
	"strings"
	"unicode/utf8"
)

// MaxUserAgentLength bounds the user agent snapshot we persist.
const MaxUserAgentLength = 512

func parseAddr(s string) (string, bool) {
	if addr, err := netip.ParseAddr(s); err == nil {
		addr = addr.WithZone("")
		if addr.IsValid() {
			return addr.String(), true
		}
	}
	return "", false
}

// NormalizeIP accepts a bare IP or an address carrying a port
// ("192.0.2.4:1234", "[2001:db8::1]:443") and returns the canonical IP
// portion without zone identifiers. The bool reports whether the input
// parsed as an IP at all; on failure the raw input is returned unchanged.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		addr := addrPort.Addr().WithZone("")
		if addr.IsValid() {
			return addr.String(), true
		}
	}
	if ip, ok := parseAddr(raw); ok {
		return ip, true
	}
	// Bracketed IPv6 with a non-numeric port, e.g. "[::1]:port".
	if strings.HasPrefix(raw, "[") {
		if end := strings.LastIndex(raw, "]"); end > 0 {
			if ip, ok := parseAddr(raw[1:end]); ok {
				return ip, true
			}
		}
	}
	// Strip a trailing :section and retry, for "host:port" leftovers.
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if ip, ok := parseAddr(raw[:idx]); ok {
			return ip, true
		}
	}
	return raw, false
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength
// runes without splitting multi-byte characters.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := []rune(ua)
	return string(runes[:MaxUserAgentLength])
}
