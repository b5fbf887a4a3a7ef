// Package fingerprint derives weak device identifiers from client-supplied
// request metadata. A fingerprint is a recognition heuristic, not a security
// boundary: identical browser setups behind one IP collide, and one person
// changing network or browser diverges. Both are accepted trade-offs.
package fingerprint

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"identity/internal/netutil"
)

// Size is the length of a fingerprint in hex characters.
const Size = 16

const (
	prefix   = "device"
	saltSize = 8 // 4 random bytes, hex encoded
)

// Features are the request attributes a fingerprint is derived from, plus
// extras kept only for the first-seen metadata snapshot.
type Features struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	ClientIP       string
	Referer        string
	Origin         string
}

// Extract pulls fingerprint features out of an inbound request.
func Extract(r *http.Request) Features {
	return Features{
		UserAgent:      netutil.TruncateUserAgent(r.Header.Get("User-Agent")),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		AcceptEncoding: r.Header.Get("Accept-Encoding"),
		ClientIP:       ClientIP(r),
		Referer:        r.Header.Get("Referer"),
		Origin:         r.Header.Get("Origin"),
	}
}

// ClientIP resolves the client address: first X-Forwarded-For entry, then
// X-Real-IP, then the transport peer, then the literal "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if normalized, ok := netutil.NormalizeIP(ip); ok {
			return normalized
		}
		if ip != "" {
			return ip
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		if normalized, ok := netutil.NormalizeIP(xr); ok {
			return normalized
		}
		return xr
	}
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Generate hashes the features into a 16-hex-char fingerprint. Deterministic
// for a given header/IP tuple.
func Generate(f Features) string {
	joined := strings.Join([]string{f.UserAgent, f.AcceptLanguage, f.AcceptEncoding, f.ClientIP}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:Size]
}

// NewDeviceID mints a device ID for a fingerprint with a fresh random salt:
// device_<fingerprint16>_<salt8>.
func NewDeviceID(fp string) (string, error) {
	salt := make([]byte, saltSize/2)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("mint device id: %w", err)
	}
	return prefix + "_" + fp + "_" + hex.EncodeToString(salt), nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsValidDeviceID reports whether id has the canonical shape: three
// underscore-delimited segments, literal "device" first, a 16-hex-char
// fingerprint and an 8-hex-char salt.
func IsValidDeviceID(id string) bool {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return false
	}
	if parts[0] != prefix {
		return false
	}
	if len(parts[1]) != Size || !isHex(parts[1]) {
		return false
	}
	if len(parts[2]) != saltSize || !isHex(parts[2]) {
		return false
	}
	return true
}

// FingerprintFromDeviceID returns the fingerprint segment of a valid
// device ID.
func FingerprintFromDeviceID(id string) (string, bool) {
	if !IsValidDeviceID(id) {
		return "", false
	}
	return strings.Split(id, "_")[1], true
}

// UAInfo is a coarse browser/OS classification of a user agent string.
type UAInfo struct {
	Browser string
	OS      string
}

// ParseUserAgent classifies a user agent with substring heuristics. Exact
// detection is a non-goal; "Unknown" is a normal answer.
func ParseUserAgent(ua string) UAInfo {
	lower := strings.ToLower(ua)

	browser := "Unknown"
	switch {
	case strings.Contains(lower, "edg"):
		browser = "Edge"
	case strings.Contains(lower, "opera"), strings.Contains(lower, "opr"):
		browser = "Opera"
	case strings.Contains(lower, "chrome"):
		browser = "Chrome"
	case strings.Contains(lower, "firefox"):
		browser = "Firefox"
	case strings.Contains(lower, "safari"):
		browser = "Safari"
	}

	os := "Unknown"
	switch {
	case strings.Contains(lower, "windows"):
		os = "Windows"
	case strings.Contains(lower, "mac os"), strings.Contains(lower, "macos"):
		os = "macOS"
	case strings.Contains(lower, "android"):
		os = "Android"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ios"):
		os = "iOS"
	case strings.Contains(lower, "linux"):
		os = "Linux"
	}

	return UAInfo{Browser: browser, OS: os}
}
