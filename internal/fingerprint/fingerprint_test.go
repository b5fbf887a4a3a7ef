package fingerprint

import (
	"net/http/httptest"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	f := Features{
		UserAgent:      "Mozilla/5.0 Chrome/90",
		AcceptLanguage: "en-US",
		AcceptEncoding: "gzip",
		ClientIP:       "203.0.113.9",
	}
	first := Generate(f)
	second := Generate(f)
	if first != second {
		t.Fatalf("fingerprint not deterministic: %q vs %q", first, second)
	}
	if len(first) != Size {
		t.Fatalf("expected %d hex chars, got %d", Size, len(first))
	}
	if !isHex(first) {
		t.Fatalf("fingerprint is not hex: %q", first)
	}

	f.ClientIP = "203.0.113.10"
	if Generate(f) == first {
		t.Fatalf("different IP should change the fingerprint")
	}
}

func TestNewDeviceID(t *testing.T) {
	fp := Generate(Features{UserAgent: "ua"})
	id, err := NewDeviceID(fp)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !IsValidDeviceID(id) {
		t.Fatalf("minted id %q failed validation", id)
	}
	got, ok := FingerprintFromDeviceID(id)
	if !ok || got != fp {
		t.Fatalf("expected fingerprint %q back, got %q (ok=%v)", fp, got, ok)
	}

	other, err := NewDeviceID(fp)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if other == id {
		t.Fatalf("two mints produced the same salt")
	}
}

func TestIsValidDeviceID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{name: "canonical", id: "device_0123456789abcdef_deadbeef", valid: true},
		{name: "empty", id: "", valid: false},
		{name: "two segments", id: "device_0123456789abcdef", valid: false},
		{name: "four segments", id: "device_0123456789abcdef_deadbeef_x", valid: false},
		{name: "wrong prefix", id: "gadget_0123456789abcdef_deadbeef", valid: false},
		{name: "short fingerprint", id: "device_0123456789abcde_deadbeef", valid: false},
		{name: "non-hex fingerprint", id: "device_0123456789abcdeg_deadbeef", valid: false},
		{name: "short salt", id: "device_0123456789abcdef_deadbee", valid: false},
		{name: "non-hex salt", id: "device_0123456789abcdef_deadbeez", valid: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidDeviceID(tc.id); got != tc.valid {
				t.Fatalf("IsValidDeviceID(%q) = %v, want %v", tc.id, got, tc.valid)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "203.0.113.8")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded entry, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientIP(r); got != "203.0.113.8" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}

	r.Header.Del("X-Real-IP")
	r.RemoteAddr = "192.0.2.4:1234"
	if got := ClientIP(r); got != "192.0.2.4" {
		t.Fatalf("expected peer address, got %q", got)
	}

	r.RemoteAddr = ""
	if got := ClientIP(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestExtract(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 Chrome/90")
	r.Header.Set("Accept-Language", "en-US")
	r.Header.Set("Accept-Encoding", "gzip")
	r.Header.Set("Referer", "https://example.com/page")
	r.RemoteAddr = "192.0.2.4:1234"

	f := Extract(r)
	if f.UserAgent != "Mozilla/5.0 Chrome/90" || f.AcceptLanguage != "en-US" ||
		f.AcceptEncoding != "gzip" || f.ClientIP != "192.0.2.4" {
		t.Fatalf("unexpected features: %+v", f)
	}
	if f.Referer != "https://example.com/page" {
		t.Fatalf("expected referer captured, got %q", f.Referer)
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua      string
		browser string
		os      string
	}{
		{"Mozilla/5.0 (Windows NT 10.0) Chrome/90.0 Safari/537.36", "Chrome", "Windows"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15) Version/14 Safari/605.1", "Safari", "macOS"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:89.0) Gecko/20100101 Firefox/89.0", "Firefox", "Linux"},
		{"Mozilla/5.0 (Windows NT 10.0) Chrome/91.0 Safari/537.36 Edg/91.0", "Edge", "Windows"},
		{"Mozilla/5.0 (Linux; Android 11) Chrome/90.0 Mobile Safari/537.36", "Chrome", "Android"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 14_6) Version/14.1 Mobile Safari/604.1", "Safari", "iOS"},
		{"curl/7.79.1", "Unknown", "Unknown"},
	}
	for _, tc := range tests {
		info := ParseUserAgent(tc.ua)
		if info.Browser != tc.browser || info.OS != tc.os {
			t.Fatalf("ParseUserAgent(%q) = %+v, want %s/%s", tc.ua, info, tc.browser, tc.os)
		}
	}
}
