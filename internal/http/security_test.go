package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestProxyList_ClientIP(t *testing.T) {
	defaults, err := newProxyList(nil)
	if err != nil {
		t.Fatalf("newProxyList(nil) error = %v", err)
	}
	custom, err := newProxyList([]string{"203.0.113.7"})
	if err != nil {
		t.Fatalf("newProxyList(custom) error = %v", err)
	}

	tests := []struct {
		name       string
		proxies    *proxyList
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct client", defaults, "198.51.100.1:5000", "", "", "198.51.100.1"},
		{"untrusted forwarder ignored", defaults, "198.51.100.1:5000", "1.2.3.4", "", "198.51.100.1"},
		{"trusted proxy xff", defaults, "10.0.0.5:5000", "1.2.3.4, 10.0.0.5", "", "1.2.3.4"},
		{"trusted proxy x-real-ip", defaults, "127.0.0.1:5000", "", "5.6.7.8", "5.6.7.8"},
		{"trusted proxy garbage header", defaults, "127.0.0.1:5000", "not-an-ip", "", "127.0.0.1"},
		{"custom proxy", custom, "203.0.113.7:443", "9.9.9.9", "", "9.9.9.9"},
		{"custom list drops defaults", custom, "10.0.0.5:5000", "1.2.3.4", "", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := tt.proxies.clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProxyList_Invalid(t *testing.T) {
	if _, err := newProxyList([]string{"not-a-cidr"}); err == nil {
		t.Error("newProxyList(invalid) should fail")
	}
	if _, err := newProxyList([]string{"10.0.0.0/99"}); err == nil {
		t.Error("newProxyList(bad mask) should fail")
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		ua     string
		want   bool
	}{
		{"normal", "GET", "/api/forecast?mode=monthly", "Mozilla/5.0", false},
		{"path traversal", "GET", "/api/../../etc/passwd", "", true},
		{"dotenv probe", "GET", "/.env", "", true},
		{"scanner agent", "GET", "/api/accounts", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/api/accounts", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &securityMetrics{}
			r := httptest.NewRequest(tt.method, tt.path, nil)
			r.Header.Set("User-Agent", tt.ua)
			if got := detectSuspiciousRequest(r, m); got != tt.want {
				t.Errorf("detectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
			if tt.want && m.suspicious() != 1 {
				t.Errorf("suspicious counter = %d, want 1", m.suspicious())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(0.001, 1)
	defer rl.stop()

	if !rl.allow("a") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("a") {
		t.Error("second request should be limited")
	}
	if !rl.allow("b") {
		t.Error("other clients have their own bucket")
	}

	if n := rl.cleanupStaleEntries(time.Now().Add(time.Minute)); n != 2 {
		t.Errorf("cleanupStaleEntries() = %d, want 2", n)
	}
	if !rl.allow("a") {
		t.Error("a cleaned-up client starts with a fresh bucket")
	}

	rl.stop() // idempotent
}

func TestHub_PublishWithoutClients(t *testing.T) {
	h := NewHub()
	if h.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", h.Clients())
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
