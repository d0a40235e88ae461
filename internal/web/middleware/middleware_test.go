// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/web/problem"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestStack_EnforcesCSRF(t *testing.T) {
	r := NewRouter(StackConfig{EnableCORS: true})
	r.Post("/issues/1/delete", ok)

	req := httptest.NewRequest(http.MethodPost, "/issues/1/delete", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(problem.HeaderRequestID))

	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLayers_Order(t *testing.T) {
	names := func(cfg StackConfig) []string {
		var out []string
		for _, l := range layers(cfg) {
			out = append(out, l.name)
		}
		return out
	}

	assert.Equal(t, []string{"recoverer", "request-id", "csrf"}, names(StackConfig{}))
	assert.Equal(t, []string{
		"recoverer", "request-id", "cors", "csrf", "security-headers",
		"metrics", "tracing", "access-log", "rate-limit",
	}, names(StackConfig{
		EnableCORS:            true,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        "test",
		EnableLogging:         true,
		RateLimitRequests:     10,
	}))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name    string
		inbound string
		reused  bool
	}{
		{"absent", "", false},
		{"clean", "req-42", true},
		{"control chars", "bad\nid", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set(problem.HeaderRequestID, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(problem.HeaderRequestID)
			require.NotEmpty(t, got)
			assert.Equal(t, got, seen, "context carries the response id")
			if tt.reused {
				assert.Equal(t, tt.inbound, got)
			} else {
				assert.NotEqual(t, tt.inbound, got)
			}
		})
	}
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection([]string{"https://desk.example.com:443", " ", "not a url"})(ok)

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"safe method", http.MethodGet, nil, http.StatusOK},
		{"missing origin", http.MethodPost, nil, http.StatusForbidden},
		{"same origin", http.MethodPost, map[string]string{"Origin": "http://example.com"}, http.StatusOK},
		{"same origin via referer", http.MethodPost, map[string]string{"Referer": "http://example.com/issues?x=1"}, http.StatusOK},
		{"configured origin normalized", http.MethodPost, map[string]string{"Origin": "HTTPS://desk.example.com"}, http.StatusOK},
		{"foreign origin", http.MethodPost, map[string]string{"Origin": "http://evil.example"}, http.StatusForbidden},
		{"same origin behind proxy", http.MethodPost, map[string]string{"Origin": "http://example.com", "X-Forwarded-Host": "x"}, http.StatusForbidden},
		{"non http scheme", http.MethodPost, map[string]string{"Origin": "file://example.com"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Host = "example.com"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNormalizeOrigin(t *testing.T) {
	tests := map[string]string{
		"http://Example.com:80":    "http://example.com",
		"https://example.com:8443": "https://example.com:8443",
		"http://[::1]:8080":        "http://[::1]:8080",
		"http://[::1]":             "http://[::1]",
	}
	for in, want := range tests {
		got, ok := normalizeOrigin(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"", "example.com", "ftp://example.com", "http://example.com:99999"} {
		_, ok := normalizeOrigin(bad)
		assert.False(t, ok, bad)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://allowed.example"}, true)(ok)

	req := httptest.NewRequest(http.MethodGet, "/issues", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/issues", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Vary"), "Origin")
}

func TestCORS_PreflightAllowsSessionDelete(t *testing.T) {
	h := CORS([]string{"https://ui.example"}, true)(ok)

	req := httptest.NewRequest(http.MethodOptions, "/session", nil)
	req.Header.Set("Origin", "https://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))
	methods := strings.Split(rec.Header().Get("Access-Control-Allow-Methods"), ", ")
	assert.Contains(t, methods, http.MethodDelete)
	assert.Contains(t, strings.Split(rec.Header().Get("Allow"), ", "), http.MethodDelete)
}

func TestSecurityHeaders_HSTSOnlyFromTrustedProxy(t *testing.T) {
	proxies, err := ParseCIDRs([]string{"10.0.0.0/8", "192.168.1.5"})
	require.NoError(t, err)
	h := SecurityHeaders("", proxies)(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, DefaultCSP, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	req.RemoteAddr = "203.0.113.9:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	assert.True(t, IsIPAllowed(net.ParseIP("192.168.1.5"), proxies))
	_, err = ParseCIDRs([]string{"bogus/99"})
	assert.Error(t, err)
}

func TestRecoverer(t *testing.T) {
	before := testutil.ToFloat64(httpPanics)
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/issues", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL", body["code"])
	assert.Equal(t, rec.Header().Get(problem.HeaderRequestID), body[problem.JSONKeyRequestID])
	assert.Equal(t, before+1, testutil.ToFloat64(httpPanics))
}

func TestRecoverer_ReraisesAbort(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestLimit: 2, WindowSize: time.Minute})(ok)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/issues", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
