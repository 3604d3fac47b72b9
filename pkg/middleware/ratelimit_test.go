package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BurstThen429(t *testing.T) {
	var buf bytes.Buffer
	h := RateLimit(0.001, 2, newTestLogger(&buf))(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000").Code)

	rec := hit(h, "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	var buf bytes.Buffer
	h := RateLimit(0.001, 1, newTestLogger(&buf))(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000").Code)
}

func TestVisitorStore_EvictsIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newVisitorStore(1, 1, time.Minute)
	s.now = func() time.Time { return now }

	s.limiter("a")
	now = now.Add(30 * time.Second)
	s.limiter("b")
	now = now.Add(45 * time.Second)
	s.evictIdle()

	assert.Equal(t, 1, s.size())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.5, 10.0.0.1", "", "10.0.0.9:80", "203.0.113.5"},
		{"real ip", "", "198.51.100.7", "10.0.0.9:80", "198.51.100.7"},
		{"remote addr", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"garbage forwarded falls back", "not-an-ip", "", "192.0.2.1:5555", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
