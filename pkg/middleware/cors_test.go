package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	h := CORS(cfg)(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(method, "/api/v1/store", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	rec := corsRequest(DefaultCORSConfig(), http.MethodGet, "https://anything.test")

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Session-ID")
}

func TestCORS_ProductionAllowlist(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://kreedentials.app"}, Environment: "production"}

	allowed := corsRequest(cfg, http.MethodGet, "https://kreedentials.app")
	assert.Equal(t, "https://kreedentials.app", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", allowed.Header().Get("Vary"))

	denied := corsRequest(cfg, http.MethodGet, "https://evil.test")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, denied.Code)
}

func TestCORS_Preflight(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://kreedentials.app"}, Environment: "production", AllowCredentials: true}
	rec := corsRequest(cfg, http.MethodOptions, "https://kreedentials.app")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
