package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreedentials/store/internal/config"
	"github.com/kreedentials/store/pkg/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.SessionIDHeader, "app-test")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestNewApp_InMemory(t *testing.T) {
	a, err := NewApp(loadConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.rdb)
	assert.Nil(t, a.pool)
	assert.Nil(t, a.producer)
	assert.Len(t, a.janitors, 2)
	assert.Equal(t, ":8010", a.httpServer.Addr)

	rec := serve(a, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodPost, "/api/v1/store/cart/items", `{"product_id":2,"qty":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"subtotal":"119.98"`)
}

func TestNewApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("STORE_SESSION_STORE", "redis")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())

	a, err := NewApp(loadConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	require.NotNil(t, a.rdb)
	assert.Len(t, a.janitors, 1)

	rec := serve(a, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestNewApp_CatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{
		"id": 7, "name": "Speed Rope", "category": "Gear", "price": "12.50",
		"rating": 4, "image": "rope.jpg", "gallery": ["rope.jpg"],
		"eta_days": 1, "in_stock": true
	}]`), 0o600))
	t.Setenv("STORE_CATALOG_FILE", path)
	t.Setenv("STORE_SEED_FAVORITES", "7")

	a, err := NewApp(loadConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	rec := serve(a, http.MethodGet, "/api/v1/catalog/7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Speed Rope")

	rec = serve(a, http.MethodGet, "/api/v1/catalog/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewApp_MissingCatalogFile(t *testing.T) {
	t.Setenv("STORE_CATALOG_FILE", filepath.Join(t.TempDir(), "missing.json"))

	a, err := NewApp(loadConfig(t), testLogger())

	assert.Nil(t, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Setenv("STORE_HTTP_PORT", "18010")
	t.Setenv("STORE_SESSION_SWEEP_INTERVAL", "10ms")

	a, err := NewApp(loadConfig(t), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
