package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreedentials/store/pkg/logger"
	"github.com/kreedentials/store/pkg/middleware"
)

func TestShopperSession_ClientIDReachesLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	var gotID, gotShopper string
	h := ShopperSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = logger.SessionIDFromContext(r.Context())
		gotShopper = shopperFromRequest(r).SessionID
		logger.FromContext(r.Context()).Info("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Header.Set(middleware.SessionIDHeader, "client-sid")
	req = req.WithContext(logger.NewContext(req.Context(), base))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client-sid", rec.Header().Get(middleware.SessionIDHeader))
	assert.Equal(t, "client-sid", gotID)
	assert.Equal(t, "client-sid", gotShopper)
	assert.Contains(t, buf.String(), "session_id=client-sid")
}

func TestShopperSession_MintedIDReachesLogger(t *testing.T) {
	var gotID string
	h := ShopperSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = logger.SessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/store", nil))

	require.NotEmpty(t, gotID)
	assert.Equal(t, gotID, rec.Header().Get(middleware.SessionIDHeader))
}
