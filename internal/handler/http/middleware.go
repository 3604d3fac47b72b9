package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kreedentials/store/internal/service"
	"github.com/kreedentials/store/pkg/httputil"
	"github.com/kreedentials/store/pkg/logger"
	"github.com/kreedentials/store/pkg/middleware"
	"github.com/kreedentials/store/pkg/tracing"
)

// maxSessionIDLength bounds client-supplied anonymous session ids.
const maxSessionIDLength = 128

type contextKey string

const sessionIDKey contextKey = "session_id"

// ContentTypeJSON enforces Content-Type: application/json on requests that
// carry a body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.ContentLength == -1 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ShopperSession resolves the anonymous session id from the X-Session-ID
// header, minting a new one when absent. The id is echoed in the response
// header so clients can keep it.
func ShopperSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.SessionIDHeader))
		if len(id) > maxSessionIDLength {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Session-ID is too long"},
			})
			return
		}

		if id == "" {
			id = uuid.NewString()
		}
		ctx := logger.WithSessionID(r.Context(), id)
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("session_id", id)))
		w.Header().Set(middleware.SessionIDHeader, id)
		trace.SpanFromContext(ctx).SetAttributes(tracing.SessionAttr(id))

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionIDKey, id)))
	})
}

// shopperFromRequest builds the service-level shopper for r.
func shopperFromRequest(r *http.Request) service.Shopper {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return service.Shopper{
		SessionID: id,
		UserID:    middleware.UserIDFromContext(r.Context()),
	}
}
