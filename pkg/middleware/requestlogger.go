package middleware

import (
	"log/slog"
	"net/http"

	"github.com/kreedentials/store/pkg/logger"
)

// SessionIDHeader carries the anonymous shopper session id.
const SessionIDHeader = "X-Session-ID"

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_id, session_id and the active span. Mount it after
// RequestLogging and Tracing; handlers read it with logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}
			if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
				ctx = logger.WithSessionID(ctx, sessionID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
