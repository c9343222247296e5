package middleware

import (
	"log/slog"
	"net/http"
)

// SafeHandlerMiddleware converts a handler panic into a 500 response. A
// bad render request must not take the serve loop down with it.
func SafeHandlerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					slog.Any("err", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.EscapedPath()),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
