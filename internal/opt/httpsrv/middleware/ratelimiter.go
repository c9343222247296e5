package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimiterMiddleware rejects requests above the shared token-bucket
// rate. Figure downloads and render submissions sit behind one limiter.
type RateLimiterMiddleware struct {
	Limiter *rate.Limiter
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
