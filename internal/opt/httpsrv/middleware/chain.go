package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// MiddlewareChain composes middlewares so the first argument sees the
// request first. The figure and control endpoints wrap their handlers
// with it.
func MiddlewareChain(middleware ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middleware) - 1; i >= 0; i-- {
			final = middleware[i](final)
		}
		return final
	}
}
