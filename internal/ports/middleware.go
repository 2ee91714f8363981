package ports

import (
	"net/http"

	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/ratelimiting"
)

type middleware = func(http.HandlerFunc) http.HandlerFunc

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if rateLimiter.Consume(r) {
				next(w, r)
				return
			}

			ctx := r.Context()
			logging.FromContext(ctx).InfoContext(ctx, "Rate limit exceeded", "key", rateLimiter.KeyFor(r))
			onLimitExceeded(w, r)
		}
	}
}

// The first middleware is the outermost
func ComposeMiddlewares(middlewares ...middleware) middleware {
	return func(handler http.HandlerFunc) http.HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}
