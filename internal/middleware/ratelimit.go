package middleware

import (
	"math"
	"net/http"
	"strconv"

	"kart-checkout/internal/model"
	"kart-checkout/internal/ratelimit"

	"github.com/rs/zerolog"
)

// RateLimit throttles authenticated buyers, falling back to the remote address.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if buyer, ok := BuyerFromContext(r.Context()); ok {
				key = buyer.ID
			}

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				logger.Warn().Str("key", key).Str("path", r.URL.Path).Msg("rate limit exceeded")
				writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited, "Too many requests, please retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
