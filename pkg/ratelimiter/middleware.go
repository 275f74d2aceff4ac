package ratelimiter

import (
	"net/http"
	"strconv"
)

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// Middleware creates an HTTP middleware limiting requests per key. Requests
// whose key resolves to "" bypass the limiter. A failing store degrades to
// allowing the request: losing rate limiting is preferable to refusing all
// sign-ins when Redis blips.
func Middleware(bucket *Bucket, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := bucket.Allow(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
