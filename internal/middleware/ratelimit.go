package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/pkg/response"
)

// RateLimit returns middleware enforcing a fixed-window per-IP limit.
// Counters live in Redis so the limit holds across replicas. It runs
// before authentication, so the client IP is the only identity it has.
func RateLimit(rdb *redis.Client, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			window := time.Now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%d", getClientIP(r), window)

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				// Redis trouble must not take the API down
				log.Warn().Err(err).Msg("Rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, 2*time.Minute)
			}

			if count > int64(perMinute) {
				w.Header().Set("Retry-After", "60")
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
