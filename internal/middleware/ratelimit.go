package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sementes/sementes-api/internal/pkg/response"
)

// RateLimit returns a fixed-window rate limiter backed by Redis, keyed by
// client IP and route name. Redis is a throttle only, never an authority:
// when the client is nil or unreachable the request passes through.
func RateLimit(client *redis.Client, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("ratelimit:%s:%s", name, getClientIP(r))

			count, err := client.Incr(r.Context(), key).Result()
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(r.Context(), key, window)
			}

			if count > int64(limit) {
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
