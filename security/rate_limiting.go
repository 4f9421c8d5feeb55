package security

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis  *redis.Client
	perMin int
}

func NewRateLimiter(redisClient *redis.Client, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{redis: redisClient, perMin: requestsPerMinute}
}

// Limit is a fixed-window per-caller limiter backed by redis. Authenticated
// callers are keyed by entity id, anonymous ones by IP. When redis is down
// requests pass through rather than take the API down with it.
func (r *RateLimiter) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.redis == nil {
				return next(c)
			}

			identity := c.RealIP()
			if principal := PrincipalFrom(c); principal.EntityID != "" {
				identity = string(principal.Role) + ":" + principal.EntityID
			}
			key := fmt.Sprintf("ratelimit:%s", identity)

			ctx := c.Request().Context()
			count, err := r.redis.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				r.redis.Expire(ctx, key, time.Minute)
			}
			if count > int64(r.perMin) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"status": "error",
					"error":  "rate limit exceeded, please try again later",
				})
			}

			return next(c)
		}
	}
}
