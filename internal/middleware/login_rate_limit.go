package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// LoginRateLimit throttles authentication attempts per identifier using Redis
// if available. The identifier is the submitted email or phone number, falling
// back to the client IP, so one caller cannot grind codes against a single
// account.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			Email       string `json:"email"`
			PhoneNumber string `json:"phone_number"`
		}
		_ = c.BodyParser(&req)
		id := strings.TrimSpace(req.Email)
		if id == "" {
			id = strings.TrimSpace(req.PhoneNumber)
		}
		if id == "" {
			id = c.IP()
		}
		key := "rl:auth:" + strings.ToLower(id)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			if err := cache.Expire(c.UserContext(), key, time.Minute).Err(); err != nil {
				// A counter without a TTL would throttle this identifier
				// forever. Drop it and fail open like any other cache error.
				cache.Del(c.UserContext(), key)
				return c.Next()
			}
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many attempts, try again later")
		}
		return c.Next()
	}
}
