package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zuripay/zuripay/internal/auth"
)

// RegisterAuthRoutes wires registration, verification and login endpoints.
// The rate limiter guards every endpoint that accepts or mints a one-time
// code.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter == nil {
		rateLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	group.Post("/create-user", h.Register)
	group.Post("/verify-email", rateLimiter, h.VerifyEmail)
	group.Post("/resend-verification", rateLimiter, h.ResendVerification)
	group.Post("/login", rateLimiter, h.Login)
	group.Post("/verify-otp", rateLimiter, h.VerifyOTP)
}
