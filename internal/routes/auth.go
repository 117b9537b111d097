package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/auth"
)

// RegisterAuthRoutes wires the registration, verification, login and
// password-reset endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, authRequired fiber.Handler, rateLimiter fiber.Handler) {
	r.Post("/register", h.Register)
	r.Post("/register-with-social", h.RegisterSocial)
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, h.Login)
		r.Post("/login-with-social", rateLimiter, h.LoginSocial)
	} else {
		r.Post("/login", h.Login)
		r.Post("/login-with-social", h.LoginSocial)
	}
	r.Post("/logout", authRequired, h.Logout)

	r.Post("/users/verify", h.Verify)
	r.Post("/users/send-otp", h.SendOTP)

	password := r.Group("/password")
	password.Post("/reset", h.ResetPassword)
	password.Post("/verify-otp", h.VerifyResetOTP)
	password.Post("/update", h.UpdatePassword)
}
