package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/profile"
)

// RegisterProfileRoutes wires the authenticated profile endpoints.
func RegisterProfileRoutes(r fiber.Router, h *profile.Handler) {
	r.Get("/profile", h.Show)
	r.Put("/profile/update", h.Update)
}
