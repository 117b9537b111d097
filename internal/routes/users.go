package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/identity"
)

// RegisterUserRoutes wires the administrative user CRUD endpoints.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler) {
	group := r.Group("/users")
	group.Get("", h.Index)
	group.Get("/:id", h.Show)
	group.Post("", h.Store)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Destroy)
}
