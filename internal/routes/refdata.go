package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/refdata"
)

// RegisterRefDataRoutes wires CRUD endpoints for every reference table.
func RegisterRefDataRoutes(r fiber.Router, repo refdata.Repository) {
	for _, kind := range refdata.Kinds() {
		h := refdata.NewHandler(repo, kind)
		group := r.Group("/" + kind.Path())
		group.Get("", h.Index)
		group.Get("/:id", h.Show)
		group.Post("", h.Store)
		group.Put("/:id", h.Update)
		group.Delete("/:id", h.Destroy)
	}
}
