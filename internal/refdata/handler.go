package refdata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the CRUD endpoints for one reference kind.
type Handler struct {
	repo Repository
	kind Kind
}

// NewHandler constructs a reference HTTP handler bound to a kind.
func NewHandler(repo Repository, kind Kind) *Handler {
	return &Handler{repo: repo, kind: kind}
}

// Index lists all items of the kind.
func (h *Handler) Index(c *fiber.Ctx) error {
	items, err := h.repo.List(c.UserContext(), h.kind)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []Item{}
	}
	return c.JSON(fiber.Map{string(h.kind): items})
}

// Show returns a single item.
func (h *Handler) Show(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, err := h.repo.Get(c.UserContext(), h.kind, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(item)
}

type itemRequest struct {
	Name string `json:"name"`
}

// Store creates a new item.
func (h *Handler) Store(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusUnprocessableEntity, "name is required")
	}
	item, err := h.repo.Create(c.UserContext(), h.kind, req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(item)
}

// Update renames an item.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusUnprocessableEntity, "name is required")
	}
	item, err := h.repo.Update(c.UserContext(), h.kind, id, req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(item)
}

// Destroy deletes an item.
func (h *Handler) Destroy(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Delete(c.UserContext(), h.kind, id); err != nil {
		return httpError(err)
	}
	return c.JSON(fiber.Map{"message": "Deleted successfully"})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	}
	return id, nil
}

func httpError(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "Not found.")
	case errors.Is(err, ErrDuplicateName):
		return fiber.NewError(http.StatusUnprocessableEntity, "The name has already been taken.")
	case errors.Is(err, ErrUnknownKind):
		return fiber.NewError(http.StatusNotFound, "Not found.")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
