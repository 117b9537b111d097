package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the administrative user CRUD endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a user admin HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Index lists all users.
func (h *Handler) Index(c *fiber.Ctx) error {
	users, err := h.svc.List(c.UserContext())
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(fiber.Map{"users": Views(users)})
}

// Show returns a single user.
func (h *Handler) Show(c *fiber.Ctx) error {
	user, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(fiber.Map{"user": user.View()})
}

type userRequest struct {
	FirstName             *string  `json:"first_name"`
	LastName              *string  `json:"last_name"`
	Email                 *string  `json:"email"`
	Phone                 *string  `json:"phone"`
	ProfilePicture        *string  `json:"profile_picture"`
	Gender                *int     `json:"gender"`
	Age                   *int     `json:"age"`
	Height                *float64 `json:"height"`
	Weight                *int     `json:"weight"`
	WeightType            *int     `json:"weight_type"`
	PhysicalActivityLevel *int     `json:"physical_activity_level"`
	Goals                 []int64  `json:"goals"`
	UserType              *string  `json:"user_type"`
	Password              string   `json:"password"`
}

func (r userRequest) profileUpdate() ProfileUpdate {
	return ProfileUpdate{
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		Email:                 r.Email,
		Phone:                 r.Phone,
		ProfilePicture:        r.ProfilePicture,
		Gender:                r.Gender,
		Age:                   r.Age,
		Height:                r.Height,
		Weight:                r.Weight,
		WeightType:            r.WeightType,
		PhysicalActivityLevel: r.PhysicalActivityLevel,
		Goals:                 r.Goals,
		UserType:              r.UserType,
	}
}

// Store creates a user with its profile in one call.
func (h *Handler) Store(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	in := RegisterInput{Password: req.Password}
	if req.FirstName != nil {
		in.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		in.LastName = *req.LastName
	}
	if req.Email != nil {
		in.Email = *req.Email
	}

	user, err := h.svc.Register(c.UserContext(), in)
	if err != nil {
		return HTTPError(err)
	}
	user, err = h.svc.UpdateProfile(c.UserContext(), user.ID, req.profileUpdate())
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": user.View()})
}

// Update applies a partial update to a user.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), c.Params("id"), req.profileUpdate())
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(fiber.Map{"user": user.View()})
}

// Destroy deletes a user.
func (h *Handler) Destroy(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return HTTPError(err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// HTTPError maps identity errors onto the HTTP status contract.
func HTTPError(err error) *fiber.Error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return fiber.NewError(http.StatusUnprocessableEntity, "The email has already been taken.")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "User not found.")
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, "The provided credentials are incorrect.")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
