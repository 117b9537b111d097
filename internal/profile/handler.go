// Package profile exposes the authenticated user's own profile.
package profile

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/identity"
)

// Handler exposes profile endpoints for the authenticated caller.
type Handler struct {
	svc *identity.Service
}

// NewHandler constructs a profile HTTP handler.
func NewHandler(svc *identity.Service) *Handler {
	return &Handler{svc: svc}
}

// Show returns the authenticated user's details.
func (h *Handler) Show(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	user, err := h.svc.Get(c.UserContext(), userID)
	if err != nil {
		return identity.HTTPError(err)
	}
	return c.JSON(user.View())
}

type updateRequest struct {
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
	OldPassword           string   `json:"old_password"`
	NewPassword           string   `json:"new_password"`
	ConfirmPassword       string   `json:"confirm_password"`
}

// Update applies a partial update to the authenticated user. Password changes
// require the current password.
func (h *Handler) Update(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.UpdateProfile(c.UserContext(), userID, identity.ProfileUpdate{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		ProfilePicture:        req.ProfilePicture,
		Gender:                req.Gender,
		Age:                   req.Age,
		Height:                req.Height,
		Weight:                req.Weight,
		WeightType:            req.WeightType,
		PhysicalActivityLevel: req.PhysicalActivityLevel,
		Goals:                 req.Goals,
		OldPassword:           req.OldPassword,
		NewPassword:           req.NewPassword,
		ConfirmPassword:       req.ConfirmPassword,
	})
	if err != nil {
		return identity.HTTPError(err)
	}
	return c.JSON(user.View())
}
