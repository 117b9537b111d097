package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/identity"
	"github.com/brenbala/brenbala-api/internal/otp"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates an account and dispatches the verification code.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.Register(c.UserContext(), identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "OTP sent to your email."})
}

// RegisterSocial creates a passwordless account and dispatches the
// verification code.
func (h *Handler) RegisterSocial(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterSocial(c.UserContext(), req.FirstName, req.LastName, req.Email); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "OTP sent to your email."})
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Verify confirms the code, activates the account and returns the first token.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.VerifyAndActivate(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"token": token, "message": "Registration successful."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// Login exchanges credentials (or a dispatched code) for a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.Login(c.UserContext(), LoginInput{Email: req.Email, Password: req.Password, Code: req.OTP})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token})
}

type emailRequest struct {
	Email string `json:"email"`
}

// LoginSocial starts a passwordless login by dispatching a code.
func (h *Handler) LoginSocial(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.LoginSocial(c.UserContext(), req.Email); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP sent to your email."})
}

// SendOTP re-dispatches a fresh verification code.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ResendOTP(c.UserContext(), req.Email); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP sent to your email."})
}

// ResetPassword dispatches a password-reset code.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ResetPassword(c.UserContext(), req.Email); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password reset OTP sent to your email."})
}

// VerifyResetOTP exchanges a reset code for a single-use reset ticket.
func (h *Handler) VerifyResetOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ticket, err := h.svc.VerifyResetOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"reset_token": ticket, "message": "OTP verified."})
}

type updatePasswordRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ResetToken      string `json:"reset_token"`
}

// UpdatePassword completes a reset using the ticket from VerifyResetOTP.
func (h *Handler) UpdatePassword(c *fiber.Ctx) error {
	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.UpdatePassword(c.UserContext(), UpdatePasswordInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		ResetTicket:     req.ResetToken,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password updated successfully."})
}

// Logout revokes every token of the authenticated caller.
func (h *Handler) Logout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	if err := h.svc.Logout(c.UserContext(), userID); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Successfully logged out"})
}

// httpError maps flow errors onto the HTTP status contract, deferring to the
// identity mapping for store-level errors.
func httpError(err error) *fiber.Error {
	switch {
	case errors.Is(err, otp.ErrCodeMismatch), errors.Is(err, otp.ErrCodeNotFound):
		return fiber.NewError(http.StatusUnprocessableEntity, "Invalid OTP.")
	case errors.Is(err, otp.ErrCodeAttemptsExceeded):
		return fiber.NewError(http.StatusUnprocessableEntity, "Too many invalid attempts. Request a new OTP.")
	case errors.Is(err, ErrVerificationRequired):
		return fiber.NewError(http.StatusUnprocessableEntity, "Email verification required. OTP sent to your email.")
	case errors.Is(err, ErrResetTicketInvalid):
		return fiber.NewError(http.StatusUnprocessableEntity, "Reset token invalid or expired.")
	case errors.Is(err, ErrPasswordMismatch):
		return fiber.NewError(http.StatusUnprocessableEntity, "Password confirmation does not match.")
	case errors.Is(err, otp.ErrDeliveryFailed):
		return fiber.NewError(http.StatusBadGateway, "Could not send OTP email. Please retry.")
	default:
		return identity.HTTPError(err)
	}
}
