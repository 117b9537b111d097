package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/brenbala/brenbala-api/internal/identity"
	"github.com/brenbala/brenbala-api/internal/otp"
)

const minPasswordLength = 8

// Service orchestrates registration, verification, login, password reset and
// logout as a state machine over the identity store, the OTP issuer and the
// token manager.
type Service struct {
	ids     *identity.Service
	repo    identity.Repository
	otps    *otp.Issuer
	tokens  *TokenManager
	tickets TicketStore
	logger  *slog.Logger
}

// NewService wires the authentication flow controller.
func NewService(ids *identity.Service, otps *otp.Issuer, tokens *TokenManager, tickets TicketStore, logger *slog.Logger) *Service {
	return &Service{
		ids:     ids,
		repo:    ids.Repo(),
		otps:    otps,
		tokens:  tokens,
		tickets: tickets,
		logger:  logger,
	}
}

// Register creates an unverified account and dispatches a verification code.
// No token is issued; the account stays unusable until the code is confirmed.
func (s *Service) Register(ctx context.Context, in identity.RegisterInput) error {
	user, err := s.ids.Register(ctx, in)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify)
}

// RegisterSocial creates an unverified passwordless account and dispatches a
// verification code.
func (s *Service) RegisterSocial(ctx context.Context, firstName, lastName, email string) error {
	user, err := s.ids.RegisterSocial(ctx, firstName, lastName, email)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify)
}

// VerifyAndActivate consumes a verification code, flips the account to
// verified and establishes the first authenticated session. An unknown email
// is indistinguishable from a wrong code.
func (s *Service) VerifyAndActivate(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", identity.Invalid("email and otp are required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", otp.ErrCodeMismatch
	}
	if err := s.otps.Confirm(ctx, user.ID, otp.PurposeVerify, code); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := s.repo.MarkVerified(ctx, user.ID, now); err != nil {
		return "", err
	}
	user.Verified = true
	user.EmailVerifiedAt = &now

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	s.logger.Info("account activated", "user_id", user.ID)
	return token, nil
}

// LoginInput is the explicit input schema for login.
type LoginInput struct {
	Email    string
	Password string
	Code     string
}

// Login authenticates by password or by a previously dispatched code.
// Unverified accounts never receive a token: without a code a fresh one is
// dispatched and the caller is told verification is pending; with a valid
// code the account still has to complete activation first.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	if in.Email == "" {
		return "", identity.Invalid("email is required")
	}
	if in.Code == "" && in.Password == "" {
		return "", identity.Invalid("password is required")
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}

	if !user.Verified && in.Code == "" {
		if err := s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify); err != nil {
			return "", err
		}
		return "", ErrVerificationRequired
	}

	if in.Code != "" {
		if err := s.otps.Confirm(ctx, user.ID, otp.PurposeVerify, in.Code); err != nil {
			return "", err
		}
		if !user.Verified {
			return "", ErrVerificationRequired
		}
		// OTP-gated login refreshes the verification timestamp.
		if err := s.repo.MarkVerified(ctx, user.ID, time.Now().UTC()); err != nil {
			return "", err
		}
		return s.tokens.Issue(user)
	}

	user, err = s.ids.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return "", err
	}
	if !user.Verified {
		if err := s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify); err != nil {
			return "", err
		}
		return "", ErrVerificationRequired
	}

	return s.tokens.Issue(user)
}

// LoginSocial starts a passwordless login by dispatching a verification code.
// The caller exchanges the code for a token through Login's code branch.
func (s *Service) LoginSocial(ctx context.Context, email string) error {
	if email == "" {
		return identity.Invalid("email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify)
}

// ResendOTP unconditionally issues a fresh verification code, superseding any
// outstanding one.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return identity.Invalid("email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeVerify)
}

// ResetPassword dispatches a reset-tagged code. The code cannot activate an
// account; it can only be exchanged for a reset ticket.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return identity.Invalid("email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.otps.Issue(ctx, user.ID, user.Email, otp.PurposeReset)
}

// VerifyResetOTP consumes a reset code and returns a single-use ticket that
// authorizes the subsequent password update.
func (s *Service) VerifyResetOTP(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", identity.Invalid("email and otp are required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.otps.Confirm(ctx, user.ID, otp.PurposeReset, code); err != nil {
		return "", err
	}
	return s.tickets.Issue(ctx, user.ID)
}

// UpdatePasswordInput is the explicit input schema for completing a reset.
type UpdatePasswordInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	ResetTicket     string
}

// UpdatePassword overwrites the password hash. It requires the ticket minted
// by VerifyResetOTP and revokes all outstanding tokens afterwards.
func (s *Service) UpdatePassword(ctx context.Context, in UpdatePasswordInput) error {
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength {
		return identity.Invalid("password must be at least %d characters", minPasswordLength)
	}
	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if err := s.tickets.Consume(ctx, user.ID, in.ResetTicket); err != nil {
		return err
	}

	hash, err := identity.HashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.repo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1); err != nil {
		return err
	}
	s.logger.Info("password updated", "user_id", user.ID)
	return nil
}

// Logout revokes every outstanding token for the user by bumping the token
// version embedded in future tokens.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1)
}
