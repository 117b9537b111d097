package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials signals a password mismatch for an existing account.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports malformed or missing input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

const minPasswordLength = 8

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Service manages the account lifecycle and credential verification.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Repo exposes the underlying repository for collaborators that need direct
// keyed access (token guard, routes wiring).
func (s *Service) Repo() Repository {
	return s.repo
}

// RegisterInput is the explicit input schema for account registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unverified account with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := validateName(in.FirstName, "first name"); err != nil {
		return User{}, err
	}
	if err := validateName(in.LastName, "last name"); err != nil {
		return User{}, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	if len(in.Password) < minPasswordLength {
		return User{}, Invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:               uuid.NewString(),
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            email,
		PasswordHash:     hash,
		RegistrationType: RegistrationStandard,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// RegisterSocial creates an unverified passwordless account.
func (s *Service) RegisterSocial(ctx context.Context, firstName, lastName, email string) (User, error) {
	if err := validateName(firstName, "first name"); err != nil {
		return User{}, err
	}
	if err := validateName(lastName, "last name"); err != nil {
		return User{}, err
	}
	addr, err := validateEmail(email)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:               uuid.NewString(),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            addr,
		RegistrationType: RegistrationSocial,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate checks email and password against the stored hash. It returns
// ErrNotFound for unknown addresses and ErrInvalidCredentials on mismatch or
// for passwordless accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !user.HasPassword() {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ProfileUpdate is the explicit input schema for partial profile updates.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName             *string
	LastName              *string
	Email                 *string
	Phone                 *string
	ProfilePicture        *string
	Gender                *int
	Age                   *int
	Height                *float64
	Weight                *int
	WeightType            *int
	PhysicalActivityLevel *int
	Goals                 []int64
	UserType              *string
	OldPassword           string
	NewPassword           string
	ConfirmPassword       string
}

// UpdateProfile applies a partial update to the user. Changing the password
// requires the current one; the new password must match its confirmation.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	applyString(&user.FirstName, in.FirstName)
	applyString(&user.LastName, in.LastName)
	applyString(&user.Phone, in.Phone)
	applyString(&user.ProfilePicture, in.ProfilePicture)
	applyString(&user.UserType, in.UserType)
	if in.Email != nil {
		email, err := validateEmail(*in.Email)
		if err != nil {
			return User{}, err
		}
		user.Email = email
	}
	if in.Gender != nil {
		user.Gender = in.Gender
	}
	if in.Age != nil {
		user.Age = in.Age
	}
	if in.Height != nil {
		user.Height = in.Height
	}
	if in.Weight != nil {
		user.Weight = in.Weight
	}
	if in.WeightType != nil {
		user.WeightType = in.WeightType
	}
	if in.PhysicalActivityLevel != nil {
		user.PhysicalActivityLevel = in.PhysicalActivityLevel
	}
	if in.Goals != nil {
		user.Goals = in.Goals
	}

	var newHash []byte
	if in.NewPassword != "" || in.OldPassword != "" {
		if len(in.NewPassword) < minPasswordLength {
			return User{}, Invalid("new password must be at least %d characters", minPasswordLength)
		}
		if in.NewPassword != in.ConfirmPassword {
			return User{}, Invalid("password confirmation does not match")
		}
		if !user.HasPassword() || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(in.OldPassword)) != nil {
			return User{}, Invalid("the old password is incorrect")
		}
		newHash, err = bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return User{}, err
	}
	if newHash != nil {
		if err := s.repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
			return User{}, err
		}
		user.PasswordHash = newHash
	}

	return user, nil
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns a single account by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func validateName(value, field string) error {
	if value == "" {
		return Invalid("%s is required", field)
	}
	if len(value) > 255 {
		return Invalid("%s must be at most 255 characters", field)
	}
	return nil
}

func validateEmail(value string) (string, error) {
	email := NormalizeEmail(value)
	if email == "" {
		return "", Invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", Invalid("email is not a valid address")
	}
	return email, nil
}
