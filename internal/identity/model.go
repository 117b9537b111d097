package identity

import (
	"strings"
	"time"
)

// Registration types recorded on the user row.
const (
	RegistrationStandard = "standard"
	RegistrationSocial   = "social"
)

// User represents a registered account with its profile attributes.
type User struct {
	ID                    string
	FirstName             string
	LastName              string
	Email                 string
	Phone                 string
	ProfilePicture        string
	Gender                *int
	Age                   *int
	Height                *float64
	Weight                *int
	WeightType            *int
	PhysicalActivityLevel *int
	Goals                 []int64
	PasswordHash          []byte
	Verified              bool
	EmailVerifiedAt       *time.Time
	RegistrationType      string
	UserType              string
	TokenVersion          int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasPassword reports whether the account carries a password credential.
// Social registrations may not.
func (u User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

// NormalizeEmail canonicalizes an address for use as the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
