package identity

import "time"

// UserView is the outward JSON shape of a user. The password hash and the
// OTP slot never leave the service.
type UserView struct {
	ID                    string     `json:"id"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone,omitempty"`
	ProfilePicture        string     `json:"profile_picture,omitempty"`
	Gender                *int       `json:"gender,omitempty"`
	Age                   *int       `json:"age,omitempty"`
	Height                *float64   `json:"height,omitempty"`
	Weight                *int       `json:"weight,omitempty"`
	WeightType            *int       `json:"weight_type,omitempty"`
	PhysicalActivityLevel *int       `json:"physical_activity_level,omitempty"`
	Goals                 []int64    `json:"goals,omitempty"`
	Verified              bool       `json:"verified"`
	EmailVerifiedAt       *time.Time `json:"email_verified_at,omitempty"`
	RegistrationType      string     `json:"registration_type"`
	UserType              string     `json:"user_type,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// View converts a user to its outward shape.
func (u User) View() UserView {
	return UserView{
		ID:                    u.ID,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Email:                 u.Email,
		Phone:                 u.Phone,
		ProfilePicture:        u.ProfilePicture,
		Gender:                u.Gender,
		Age:                   u.Age,
		Height:                u.Height,
		Weight:                u.Weight,
		WeightType:            u.WeightType,
		PhysicalActivityLevel: u.PhysicalActivityLevel,
		Goals:                 u.Goals,
		Verified:              u.Verified,
		EmailVerifiedAt:       u.EmailVerifiedAt,
		RegistrationType:      u.RegistrationType,
		UserType:              u.UserType,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

// Views converts a slice of users.
func Views(users []User) []UserView {
	out := make([]UserView, len(users))
	for i, u := range users {
		out[i] = u.View()
	}
	return out
}
