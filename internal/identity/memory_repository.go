package identity

import (
	"context"
	"crypto/subtle"
	"sort"
	"sync"
	"time"

	"github.com/brenbala/brenbala-api/internal/otp"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]User       // keyed by id
	slots map[string]otp.Record // keyed by id
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users: make(map[string]User),
		slots: make(map[string]otp.Record),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = NormalizeEmail(email)
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.users {
		if id != user.ID && other.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	stored.Phone = user.Phone
	stored.ProfilePicture = user.ProfilePicture
	stored.Gender = user.Gender
	stored.Age = user.Age
	stored.Height = user.Height
	stored.Weight = user.Weight
	stored.WeightType = user.WeightType
	stored.PhysicalActivityLevel = user.PhysicalActivityLevel
	stored.Goals = user.Goals
	stored.UserType = user.UserType
	stored.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = stored
	return nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.TokenVersion = version
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) MarkVerified(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	user.Verified = true
	user.EmailVerifiedAt = &at
	user.UpdatedAt = at
	r.users[id] = user
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.slots, id)
	return nil
}

func (r *memoryRepository) SaveCode(_ context.Context, id string, record otp.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	r.slots[id] = record
	return nil
}

func (r *memoryRepository) ConsumeCode(_ context.Context, id string, purpose otp.Purpose, codeHash []byte, maxAttempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	record, ok := r.slots[id]
	if !ok || time.Now().UTC().After(record.ExpiresAt) {
		delete(r.slots, id)
		return otp.ErrCodeNotFound
	}
	if record.Purpose != purpose || subtle.ConstantTimeCompare(record.CodeHash, codeHash) != 1 {
		record.Attempts++
		if record.Attempts >= maxAttempts {
			delete(r.slots, id)
			return otp.ErrCodeAttemptsExceeded
		}
		r.slots[id] = record
		return otp.ErrCodeMismatch
	}
	delete(r.slots, id)
	return nil
}
