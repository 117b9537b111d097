package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTicketPrefix = "reset:v1:"

// TicketStore hands out single-use password-reset tickets. A ticket proves
// that the holder recently consumed a reset code for the account; it is the
// cryptographic binding between "verify reset OTP" and "update password".
type TicketStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, userID, ticket string) error
}

// RedisTicketStore keeps ticket hashes in Redis with a TTL.
type RedisTicketStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisTicketStore builds a Redis-backed ticket store.
func NewRedisTicketStore(cache *redis.Client, ttl time.Duration) *RedisTicketStore {
	return &RedisTicketStore{cache: cache, ttl: ttl}
}

// Issue stores a fresh ticket bound to the user and returns its plain form.
func (s *RedisTicketStore) Issue(ctx context.Context, userID string) (string, error) {
	ticket, key, err := newTicket()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset ticket: %w", err)
	}
	return ticket, nil
}

// Consume deletes the ticket and checks it was issued to the same user.
// GETDEL makes consumption single-use even under concurrent submits.
func (s *RedisTicketStore) Consume(ctx context.Context, userID, ticket string) error {
	owner, err := s.cache.GetDel(ctx, ticketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrResetTicketInvalid
	}
	if err != nil {
		return fmt.Errorf("load reset ticket: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(owner), []byte(userID)) != 1 {
		return ErrResetTicketInvalid
	}
	return nil
}

// MemoryTicketStore is the in-process fallback used in development and tests.
type MemoryTicketStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	tickets map[string]memoryTicket
}

type memoryTicket struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryTicketStore builds an in-memory ticket store.
func NewMemoryTicketStore(ttl time.Duration) *MemoryTicketStore {
	return &MemoryTicketStore{ttl: ttl, tickets: make(map[string]memoryTicket)}
}

// Issue stores a fresh ticket bound to the user and returns its plain form.
func (s *MemoryTicketStore) Issue(_ context.Context, userID string) (string, error) {
	ticket, key, err := newTicket()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[key] = memoryTicket{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return ticket, nil
}

// Consume deletes the ticket and checks ownership and expiry.
func (s *MemoryTicketStore) Consume(_ context.Context, userID, ticket string) error {
	key := ticketKey(ticket)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tickets[key]
	delete(s.tickets, key)
	if !ok || time.Now().After(stored.expiresAt) || stored.userID != userID {
		return ErrResetTicketInvalid
	}
	return nil
}

func newTicket() (ticket, key string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	ticket = base64.RawURLEncoding.EncodeToString(raw)
	return ticket, ticketKey(ticket), nil
}

// Only a hash of the ticket is used as the storage key, so the store never
// holds the plain capability.
func ticketKey(ticket string) string {
	sum := sha256.Sum256([]byte(ticket))
	return resetTicketPrefix + hex.EncodeToString(sum[:])
}
