// Package otp issues and consumes the one-time codes that gate email
// verification and password reset. A user has a single code slot: issuing a
// new code for either purpose overwrites whatever was outstanding.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/brenbala/brenbala-api/internal/notification"
)

// Purpose tags a code with the flow it was issued for. A code issued for one
// purpose cannot be consumed for another.
type Purpose string

const (
	// PurposeVerify covers registration and login email verification.
	PurposeVerify Purpose = "verify"
	// PurposeReset covers password-reset unlock.
	PurposeReset Purpose = "reset"
)

var (
	// ErrCodeNotFound signals that no outstanding code exists or it expired.
	ErrCodeNotFound = errors.New("one-time code not found")
	// ErrCodeMismatch signals that the submitted code does not match the outstanding one.
	ErrCodeMismatch = errors.New("one-time code mismatch")
	// ErrCodeAttemptsExceeded signals that the outstanding code was invalidated after too many bad submissions.
	ErrCodeAttemptsExceeded = errors.New("one-time code attempts exceeded")
	// ErrDeliveryFailed signals the code was stored but could not be dispatched.
	ErrDeliveryFailed = errors.New("one-time code delivery failed")
)

// Record is the stored form of an outstanding code. Only a hash of the code
// is persisted.
type Record struct {
	CodeHash  []byte
	Purpose   Purpose
	ExpiresAt time.Time
	Attempts  int
}

// Store persists the per-user code slot. Implementations must make
// ConsumeCode atomic with respect to concurrent issues and consumes for the
// same user, and must compare hashes in constant time.
type Store interface {
	SaveCode(ctx context.Context, userID string, record Record) error
	ConsumeCode(ctx context.Context, userID string, purpose Purpose, codeHash []byte, maxAttempts int) error
}

// Issuer generates numeric one-time codes, binds them to users and hands them
// to the notifier.
type Issuer struct {
	store       Store
	notifier    notification.Notifier
	digits      int
	ttl         time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// NewIssuer builds an Issuer. Digits outside the 4-6 range are clamped to 5.
func NewIssuer(store Store, notifier notification.Notifier, digits int, ttl time.Duration, maxAttempts int, logger *slog.Logger) *Issuer {
	if digits < 4 || digits > 6 {
		digits = 5
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Issuer{
		store:       store,
		notifier:    notifier,
		digits:      digits,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Issue stores a fresh code for the user, superseding any outstanding one,
// and dispatches it to the destination address. The slot update commits
// before dispatch: a delivery failure returns ErrDeliveryFailed but leaves
// the code valid so the caller can fall back to a resend.
func (i *Issuer) Issue(ctx context.Context, userID, destination string, purpose Purpose) error {
	code, err := NewCode(i.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	record := Record{
		CodeHash:  HashCode(code),
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(i.ttl),
	}
	if err := i.store.SaveCode(ctx, userID, record); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	kind := notification.KindEmailVerification
	if purpose == PurposeReset {
		kind = notification.KindPasswordReset
	}
	message := notification.Message{
		Kind:        kind,
		Destination: destination,
		Body:        notification.OTPBody(kind, code, i.ttl),
	}
	if err := i.notifier.Send(ctx, message); err != nil {
		i.logger.Error("otp dispatch failed", "user_id", userID, "purpose", string(purpose), "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	i.logger.Info("otp issued", "user_id", userID, "purpose", string(purpose), "expires_at", record.ExpiresAt)
	return nil
}

// Confirm consumes the outstanding code for the user. On success the slot is
// cleared atomically; the code can never be replayed. A mismatch increments
// the attempt counter and invalidates the slot once maxAttempts is reached.
func (i *Issuer) Confirm(ctx context.Context, userID string, purpose Purpose, submitted string) error {
	return i.store.ConsumeCode(ctx, userID, purpose, HashCode(submitted), i.maxAttempts)
}

// NewCode draws a fixed-width numeric code from crypto/rand. Five digits
// yields the 10000-99999 range.
func NewCode(digits int) (string, error) {
	low := big.NewInt(1)
	for n := 1; n < digits; n++ {
		low.Mul(low, big.NewInt(10))
	}
	span := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}

// HashCode returns the stored form of a code.
func HashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}
