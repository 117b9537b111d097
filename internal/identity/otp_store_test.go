package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brenbala/brenbala-api/internal/otp"
)

func seedUserWithCode(t *testing.T, repo Repository, record otp.Record) User {
	t.Helper()
	ctx := context.Background()
	user := User{ID: "user-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.SaveCode(ctx, user.ID, record); err != nil {
		t.Fatalf("save code: %v", err)
	}
	return user
}

func TestConsumeCodeSingleUse(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	hash := otp.HashCode("12345")
	user := seedUserWithCode(t, repo, otp.Record{
		CodeHash:  hash,
		Purpose:   otp.PurposeVerify,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, hash, 5); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, hash, 5); !errors.Is(err, otp.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound on replay, got %v", err)
	}
}

func TestConsumeCodeWrongPurpose(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	hash := otp.HashCode("12345")
	user := seedUserWithCode(t, repo, otp.Record{
		CodeHash:  hash,
		Purpose:   otp.PurposeReset,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	// A reset code must never pass a verify consume, even with the right hash.
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, hash, 5); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeReset, hash, 5); err != nil {
		t.Fatalf("consume with matching purpose: %v", err)
	}
}

func TestConsumeCodeExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	hash := otp.HashCode("12345")
	user := seedUserWithCode(t, repo, otp.Record{
		CodeHash:  hash,
		Purpose:   otp.PurposeVerify,
		ExpiresAt: time.Now().UTC().Add(-time.Second),
	})

	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, hash, 5); !errors.Is(err, otp.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound for expired code, got %v", err)
	}
}

func TestConsumeCodeAttemptCap(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	hash := otp.HashCode("12345")
	user := seedUserWithCode(t, repo, otp.Record{
		CodeHash:  hash,
		Purpose:   otp.PurposeVerify,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	wrong := otp.HashCode("99999")
	for i := 0; i < 2; i++ {
		if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, wrong, 3); !errors.Is(err, otp.ErrCodeMismatch) {
			t.Fatalf("attempt %d: expected ErrCodeMismatch, got %v", i+1, err)
		}
	}
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, wrong, 3); !errors.Is(err, otp.ErrCodeAttemptsExceeded) {
		t.Fatalf("expected ErrCodeAttemptsExceeded, got %v", err)
	}
	// Slot is burned; even the right code is gone now.
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, hash, 3); !errors.Is(err, otp.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after cap, got %v", err)
	}
}

func TestSaveCodeSupersedes(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	oldHash := otp.HashCode("11111")
	user := seedUserWithCode(t, repo, otp.Record{
		CodeHash:  oldHash,
		Purpose:   otp.PurposeVerify,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	newHash := otp.HashCode("22222")
	if err := repo.SaveCode(ctx, user.ID, otp.Record{
		CodeHash:  newHash,
		Purpose:   otp.PurposeVerify,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("save replacement: %v", err)
	}

	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, oldHash, 5); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("expected superseded code to mismatch, got %v", err)
	}
	if err := repo.ConsumeCode(ctx, user.ID, otp.PurposeVerify, newHash, 5); err != nil {
		t.Fatalf("consume replacement: %v", err)
	}
}
