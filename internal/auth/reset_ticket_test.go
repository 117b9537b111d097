package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisTicketStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return NewRedisTicketStore(cache, time.Minute), mr
}

func TestRedisTicketSingleUse(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	ticket, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Consume(ctx, "user-1", ticket); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.Consume(ctx, "user-1", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
}

func TestRedisTicketWrongOwner(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	ticket, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Consume(ctx, "user-2", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected owner mismatch to fail, got %v", err)
	}
	// Wrong-owner submission burned the ticket.
	if err := store.Consume(ctx, "user-1", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected burned ticket to fail, got %v", err)
	}
}

func TestRedisTicketExpires(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	ticket, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := store.Consume(ctx, "user-1", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected expired ticket to fail, got %v", err)
	}
}

func TestMemoryTicketStore(t *testing.T) {
	store := NewMemoryTicketStore(time.Minute)
	ctx := context.Background()

	ticket, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Consume(ctx, "user-2", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected owner mismatch to fail, got %v", err)
	}
	ticket, err = store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Consume(ctx, "user-1", ticket); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.Consume(ctx, "user-1", ticket); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
	if err := store.Consume(ctx, "user-1", "forged"); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected forged ticket to fail, got %v", err)
	}
}
