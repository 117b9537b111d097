package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/brenbala/brenbala-api/internal/identity"
	"github.com/brenbala/brenbala-api/internal/logging"
	"github.com/brenbala/brenbala-api/internal/notification"
	"github.com/brenbala/brenbala-api/internal/otp"
)

func newTestService(t *testing.T) (*Service, *notification.Recorder, identity.Repository) {
	t.Helper()
	repo := identity.NewMemoryRepository()
	ids := identity.NewService(repo)
	rec := notification.NewRecorder()
	issuer := otp.NewIssuer(repo, rec, 5, 10*time.Minute, 5, logging.Discard())
	tokens := NewTokenManager("test-secret", time.Hour)
	tickets := NewMemoryTicketStore(10 * time.Minute)
	svc := NewService(ids, issuer, tokens, tickets, logging.Discard())
	return svc, rec, repo
}

func lastCode(t *testing.T, rec *notification.Recorder) string {
	t.Helper()
	msg, ok := rec.Last()
	if !ok {
		t.Fatalf("no notification dispatched")
	}
	for _, field := range strings.Fields(msg.Body) {
		trimmed := strings.TrimSuffix(field, ".")
		if len(trimmed) == 5 {
			if _, err := strconv.Atoi(trimmed); err == nil {
				return trimmed
			}
		}
	}
	t.Fatalf("no code found in %q", msg.Body)
	return ""
}

func registerInput(email string) identity.RegisterInput {
	return identity.RegisterInput{FirstName: "Jane", LastName: "Doe", Email: email, Password: "correct-horse"}
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	code := lastCode(t, rec)

	// Wrong code first: rejected but the real code survives.
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", "00000"); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	token, err := svc.VerifyAndActivate(ctx, "jane@example.com", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token on activation")
	}

	user, err := repo.FindByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !user.Verified || user.EmailVerifiedAt == nil {
		t.Fatalf("account not marked verified: %+v", user)
	}

	// Activated code cannot be replayed.
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", code); err == nil {
		t.Fatalf("expected replay to fail")
	}

	// Password login now works.
	if _, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestVerifyUnknownEmailLooksLikeBadCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.VerifyAndActivate(context.Background(), "ghost@example.com", "12345"); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch for unknown email, got %v", err)
	}
}

func TestLoginUnverifiedDispatchesCode(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	sent := len(rec.Messages())

	_, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "correct-horse"})
	if !errors.Is(err, ErrVerificationRequired) {
		t.Fatalf("expected ErrVerificationRequired, got %v", err)
	}
	if len(rec.Messages()) != sent+1 {
		t.Fatalf("expected a fresh code dispatch, got %d messages", len(rec.Messages()))
	}

	// The freshly dispatched code completes activation through the code branch
	// of login plus verify.
	code := lastCode(t, rec)
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", code); err != nil {
		t.Fatalf("verify with login-dispatched code: %v", err)
	}
}

func TestLoginWrongPasswordLeavesCodeIntact(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	code := lastCode(t, rec)
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	sent := len(rec.Messages())

	if _, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "wrong"}); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Messages()) != sent {
		t.Fatalf("failed password login dispatched a code")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"}); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResendSupersedesOldCode(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	oldCode := lastCode(t, rec)

	if err := svc.ResendOTP(ctx, "jane@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	newCode := lastCode(t, rec)

	if oldCode != newCode {
		if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", oldCode); !errors.Is(err, otp.ErrCodeMismatch) {
			t.Fatalf("expected superseded code to fail, got %v", err)
		}
	}
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", newCode); err != nil {
		t.Fatalf("verify with fresh code: %v", err)
	}
}

func TestOTPGatedLoginForVerifiedAccount(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", lastCode(t, rec)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Passwordless login round: request a code, then exchange it for a token.
	if err := svc.LoginSocial(ctx, "jane@example.com"); err != nil {
		t.Fatalf("login social: %v", err)
	}
	token, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Code: lastCode(t, rec)})
	if err != nil {
		t.Fatalf("code login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
}

func TestSocialRegistrationFlow(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.RegisterSocial(ctx, "Jane", "Doe", "jane@example.com"); err != nil {
		t.Fatalf("register social: %v", err)
	}
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", lastCode(t, rec)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	user, err := repo.FindByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.HasPassword() {
		t.Fatalf("social account should be passwordless")
	}
	// Password login is impossible; the code branch is the only way in.
	if _, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "anything"}); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", lastCode(t, rec)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	before, _ := repo.FindByEmail(ctx, "jane@example.com")

	if err := svc.ResetPassword(ctx, "jane@example.com"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	code := lastCode(t, rec)

	// Updating without a ticket must fail even with the right passwords.
	err := svc.UpdatePassword(ctx, UpdatePasswordInput{
		Email: "jane@example.com", Password: "new-password-1", ConfirmPassword: "new-password-1",
	})
	if !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected ErrResetTicketInvalid without ticket, got %v", err)
	}

	ticket, err := svc.VerifyResetOTP(ctx, "jane@example.com", code)
	if err != nil {
		t.Fatalf("verify reset otp: %v", err)
	}
	if ticket == "" {
		t.Fatalf("expected a reset ticket")
	}

	if err := svc.UpdatePassword(ctx, UpdatePasswordInput{
		Email: "jane@example.com", Password: "new-password-1", ConfirmPassword: "other", ResetTicket: ticket,
	}); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := svc.UpdatePassword(ctx, UpdatePasswordInput{
		Email: "jane@example.com", Password: "new-password-1", ConfirmPassword: "new-password-1", ResetTicket: ticket,
	}); err != nil {
		t.Fatalf("update password: %v", err)
	}

	// Ticket is single use.
	if err := svc.UpdatePassword(ctx, UpdatePasswordInput{
		Email: "jane@example.com", Password: "new-password-2", ConfirmPassword: "new-password-2", ResetTicket: ticket,
	}); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("expected ticket replay to fail, got %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "correct-horse"}); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "new-password-1"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	after, _ := repo.FindByEmail(ctx, "jane@example.com")
	if after.TokenVersion != before.TokenVersion+1 {
		t.Fatalf("expected token version bump, got %d -> %d", before.TokenVersion, after.TokenVersion)
	}
}

func TestResetCodeCannotActivateAccount(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ResetPassword(ctx, "jane@example.com"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	code := lastCode(t, rec)

	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", code); !errors.Is(err, otp.ErrCodeMismatch) {
		t.Fatalf("expected reset code to be rejected for activation, got %v", err)
	}
	user, _ := repo.FindByEmail(ctx, "jane@example.com")
	if user.Verified {
		t.Fatalf("reset code activated the account")
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, registerInput("jane@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.VerifyAndActivate(ctx, "jane@example.com", lastCode(t, rec))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	claims, err := svc.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := svc.Logout(ctx, claims.UserID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	user, _ := repo.FindByID(ctx, claims.UserID)
	if user.TokenVersion != claims.Version+1 {
		t.Fatalf("expected token version bump, got %d", user.TokenVersion)
	}
}

func TestRegisterDeliveryFailureSurfaces(t *testing.T) {
	svc, rec, repo := newTestService(t)
	ctx := context.Background()
	rec.FailNext()

	err := svc.Register(ctx, registerInput("jane@example.com"))
	if !errors.Is(err, otp.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	// The account exists and a resend can complete the flow.
	if _, err := repo.FindByEmail(ctx, "jane@example.com"); err != nil {
		t.Fatalf("account missing after delivery failure: %v", err)
	}
	if err := svc.ResendOTP(ctx, "jane@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if _, err := svc.VerifyAndActivate(ctx, "jane@example.com", lastCode(t, rec)); err != nil {
		t.Fatalf("verify after resend: %v", err)
	}
}
