package auth

import "errors"

var (
	// ErrVerificationRequired signals that the account must confirm a
	// one-time code before a token can be issued.
	ErrVerificationRequired = errors.New("email verification required")
	// ErrResetTicketInvalid signals a missing, expired or already-consumed
	// password-reset ticket.
	ErrResetTicketInvalid = errors.New("password reset ticket invalid")
	// ErrPasswordMismatch signals that password and confirmation differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
)
