package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brenbala/brenbala-api/internal/identity"
)

// ErrTokenInvalid signals a token that failed signature or claim validation.
var ErrTokenInvalid = errors.New("invalid token")

// TokenManager issues and validates HS256 access tokens. The embedded token
// version ties a token to the account's revocation counter: bumping the
// counter invalidates everything issued before.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a TokenManager for the given signing secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TokenClaims are the claims the service reads back from a presented token.
type TokenClaims struct {
	UserID  string
	Email   string
	Version int
}

// Issue signs a bearer token for the user.
func (m *TokenManager) Issue(user identity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"ver":   user.TokenVersion,
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates the signature and expiry and extracts the claims.
func (m *TokenManager) Parse(token string) (TokenClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return TokenClaims{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return TokenClaims{}, ErrTokenInvalid
	}
	email, _ := claims["email"].(string)
	ver, _ := claims["ver"].(float64)

	return TokenClaims{UserID: sub, Email: email, Version: int(ver)}, nil
}
