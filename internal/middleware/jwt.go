package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/brenbala/brenbala-api/internal/auth"
	"github.com/brenbala/brenbala-api/internal/identity"
)

// JWTAuth returns a middleware that validates bearer tokens and rejects
// tokens issued before the account's last revocation.
func JWTAuth(tokens *auth.TokenManager, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByID(c.UserContext(), claims.UserID)
		if err != nil || user.TokenVersion != claims.Version {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("token_version", claims.Version)
		return c.Next()
	}
}
