package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/glpi-bridge/pkg/util"
)

const clientKey = "auth_client"

// AuthMiddleware validates bearer tokens on the local API. When no token
// manager is configured the middleware is a pass-through, leaving the API
// open for deployments that front it with their own gateway.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware. A nil token manager disables
// authentication.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.tokens == nil {
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(clientKey, claims.ClientID)
	return c.Next()
}

// ClientFromContext retrieves the authenticated client id.
func ClientFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(clientKey)
	if val == nil {
		return "", false
	}
	clientID, ok := val.(string)
	return clientID, ok
}
