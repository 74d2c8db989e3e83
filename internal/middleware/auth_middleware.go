package middleware

import (
	"strings"

	"github.com/raflytch/mockprep-server/internal/analytics"
	"github.com/raflytch/mockprep-server/pkg/jwt"
	"github.com/raflytch/mockprep-server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const UserIDContextKey = "user_id"

type AuthMiddleware struct {
	jwtManager *jwt.JWTManager
}

func NewAuthMiddleware(jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate validates the bearer token and stores the user id. The raw
// token rides on the user context so analytics reports are sent on the
// user's behalf. It is copied out of the request buffer because background
// reports outlive the request.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "invalid authorization header format")
		}

		token := utils.CopyString(parts[1])
		claims, err := m.jwtManager.Validate(token)
		if err != nil {
			return response.Unauthorized(c, "invalid or expired token")
		}

		c.Locals(UserIDContextKey, claims.UserID())
		c.SetUserContext(analytics.WithToken(c.UserContext(), token))
		return c.Next()
	}
}

func GetUserIDFromContext(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDContextKey).(string)
	return userID
}
