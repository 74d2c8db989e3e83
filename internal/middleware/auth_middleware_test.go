package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/raflytch/mockprep-server/internal/analytics"
	"github.com/raflytch/mockprep-server/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_StoresUserID(t *testing.T) {
	mgr := jwt.NewJWTManager("test-secret", 1)
	token, err := mgr.Generate("user-1", "user@example.com", "user")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(mgr).Authenticate(), func(c *fiber.Ctx) error {
		return c.SendString(GetUserIDFromContext(c))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, header := range []string{"", "Token " + token, "Bearer"} {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestAuthenticate_TokenOutlivesRequest(t *testing.T) {
	mgr := jwt.NewJWTManager("test-secret", 1)
	tokenA, err := mgr.Generate("user-aaaa", "user@example.com", "user")
	require.NoError(t, err)
	tokenB, err := mgr.Generate("user-bbbb", "user@example.com", "user")
	require.NoError(t, err)
	require.Len(t, tokenB, len(tokenA))

	var contexts []context.Context
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(mgr).Authenticate(), func(c *fiber.Ctx) error {
		contexts = append(contexts, c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, token := range []string{tokenA, tokenB} {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	require.Len(t, contexts, 2)

	for i, want := range []string{tokenA, tokenB} {
		ts := analytics.TokenSourceFrom(contexts[i])
		require.NotNil(t, ts)
		got, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, want, got.AccessToken)
	}
}
