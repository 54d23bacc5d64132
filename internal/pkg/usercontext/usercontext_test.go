package usercontext

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserContextRoundTrip(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		Set(c, UserContext{UserID: 7, Username: "didier", IsLoggedIn: true, Plan: "Pro"})

		got := GetUserContext(c)
		assert.Equal(t, uint(7), got.UserID)
		assert.Equal(t, "didier", got.Username)
		assert.True(t, IsLoggedIn(c))
		assert.False(t, IsAdmin(c))
		assert.Equal(t, uint(7), GetUserID(c))
		assert.Equal(t, "didier", GetUsername(c))
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetUserContextDefaultsToAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got := GetUserContext(c)
		assert.False(t, got.IsLoggedIn)
		assert.Zero(t, got.UserID)
		assert.Empty(t, got.Plan)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
