package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

func roleApp(userID interface{}, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals(LocalUserID, userID)
		}
		c.Locals(LocalUserRole, role)
		return c.Next()
	})
	app.Use(RequireRole("teacher"))
	app.Get("/teacher", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	resp, err := roleApp(uint(3), "Teacher").Test(httptest.NewRequest(http.MethodGet, "/teacher", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	resp, err := roleApp(uint(3), "student").Test(httptest.NewRequest(http.MethodGet, "/teacher", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	resp, err := roleApp(nil, "teacher").Test(httptest.NewRequest(http.MethodGet, "/teacher", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleMatchesStoredRoleNames(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(3))
		c.Locals(LocalUserRole, "teacher")
		return c.Next()
	})
	app.Use(RequireRole(models.UserRoleTeacher, " "))
	app.Get("/teacher", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teacher", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	resp, err := roleApp(uint(3), "").Test(httptest.NewRequest(http.MethodGet, "/teacher", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
