package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

func withPrincipal(principal session.Principal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal != nil {
			session.Store(c, principal)
		}
		return c.Next()
	}
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(withPrincipal(session.Teacher{Profile: models.Profile{ID: uuid.New(), Role: models.RoleTeacher}}))
	app.Use(RequireTeacher())
	app.Get("/courses", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(withPrincipal(session.Student{Profile: models.Profile{ID: uuid.New(), Role: models.RoleStudent}}))
	app.Use(RequireTeacher())
	app.Get("/courses", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleWithoutSession(t *testing.T) {
	app := fiber.New()
	app.Use(RequireStudent())
	app.Get("/courses", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
