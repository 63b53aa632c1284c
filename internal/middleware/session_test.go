package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

const testSecret = "middleware-secret"

type stubProfiles map[uuid.UUID]models.Profile

func (s stubProfiles) GetByID(_ context.Context, id uuid.UUID) (models.Profile, error) {
	profile, ok := s[id]
	if !ok {
		return models.Profile{}, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func signToken(t *testing.T, subject uuid.UUID, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newSessionApp(t *testing.T, profiles stubProfiles) (*fiber.App, *session.RedisDenylist) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	denylist := session.NewRedisDenylist(client)

	app := fiber.New()
	app.Use(JWTProtected(session.NewVerifier(testSecret), denylist))
	app.Use(Session(profiles, denylist, zerolog.Nop()))
	app.Get("/me", func(c *fiber.Ctx) error {
		principal, ok := session.Current(c)
		require.True(t, ok)
		return c.SendString(principal.Role())
	})
	return app, denylist
}

func request(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSessionResolvesPrincipal(t *testing.T) {
	teacher := models.Profile{ID: uuid.New(), FullName: "T", Role: models.RoleTeacher}
	app, _ := newSessionApp(t, stubProfiles{teacher.ID: teacher})

	resp := request(t, app, signToken(t, teacher.ID, time.Hour))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsMissingAndInvalidTokens(t *testing.T) {
	app, _ := newSessionApp(t, stubProfiles{})

	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "").StatusCode)
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "garbage").StatusCode)
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, signToken(t, uuid.New(), -time.Minute)).StatusCode)
}

func TestSessionRevokesUnconfirmedAccount(t *testing.T) {
	app, denylist := newSessionApp(t, stubProfiles{})
	token := signToken(t, uuid.New(), time.Hour)

	resp := request(t, app, token)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	revoked, err := denylist.IsRevoked(context.Background(), token)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestJWTProtectedRejectsRevokedToken(t *testing.T) {
	student := models.Profile{ID: uuid.New(), FullName: "S", Role: models.RoleStudent}
	app, denylist := newSessionApp(t, stubProfiles{student.ID: student})
	token := signToken(t, student.ID, time.Hour)

	require.Equal(t, fiber.StatusOK, request(t, app, token).StatusCode)
	require.NoError(t, denylist.Revoke(context.Background(), token, time.Now().Add(time.Hour)))
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, token).StatusCode)
}
