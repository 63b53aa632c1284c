package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

func signToken(t *testing.T, secret string, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestFromProfileSelectsVariant(t *testing.T) {
	student, err := FromProfile(models.Profile{ID: uuid.New(), Role: models.RoleStudent})
	require.NoError(t, err)
	require.IsType(t, Student{}, student)

	teacher, err := FromProfile(models.Profile{ID: uuid.New(), Role: models.RoleTeacher})
	require.NoError(t, err)
	require.IsType(t, Teacher{}, teacher)
	require.Equal(t, models.RoleTeacher, teacher.Role())

	_, err = FromProfile(models.Profile{Role: "admin"})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	subject := uuid.New()
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signToken(t, "secret", subject.String(), expires)

	claims, err := NewVerifier("secret").Verify(raw)
	require.NoError(t, err)
	require.Equal(t, subject, claims.Subject)
	require.True(t, claims.ExpiresAt.Equal(expires))
}

func TestVerifierRejectsBadTokens(t *testing.T) {
	verifier := NewVerifier("secret")

	_, err := verifier.Verify(signToken(t, "other", uuid.NewString(), time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify(signToken(t, "secret", uuid.NewString(), time.Now().Add(-time.Minute)))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify(signToken(t, "secret", "42", time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", token)

	_, ok = BearerToken("Basic abc")
	require.False(t, ok)

	_, ok = BearerToken("bearer   ")
	require.False(t, ok)
}

func TestRedisDenylistRevokesUntilExpiry(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	denylist := NewRedisDenylist(client)
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, denylist.Revoke(ctx, "token-a", time.Now().Add(time.Minute)))
	revoked, err = denylist.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, revoked)

	server.FastForward(2 * time.Minute)
	revoked, err = denylist.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, denylist.Revoke(ctx, "token-b", time.Now().Add(-time.Minute)))
	revoked, err = denylist.IsRevoked(ctx, "token-b")
	require.NoError(t, err)
	require.False(t, revoked, "already expired tokens need no entry")
}
