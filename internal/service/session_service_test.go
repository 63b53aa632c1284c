package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

const testSigningSecret = "test-signing-secret"

func signTestToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(testSigningSecret))
	require.NoError(t, err)
	return signed
}

func TestSignOutRevokesValidToken(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	denylist := session.NewRedisDenylist(client)
	svc := NewSessionService(session.NewVerifier(testSigningSecret), denylist, nopLogger())
	ctx := context.Background()

	token := signTestToken(t, uuid.NewString(), time.Now().Add(time.Hour))
	require.NoError(t, svc.SignOut(ctx, token))

	revoked, err := denylist.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestSignOutIsPermissiveForUnusableTokens(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	svc := NewSessionService(session.NewVerifier(testSigningSecret), session.NewRedisDenylist(client), nopLogger())
	ctx := context.Background()

	require.NoError(t, svc.SignOut(ctx, ""))
	require.NoError(t, svc.SignOut(ctx, "not-a-token"))
	require.NoError(t, svc.SignOut(ctx, signTestToken(t, uuid.NewString(), time.Now().Add(-time.Minute))))
	require.Empty(t, mini.Keys())
}

func TestSignOutReportsStoreFailure(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr(), MaxRetries: -1})
	defer client.Close()
	mini.Close()

	svc := NewSessionService(session.NewVerifier(testSigningSecret), session.NewRedisDenylist(client), nopLogger())
	err = svc.SignOut(context.Background(), signTestToken(t, uuid.NewString(), time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrUpstream)
}
