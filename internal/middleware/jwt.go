package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// Locals keys written by JWTProtected.
const (
	LocalUserID         = "user_id"
	LocalAccessToken    = "access_token"
	LocalTokenExpiresAt = "token_expires_at"
)

// JWTProtected validates the platform-issued bearer token and rejects signed-out tokens.
// A nil denylist skips the revocation check.
func JWTProtected(verifier session.Verifier, denylist session.Denylist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		tokenString, ok := session.BearerToken(authorization)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		if denylist != nil {
			revoked, err := denylist.IsRevoked(c.UserContext(), tokenString)
			if err != nil {
				return utils.SendError(c, fiber.StatusBadGateway, "session store unavailable")
			}
			if revoked {
				return utils.SendError(c, fiber.StatusUnauthorized, "session has been signed out")
			}
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalAccessToken, tokenString)
		c.Locals(LocalTokenExpiresAt, claims.ExpiresAt)

		return c.Next()
	}
}

// UserIDFromLocals returns the verified token subject.
func UserIDFromLocals(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.New("user id missing from context")
	}
	return id, nil
}

func tokenFromLocals(c *fiber.Ctx) (string, time.Time) {
	token, _ := c.Locals(LocalAccessToken).(string)
	expiresAt, _ := c.Locals(LocalTokenExpiresAt).(time.Time)
	return token, expiresAt
}
