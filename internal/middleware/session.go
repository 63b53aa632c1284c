package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// ProfileLookup loads the profile of the token subject.
type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.Profile, error)
}

// Session resolves the token subject into a Student or Teacher principal. It must run after JWTProtected.
// A valid token without a profile row belongs to an account that never finished sign-up; its token is
// revoked and the request rejected.
func Session(profiles ProfileLookup, denylist session.Denylist, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "session_middleware").Logger()

	return func(c *fiber.Ctx) error {
		userID, err := UserIDFromLocals(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		profile, err := profiles.GetByID(c.UserContext(), userID)
		if err != nil {
			if !repository.IsNotFound(err) {
				log.Error().Err(err).Str("user_id", userID.String()).Str("correlation_id", GetCorrelationID(c)).Msg("failed to load profile")
				return utils.SendError(c, fiber.StatusInternalServerError, "failed to load profile")
			}

			if denylist != nil {
				token, expiresAt := tokenFromLocals(c)
				if revokeErr := denylist.Revoke(c.UserContext(), token, expiresAt); revokeErr != nil {
					log.Warn().Err(revokeErr).Str("user_id", userID.String()).Msg("failed to revoke unconfirmed session")
				}
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "account not confirmed")
		}

		principal, err := session.FromProfile(profile)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("profile has unsupported role")
			return utils.SendError(c, fiber.StatusForbidden, "unsupported role")
		}

		session.Store(c, principal)
		return c.Next()
	}
}
