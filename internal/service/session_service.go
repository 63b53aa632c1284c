package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

// SessionService ends sessions issued by the external auth platform.
type SessionService interface {
	SignOut(ctx context.Context, rawToken string) error
}

type sessionService struct {
	verifier session.Verifier
	denylist session.Denylist
	logger   zerolog.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(verifier session.Verifier, denylist session.Denylist, logger zerolog.Logger) SessionService {
	return &sessionService{
		verifier: verifier,
		denylist: denylist,
		logger:   logger.With().Str("component", "session_service").Logger(),
	}
}

// SignOut revokes the token. A missing, malformed or expired token is already unusable, so it succeeds without work.
func (s *sessionService) SignOut(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}

	claims, err := s.verifier.Verify(rawToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("sign out with unusable token")
		return nil
	}

	if s.denylist == nil {
		return nil
	}

	if err := s.denylist.Revoke(ctx, rawToken, claims.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Str("user_id", claims.Subject.String()).Msg("failed to revoke token")
		return errors.Join(ErrUpstream, err)
	}

	s.logger.Info().Str("user_id", claims.Subject.String()).Msg("session signed out")
	return nil
}
