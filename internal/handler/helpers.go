package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

var errInvalidIdentifier = errors.New("invalid identifier")

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, errInvalidIdentifier
	}
	return parsed, nil
}

func currentPrincipal(c *fiber.Ctx) (session.Principal, error) {
	principal, ok := session.Current(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// errorStatus maps service error categories onto HTTP status codes.
func errorStatus(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case service.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorMessage(err error, status int) string {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Message
	case errors.Is(err, service.ErrAssistantUnavailable):
		return service.ErrAssistantUnavailable.Error()
	case status == fiber.StatusBadGateway:
		return "upstream service failed"
	case status == fiber.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}

// respondError writes the envelope for err and logs server-side failures.
func respondError(c *fiber.Ctx, base zerolog.Logger, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		requestLogger(base, c).Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return utils.SendError(c, status, errorMessage(err, status))
}
