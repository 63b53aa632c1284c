package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// AuthHandler ends sessions. Sign-in stays with the external auth platform.
type AuthHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.SessionService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth endpoints. It must sit outside the JWT guard so stale tokens can still sign out.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/signout", h.signOut)
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	token, _ := session.BearerToken(c.Get(fiber.HeaderAuthorization))

	if err := h.service.SignOut(requestContext(c), token); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "signed out", nil)
}
