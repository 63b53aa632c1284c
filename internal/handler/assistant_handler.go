package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
)

// AssistantHandler proxies grounded questions to the generative backend. Its payloads follow the
// public assistant contract ({response} / {error}) rather than the API envelope.
type AssistantHandler struct {
	service service.AssistantService
	logger  zerolog.Logger
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(service service.AssistantService, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register attaches the assistant endpoint. Extra handlers such as a rate limiter run first.
func (h *AssistantHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), h.ask)
	router.Post("/assistant", handlers...)
}

func (h *AssistantHandler) ask(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return h.fail(c, err)
	}

	var payload dto.AssistantRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.AssistantErrorResponse{Error: "invalid request body"})
	}

	start := time.Now()
	response, err := h.service.Ask(requestContext(c), principal, payload)
	if err != nil {
		return h.fail(c, err)
	}

	requestLogger(h.logger, c).Info().
		Str("user_id", principal.UserID().String()).
		Dur("duration", time.Since(start)).
		Msg("assistant answered")

	return c.JSON(response)
}

func (h *AssistantHandler) fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if errors.Is(err, service.ErrAssistantUnavailable) {
		status = fiber.StatusServiceUnavailable
	}
	if status >= fiber.StatusInternalServerError {
		requestLogger(h.logger, c).Error().Err(err).Int("status", status).Msg("assistant request failed")
	}
	return c.Status(status).JSON(dto.AssistantErrorResponse{Error: errorMessage(err, status)})
}
