package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// DashboardHandler serves the role-specific landing payload.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the protected API group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.get)
}

func (h *DashboardHandler) get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ctx := requestContext(c)
	switch p := principal.(type) {
	case session.Teacher:
		dashboard, err := h.service.Teacher(ctx, p.UserID())
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "dashboard retrieved", dashboard)
	default:
		dashboard, err := h.service.Student(ctx, p.UserID())
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "dashboard retrieved", dashboard)
	}
}
