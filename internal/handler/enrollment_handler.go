package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// EnrollmentHandler exposes joining, leaving and the course roster.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the /courses group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("/:id/enrollment", middleware.RequireStudent(), h.enroll)
	router.Delete("/:id/enrollment", middleware.RequireStudent(), h.unenroll)
	router.Get("/:id/roster", middleware.RequireTeacher(), h.roster)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Enroll(requestContext(c), principal.UserID(), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "enrolled", enrollment)
}

func (h *EnrollmentHandler) unenroll(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Unenroll(requestContext(c), principal.UserID(), courseID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "unenrolled", fiber.Map{"course_id": courseID})
}

func (h *EnrollmentHandler) roster(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	roster, err := h.service.Roster(requestContext(c), principal.UserID(), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "roster retrieved", roster)
}
