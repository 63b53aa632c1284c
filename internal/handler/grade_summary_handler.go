package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// GradeSummaryHandler serves grade aggregates.
type GradeSummaryHandler struct {
	service service.GradeSummaryService
	logger  zerolog.Logger
}

// NewGradeSummaryHandler constructs the handler.
func NewGradeSummaryHandler(service service.GradeSummaryService, logger zerolog.Logger) *GradeSummaryHandler {
	return &GradeSummaryHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_summary_handler").Logger(),
	}
}

// Register attaches summary endpoints to the protected API group.
func (h *GradeSummaryHandler) Register(router fiber.Router) {
	router.Get("/grades/summary", middleware.RequireStudent(), h.student)
	router.Get("/courses/:id/grades/summary", middleware.RequireTeacher(), h.course)
}

func (h *GradeSummaryHandler) student(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	summary, err := h.service.ForStudent(requestContext(c), principal.UserID())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade summary retrieved", summary)
}

func (h *GradeSummaryHandler) course(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.ForCourse(requestContext(c), principal.UserID(), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade summary retrieved", summary)
}
