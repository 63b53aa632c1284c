package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// AttendanceHandler exposes per-day attendance marking and history.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance endpoints to the protected API group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Put("/courses/:id/attendance/:date", middleware.RequireTeacher(), h.mark)
	router.Get("/courses/:id/attendance/:date", middleware.RequireTeacher(), h.sheet)
	router.Get("/courses/:id/attendance", middleware.RequireStudent(), h.history)
}

func (h *AttendanceHandler) mark(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	date, err := service.ParseAttendanceDate(c.Params("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	sheet, err := h.service.Mark(requestContext(c), principal.UserID(), courseID, date, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attendance saved", sheet)
}

func (h *AttendanceHandler) sheet(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	date, err := service.ParseAttendanceDate(c.Params("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	sheet, err := h.service.Sheet(requestContext(c), principal.UserID(), courseID, date)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attendance retrieved", sheet)
}

func (h *AttendanceHandler) history(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.History(requestContext(c), principal.UserID(), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attendance history retrieved", records)
}
