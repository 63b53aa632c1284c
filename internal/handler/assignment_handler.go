package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the protected API group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/assignments", h.mine)
	router.Delete("/assignments/:id", middleware.RequireTeacher(), h.delete)
	router.Get("/courses/:id/assignments", h.listForCourse)
	router.Post("/courses/:id/assignments", middleware.RequireTeacher(), h.create)
}

func (h *AssignmentHandler) mine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ctx := requestContext(c)
	var assignments []dto.AssignmentResponse
	switch p := principal.(type) {
	case session.Teacher:
		assignments, err = h.service.ListForTeacher(ctx, p.UserID())
	default:
		assignments, err = h.service.ListForStudent(ctx, p.UserID())
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) listForCourse(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListForCourse(requestContext(c), principal, courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Create(requestContext(c), principal.UserID(), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendCreated(c, "assignment created", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), principal.UserID(), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}
