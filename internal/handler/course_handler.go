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

// CourseHandler wires course catalog and management routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the /courses group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.catalog)
	router.Get("/mine", h.mine)
	router.Post("", middleware.RequireTeacher(), h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", middleware.RequireTeacher(), h.update)
	router.Delete("/:id", middleware.RequireTeacher(), h.delete)
}

func (h *CourseHandler) catalog(c *fiber.Ctx) error {
	courses, err := h.service.Catalog(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) mine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ctx := requestContext(c)
	switch p := principal.(type) {
	case session.Teacher:
		cards, err := h.service.ListForTeacher(ctx, p.UserID())
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "courses retrieved", cards)
	default:
		courses, err := h.service.ListForStudent(ctx, p.UserID())
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "courses retrieved", courses)
	}
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(requestContext(c), principal.UserID(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "course created", course)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(requestContext(c), principal.UserID(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
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
	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}
