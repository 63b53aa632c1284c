package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
)

// CourseFileHandler handles multipart uploads of course material.
type CourseFileHandler struct {
	service service.CourseFileService
	logger  zerolog.Logger
}

// NewCourseFileHandler constructs the handler.
func NewCourseFileHandler(service service.CourseFileService, logger zerolog.Logger) *CourseFileHandler {
	return &CourseFileHandler{
		service: service,
		logger:  logger.With().Str("component", "course_file_handler").Logger(),
	}
}

// Register attaches course file endpoints to the protected API group.
func (h *CourseFileHandler) Register(router fiber.Router) {
	router.Post("/courses/:id/files", h.upload)
	router.Get("/courses/:id/files", h.list)
	router.Delete("/files/:id", h.delete)
}

func (h *CourseFileHandler) upload(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	payload := dto.CourseFileUploadRequest{}
	if description := c.FormValue("description"); description != "" {
		payload.Description = &description
	}

	uploaded, err := h.service.Upload(requestContext(c), principal, courseID, payload, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Str("file_id", uploaded.ID.String()).
		Int64("size", uploaded.FileSize).
		Msg("course file uploaded")

	return utils.SendCreated(c, "file uploaded", uploaded)
}

func (h *CourseFileHandler) list(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	courseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	files, err := h.service.List(requestContext(c), principal, courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "files retrieved", files)
}

func (h *CourseFileHandler) delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	fileID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), principal, fileID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "file deleted", fiber.Map{"id": fileID})
}
