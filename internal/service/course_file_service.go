package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

// FileUploader abstracts object storage for uploaded course files.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var blockedFileTypes = []string{
	"application/x-msdownload",
	"application/x-executable",
	"application/x-elf",
	"application/x-mach-binary",
	"application/x-sh",
}

// CourseFileService shares files inside a course.
type CourseFileService interface {
	Upload(ctx context.Context, principal session.Principal, courseID uuid.UUID, payload dto.CourseFileUploadRequest, file *multipart.FileHeader) (dto.CourseFileResponse, error)
	List(ctx context.Context, principal session.Principal, courseID uuid.UUID) ([]dto.CourseFileResponse, error)
	Delete(ctx context.Context, principal session.Principal, fileID uuid.UUID) error
}

type courseFileService struct {
	access    courseAccess
	files     repository.CourseFileRepository
	uploader  FileUploader
	changes   ChangePublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	maxSize   int64
	logger    zerolog.Logger
}

// NewCourseFileService constructs the course file service. maxSize is in bytes.
func NewCourseFileService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, files repository.CourseFileRepository, uploader FileUploader, changes ChangePublisher, validate *validator.Validate, maxSize int64, logger zerolog.Logger) CourseFileService {
	return &courseFileService{
		access:    courseAccess{courses: courses, enrollments: enrollments},
		files:     files,
		uploader:  uploader,
		changes:   changes,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		maxSize:   maxSize,
		logger:    logger.With().Str("component", "course_file_service").Logger(),
	}
}

func (s *courseFileService) Upload(ctx context.Context, principal session.Principal, courseID uuid.UUID, payload dto.CourseFileUploadRequest, file *multipart.FileHeader) (dto.CourseFileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseFileResponse{}, err
	}
	if file == nil {
		return dto.CourseFileResponse{}, validationError("file is required")
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return dto.CourseFileResponse{}, validationError("file exceeds %d bytes", s.maxSize)
	}

	course, err := s.access.member(ctx, principal, courseID)
	if err != nil {
		return dto.CourseFileResponse{}, err
	}

	fileType, err := detectFileType(file)
	if err != nil {
		return dto.CourseFileResponse{}, err
	}

	if s.uploader == nil {
		return dto.CourseFileResponse{}, fmt.Errorf("%w: file storage is not configured", ErrUpstream)
	}

	reader, err := file.Open()
	if err != nil {
		return dto.CourseFileResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.CourseFileResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var description *string
	if payload.Description != nil {
		cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
		if cleaned != "" {
			description = &cleaned
		}
	}

	model := models.CourseFile{
		CourseID:     courseID,
		UploaderID:   principal.UserID(),
		UploaderRole: principal.Role(),
		FileName:     file.Filename,
		FileURL:      url,
		FileSize:     file.Size,
		FileType:     fileType,
		Description:  description,
	}

	if err := s.files.Create(ctx, &model); err != nil {
		return dto.CourseFileResponse{}, err
	}
	model.Uploader = principal.Account()

	s.logger.Info().
		Str("file_id", model.ID.String()).
		Str("course_id", courseID.String()).
		Str("file_type", fileType).
		Msg("course file uploaded")

	publishChange(ctx, s.changes, s.access.audience(ctx, course), dto.ChangeTableCourseFiles, dto.ChangeActionInsert, &course.ID, model.ID)

	return dto.NewCourseFileResponse(model), nil
}

func (s *courseFileService) List(ctx context.Context, principal session.Principal, courseID uuid.UUID) ([]dto.CourseFileResponse, error) {
	if _, err := s.access.member(ctx, principal, courseID); err != nil {
		return nil, err
	}

	files, err := s.files.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseFileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, dto.NewCourseFileResponse(file))
	}
	return responses, nil
}

// Delete lets the uploader or the course owner remove a file record.
func (s *courseFileService) Delete(ctx context.Context, principal session.Principal, fileID uuid.UUID) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrFileNotFound
		}
		return err
	}

	course, err := s.access.course(ctx, file.CourseID)
	if err != nil {
		return err
	}

	if file.UploaderID != principal.UserID() && !course.OwnedBy(principal.UserID()) {
		return fmt.Errorf("%w: only the uploader or the course teacher can delete this file", ErrForbidden)
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		if repository.IsNotFound(err) {
			return ErrFileNotFound
		}
		return err
	}

	publishChange(ctx, s.changes, s.access.audience(ctx, course), dto.ChangeTableCourseFiles, dto.ChangeActionDelete, &course.ID, fileID)
	return nil
}

func detectFileType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, blocked := range blockedFileTypes {
		if mime.Is(blocked) {
			return "", validationError("unsupported file type: %s", mime.String())
		}
	}

	return mime.String(), nil
}
