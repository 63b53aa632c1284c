package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// CourseService manages the course catalog.
type CourseService interface {
	Catalog(ctx context.Context) ([]dto.CourseResponse, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.CourseResponse, error)
	ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.CourseCardResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.CourseResponse, error)
	Create(ctx context.Context, teacherID uuid.UUID, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, teacherID, id uuid.UUID, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, teacherID, id uuid.UUID) error
}

type courseService struct {
	access      courseAccess
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	resolver    CourseResolver
	changes     ChangePublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, resolver CourseResolver, changes ChangePublisher, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		access:      courseAccess{courses: courses, enrollments: enrollments},
		courses:     courses,
		assignments: assignments,
		resolver:    resolver,
		changes:     changes,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Catalog(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, repository.CourseFilter{})
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.CourseResponse, error) {
	ids, err := s.resolver.ListEnrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courses.List(ctx, repository.CourseFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.CourseCardResponse, error) {
	courses, err := s.courses.List(ctx, repository.CourseFilter{TeacherID: &teacherID})
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, courses)
}

func (s *courseService) cards(ctx context.Context, courses []models.Course) ([]dto.CourseCardResponse, error) {
	ids := make([]uuid.UUID, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}

	enrollments, err := s.courses.CountEnrollments(ctx, ids)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.CountByCourse(ctx, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]dto.CourseCardResponse, 0, len(courses))
	for _, course := range courses {
		cards = append(cards, dto.CourseCardResponse{
			CourseResponse:  dto.NewCourseResponse(course),
			EnrollmentCount: enrollments[course.ID],
			AssignmentCount: assignments[course.ID],
		})
	}
	return cards, nil
}

func (s *courseService) Get(ctx context.Context, id uuid.UUID) (dto.CourseResponse, error) {
	course, err := s.access.course(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, teacherID uuid.UUID, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return dto.CourseResponse{}, validationError("title is required")
	}

	course := models.Course{
		Title:       title,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(payload.Description)),
		TeacherID:   teacherID,
		Duration:    trimmedOrNil(payload.Duration),
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Str("course_id", course.ID.String()).Msg("course created")
	publishChange(ctx, s.changes, []uuid.UUID{teacherID}, dto.ChangeTableCourses, dto.ChangeActionInsert, &course.ID, course.ID)

	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, teacherID, id uuid.UUID, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.access.owned(ctx, teacherID, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" {
			return dto.CourseResponse{}, validationError("title must not be blank")
		}
		course.Title = title
	}
	if payload.Description != nil {
		course.Description = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Description))
	}
	if payload.Duration != nil {
		course.Duration = trimmedOrNil(payload.Duration)
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Str("course_id", course.ID.String()).Msg("course updated")
	publishChange(ctx, s.changes, s.access.audience(ctx, course), dto.ChangeTableCourses, dto.ChangeActionUpdate, &course.ID, course.ID)

	return dto.NewCourseResponse(course), nil
}

// Delete removes the course with its enrollments, assignments, submissions, attendance and files.
func (s *courseService) Delete(ctx context.Context, teacherID, id uuid.UUID) error {
	course, err := s.access.owned(ctx, teacherID, id)
	if err != nil {
		return err
	}

	audience := s.access.audience(ctx, course)

	if err := s.courses.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Str("course_id", id.String()).Msg("course deleted")
	publishChange(ctx, s.changes, audience, dto.ChangeTableCourses, dto.ChangeActionDelete, &id, id)

	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
