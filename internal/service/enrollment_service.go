package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// CourseResolver yields the course ids a user can see. Every listing is scoped through it.
type CourseResolver interface {
	ListEnrolledCourseIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	ListOwnedCourseIDs(ctx context.Context, teacherID uuid.UUID) ([]uuid.UUID, error)
}

// EnrollmentService manages course membership and resolves course scopes.
type EnrollmentService interface {
	CourseResolver
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) (dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, studentID, courseID uuid.UUID) error
	Roster(ctx context.Context, teacherID, courseID uuid.UUID) ([]dto.RosterEntry, error)
}

type enrollmentService struct {
	access      courseAccess
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	changes     ChangePublisher
	logger      zerolog.Logger
}

// NewEnrollmentService constructs the enrollment resolver.
func NewEnrollmentService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, changes ChangePublisher, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		access:      courseAccess{courses: courses, enrollments: enrollments},
		courses:     courses,
		enrollments: enrollments,
		changes:     changes,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (dto.EnrollmentResponse, error) {
	course, err := s.access.course(ctx, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	exists, err := s.enrollments.Exists(ctx, courseID, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if exists {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{CourseID: courseID, StudentID: studentID}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Str("course_id", courseID.String()).
		Str("student_id", studentID.String()).
		Msg("student enrolled")

	publishChange(ctx, s.changes, []uuid.UUID{course.TeacherID, studentID}, dto.ChangeTableEnrollments, dto.ChangeActionInsert, &course.ID, enrollment.ID)

	return dto.NewEnrollmentResponse(enrollment), nil
}

// Unenroll is idempotent: removing a non-member is not an error.
func (s *enrollmentService) Unenroll(ctx context.Context, studentID, courseID uuid.UUID) error {
	enrollment, err := s.enrollments.Get(ctx, courseID, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}

	removed, err := s.enrollments.Delete(ctx, courseID, studentID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}

	s.logger.Info().
		Str("course_id", courseID.String()).
		Str("student_id", studentID.String()).
		Msg("student unenrolled")

	audience := []uuid.UUID{studentID}
	if course, err := s.access.course(ctx, courseID); err == nil {
		audience = append(audience, course.TeacherID)
	}
	publishChange(ctx, s.changes, audience, dto.ChangeTableEnrollments, dto.ChangeActionDelete, &courseID, enrollment.ID)

	return nil
}

func (s *enrollmentService) Roster(ctx context.Context, teacherID, courseID uuid.UUID) ([]dto.RosterEntry, error) {
	if _, err := s.access.owned(ctx, teacherID, courseID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewRoster(enrollments), nil
}

func (s *enrollmentService) ListEnrolledCourseIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	return s.enrollments.ListCourseIDsByStudent(ctx, studentID)
}

func (s *enrollmentService) ListOwnedCourseIDs(ctx context.Context, teacherID uuid.UUID) ([]uuid.UUID, error) {
	return s.courses.ListIDsByTeacher(ctx, teacherID)
}
