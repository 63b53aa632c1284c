package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// SubmissionService drives a submission from NoSubmission through Submitted to Graded.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, assignmentID uuid.UUID, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, teacherID, submissionID uuid.UUID, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	ListForAssignment(ctx context.Context, teacherID, assignmentID uuid.UUID) ([]dto.SubmissionResponse, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.SubmissionResponse, error)
	ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	access      courseAccess
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	resolver    CourseResolver
	summaries   GradeSummaryInvalidator
	changes     ChangePublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Courses     repository.CourseRepository
	Enrollments repository.EnrollmentRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
	Resolver    CourseResolver
	Summaries   GradeSummaryInvalidator
	Changes     ChangePublisher
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		access:      courseAccess{courses: deps.Courses, enrollments: deps.Enrollments},
		submissions: deps.Submissions,
		assignments: deps.Assignments,
		resolver:    deps.Resolver,
		summaries:   deps.Summaries,
		changes:     deps.Changes,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/nxtgen-lms-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit creates the single submission of a student for an assignment. Late submissions are accepted.
func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uuid.UUID, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.SubmissionResponse{}, validationError("content is required")
	}

	assignment, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.access.enrolled(ctx, studentID, assignment.CourseID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID); err == nil {
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !repository.IsNotFound(err) {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      content,
		SubmittedAt:  s.now().UTC(),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// a concurrent submit can pass the existence check; the unique index decides
		if repository.IsUniqueViolation(err) {
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", created.ID.String()).
		Str("assignment_id", assignmentID.String()).
		Msg("submission created")

	if s.summaries != nil {
		s.summaries.Invalidate(ctx, studentID)
	}
	publishChange(ctx, s.changes, []uuid.UUID{studentID, assignment.Course.TeacherID}, dto.ChangeTableSubmissions, dto.ChangeActionInsert, &assignment.CourseID, created.ID)

	return dto.NewSubmissionResponse(created), nil
}

// Grade sets or overwrites grade and feedback. Out-of-range values leave the stored submission untouched.
func (s *submissionService) Grade(ctx context.Context, teacherID, submissionID uuid.UUID, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.update", trace.WithAttributes(
		attribute.String("grading.submission_id", submissionID.String()),
		attribute.String("grading.teacher_id", teacherID.String()),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	grade := *payload.Grade
	if !ValidGrade(grade) {
		span.RecordError(ErrInvalidGrade)
		span.SetStatus(codes.Error, "invalid_grade")
		return dto.SubmissionResponse{}, ErrInvalidGrade
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if !submission.Assignment.Course.OwnedBy(teacherID) {
		span.SetStatus(codes.Error, "not_course_owner")
		return dto.SubmissionResponse{}, ErrNotCourseOwner
	}

	var feedback *string
	if payload.Feedback != nil {
		cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Feedback))
		if cleaned != "" {
			feedback = &cleaned
		}
	}

	gradedAt := s.now().UTC()
	if err := s.submissions.UpdateGrade(ctx, submissionID, grade, feedback, gradedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Bool("grading.regrade", submission.IsGraded()))

	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradedAt = &gradedAt

	s.logger.Info().
		Str("submission_id", submissionID.String()).
		Float64("grade", grade).
		Msg("submission graded")

	if s.summaries != nil {
		s.summaries.Invalidate(ctx, submission.StudentID)
	}
	publishChange(ctx, s.changes, []uuid.UUID{submission.StudentID, teacherID}, dto.ChangeTableSubmissions, dto.ChangeActionUpdate, &submission.Assignment.CourseID, submission.ID)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, teacherID, assignmentID uuid.UUID) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.Course.OwnedBy(teacherID) {
		return nil, ErrNotCourseOwner
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.SubmissionResponse, error) {
	courseIDs, err := s.resolver.ListOwnedCourseIDs(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) assignment(ctx context.Context, id uuid.UUID) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

// ValidGrade reports whether value lies in the closed range [0, 100].
func ValidGrade(value float64) bool {
	return !math.IsNaN(value) && value >= 0 && value <= 100
}
