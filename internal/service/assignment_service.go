package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

// AssignmentService manages course assignments and the student-facing status view.
type AssignmentService interface {
	Create(ctx context.Context, teacherID, courseID uuid.UUID, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, teacherID, assignmentID uuid.UUID) error
	ListForCourse(ctx context.Context, principal session.Principal, courseID uuid.UUID) ([]dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.AssignmentResponse, error)
	ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	access      courseAccess
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	resolver    CourseResolver
	changes     ChangePublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, resolver CourseResolver, changes ChangePublisher, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		access:      courseAccess{courses: courses, enrollments: enrollments},
		assignments: assignments,
		submissions: submissions,
		resolver:    resolver,
		changes:     changes,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID, courseID uuid.UUID, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.access.owned(ctx, teacherID, courseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return dto.AssignmentResponse{}, validationError("title is required")
	}

	dueDate, err := payload.ParsedDueDate()
	if err != nil {
		return dto.AssignmentResponse{}, validationError("invalid due date")
	}

	assignment := models.Assignment{
		CourseID:    courseID,
		Title:       title,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(payload.Description)),
		DueDate:     dueDate,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	assignment.Course = course

	s.logger.Info().Str("assignment_id", assignment.ID.String()).Str("course_id", courseID.String()).Msg("assignment created")
	publishChange(ctx, s.changes, s.access.audience(ctx, course), dto.ChangeTableAssignments, dto.ChangeActionInsert, &course.ID, assignment.ID)

	response := dto.NewAssignmentResponse(assignment)
	zero := int64(0)
	response.SubmissionCount = &zero
	return response, nil
}

func (s *assignmentService) Delete(ctx context.Context, teacherID, assignmentID uuid.UUID) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if !assignment.Course.OwnedBy(teacherID) {
		return ErrNotCourseOwner
	}

	audience := s.access.audience(ctx, assignment.Course)

	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		if repository.IsNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Str("assignment_id", assignmentID.String()).Msg("assignment deleted")
	publishChange(ctx, s.changes, audience, dto.ChangeTableAssignments, dto.ChangeActionDelete, &assignment.CourseID, assignmentID)

	return nil
}

func (s *assignmentService) ListForCourse(ctx context.Context, principal session.Principal, courseID uuid.UUID) ([]dto.AssignmentResponse, error) {
	if _, err := s.access.member(ctx, principal, courseID); err != nil {
		return nil, err
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{CourseIDs: []uuid.UUID{courseID}})
	if err != nil {
		return nil, err
	}

	switch p := principal.(type) {
	case session.Student:
		return s.withStatuses(ctx, p.UserID(), assignments)
	default:
		return s.withSubmissionCounts(ctx, assignments)
	}
}

func (s *assignmentService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.AssignmentResponse, error) {
	courseIDs, err := s.resolver.ListEnrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, err
	}

	return s.withStatuses(ctx, studentID, assignments)
}

func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]dto.AssignmentResponse, error) {
	courseIDs, err := s.resolver.ListOwnedCourseIDs(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, err
	}

	return s.withSubmissionCounts(ctx, assignments)
}

func (s *assignmentService) withStatuses(ctx context.Context, studentID uuid.UUID, assignments []models.Assignment) ([]dto.AssignmentResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	return studentAssignmentView(assignments, submissions, s.now()), nil
}

func (s *assignmentService) withSubmissionCounts(ctx context.Context, assignments []models.Assignment) ([]dto.AssignmentResponse, error) {
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}

	counts, err := s.assignments.CountSubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response := dto.NewAssignmentResponse(assignment)
		count := counts[assignment.ID]
		response.SubmissionCount = &count
		responses = append(responses, response)
	}
	return responses, nil
}

// studentAssignmentView pairs each assignment with the student's submission and derives its status.
func studentAssignmentView(assignments []models.Assignment, submissions []models.Submission, now time.Time) []dto.AssignmentResponse {
	byAssignment := make(map[uuid.UUID]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response := dto.NewAssignmentResponse(assignment)

		var submission *models.Submission
		if found, ok := byAssignment[assignment.ID]; ok {
			submission = &found
			id := found.ID
			response.SubmissionID = &id
			response.Grade = found.Grade
		}
		response.Status = models.DeriveAssignmentStatus(assignment, submission, now)

		responses = append(responses, response)
	}
	return responses
}
