package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/pkg/ai"
)

// FallbackAssistantAnswer is returned when the generator produced no text.
const FallbackAssistantAnswer = "Sorry, I could not generate a response."

// AssistantService answers questions grounded in the caller's own LMS data.
type AssistantService interface {
	Ask(ctx context.Context, principal session.Principal, payload dto.AssistantRequest) (dto.AssistantResponse, error)
}

// AssistantDependencies groups the read paths used to build the assistant context.
type AssistantDependencies struct {
	Courses     repository.CourseRepository
	Enrollments repository.EnrollmentRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
	Attendance  repository.AttendanceRepository
	Generator   ai.Generator
}

type assistantService struct {
	deps   AssistantDependencies
	logger zerolog.Logger
}

// NewAssistantService constructs the assistant service. A nil generator makes every question fail as unavailable.
func NewAssistantService(deps AssistantDependencies, logger zerolog.Logger) AssistantService {
	return &assistantService{
		deps:   deps,
		logger: logger.With().Str("component", "assistant_service").Logger(),
	}
}

func (s *assistantService) Ask(ctx context.Context, principal session.Principal, payload dto.AssistantRequest) (dto.AssistantResponse, error) {
	question := strings.TrimSpace(payload.Question)
	userID := strings.TrimSpace(payload.UserID)
	userRole := strings.TrimSpace(payload.UserRole)
	if question == "" || userID == "" || userRole == "" {
		return dto.AssistantResponse{}, validationError("question, userId, and userRole are required")
	}

	if userID != principal.UserID().String() || userRole != principal.Role() {
		return dto.AssistantResponse{}, ErrForbidden
	}

	if s.deps.Generator == nil {
		return dto.AssistantResponse{}, ErrAssistantUnavailable
	}

	ctx, span := otel.Tracer("github.com/noah-isme/nxtgen-lms-api/internal/service").Start(ctx, "assistant.ask")
	defer span.End()
	span.SetAttributes(attribute.String("user.role", principal.Role()))

	var (
		promptContext string
		err           error
	)
	switch p := principal.(type) {
	case session.Teacher:
		promptContext, err = s.teacherContext(ctx, p.UserID())
	case session.Student:
		promptContext, err = s.studentContext(ctx, p.UserID())
	default:
		err = ErrForbidden
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context")
		return dto.AssistantResponse{}, err
	}

	answer, err := s.deps.Generator.Generate(ctx, ai.Prompt{Context: promptContext, Question: question})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		s.logger.Error().Err(err).Str("user_id", userID).Msg("assistant generation failed")
		return dto.AssistantResponse{}, errors.Join(ErrUpstream, err)
	}

	if strings.TrimSpace(answer) == "" {
		answer = FallbackAssistantAnswer
	}

	return dto.AssistantResponse{Response: answer}, nil
}

type assistantCourse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	EnrollmentsCount int64     `json:"enrollments_count"`
}

type assistantAssignment struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	DueDate          *time.Time `json:"due_date"`
	CourseTitle      string     `json:"course_title"`
	SubmissionsCount int64      `json:"submissions_count"`
}

type assistantEnrollment struct {
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

type assistantSubmission struct {
	AssignmentTitle string     `json:"assignment_title"`
	DueDate         *time.Time `json:"due_date"`
	Grade           *float64   `json:"grade"`
	Feedback        *string    `json:"feedback"`
	SubmittedAt     time.Time  `json:"submitted_at"`
}

type assistantAttendance struct {
	CourseTitle string `json:"course_title"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

func (s *assistantService) teacherContext(ctx context.Context, teacherID uuid.UUID) (string, error) {
	courses, err := s.deps.Courses.List(ctx, repository.CourseFilter{TeacherID: &teacherID})
	if err != nil {
		return "", err
	}

	courseIDs := make([]uuid.UUID, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	enrollmentCounts, err := s.deps.Courses.CountEnrollments(ctx, courseIDs)
	if err != nil {
		return "", err
	}

	courseItems := make([]assistantCourse, 0, len(courses))
	for _, course := range courses {
		courseItems = append(courseItems, assistantCourse{
			ID:               course.ID,
			Title:            course.Title,
			Description:      course.Description,
			EnrollmentsCount: enrollmentCounts[course.ID],
		})
	}

	assignments, err := s.deps.Assignments.List(ctx, repository.AssignmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return "", err
	}

	assignmentIDs := make([]uuid.UUID, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
	}

	submissionCounts, err := s.deps.Assignments.CountSubmissions(ctx, assignmentIDs)
	if err != nil {
		return "", err
	}

	assignmentItems := make([]assistantAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentItems = append(assignmentItems, assistantAssignment{
			ID:               assignment.ID,
			Title:            assignment.Title,
			DueDate:          assignment.DueDate,
			CourseTitle:      assignment.Course.Title,
			SubmissionsCount: submissionCounts[assignment.ID],
		})
	}

	builder := strings.Builder{}
	builder.WriteString("You are an AI assistant for a teacher in Nxtgen LMS.\n\n")
	writeContextSection(&builder, "Teacher's Courses", courseItems)
	writeContextSection(&builder, "Teacher's Assignments", assignmentItems)
	builder.WriteString("Based on this data, answer the teacher's question helpfully and concisely.")
	return builder.String(), nil
}

func (s *assistantService) studentContext(ctx context.Context, studentID uuid.UUID) (string, error) {
	enrollments, err := s.deps.Enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return "", err
	}

	enrollmentItems := make([]assistantEnrollment, 0, len(enrollments))
	for _, enrollment := range enrollments {
		enrollmentItems = append(enrollmentItems, assistantEnrollment{
			CourseID:    enrollment.CourseID,
			Title:       enrollment.Course.Title,
			Description: enrollment.Course.Description,
			EnrolledAt:  enrollment.EnrolledAt,
		})
	}

	submissions, err := s.deps.Submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return "", err
	}

	submissionItems := make([]assistantSubmission, 0, len(submissions))
	for _, submission := range submissions {
		submissionItems = append(submissionItems, assistantSubmission{
			AssignmentTitle: submission.Assignment.Title,
			DueDate:         submission.Assignment.DueDate,
			Grade:           submission.Grade,
			Feedback:        submission.Feedback,
			SubmittedAt:     submission.SubmittedAt,
		})
	}

	records, err := s.deps.Attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return "", err
	}

	attendanceItems := make([]assistantAttendance, 0, len(records))
	for _, record := range records {
		attendanceItems = append(attendanceItems, assistantAttendance{
			CourseTitle: record.Course.Title,
			Date:        models.DayString(record.Date),
			Status:      string(record.Status),
		})
	}

	builder := strings.Builder{}
	builder.WriteString("You are an AI assistant for a student in Nxtgen LMS.\n\n")
	writeContextSection(&builder, "Student's Enrolled Courses", enrollmentItems)
	writeContextSection(&builder, "Student's Submissions", submissionItems)
	writeContextSection(&builder, "Student's Attendance", attendanceItems)
	builder.WriteString("Based on this data, answer the student's question helpfully and concisely.")
	return builder.String(), nil
}

func writeContextSection(builder *strings.Builder, title string, value interface{}) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		encoded = []byte("[]")
	}
	builder.WriteString(title)
	builder.WriteString(":\n")
	builder.Write(encoded)
	builder.WriteString("\n\n")
}
