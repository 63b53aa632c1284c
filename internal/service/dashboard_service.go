package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

const upcomingLimit = 5

// DashboardService produces the landing page aggregates of both roles.
type DashboardService interface {
	Student(ctx context.Context, studentID uuid.UUID) (dto.StudentDashboardResponse, error)
	Teacher(ctx context.Context, teacherID uuid.UUID) (dto.TeacherDashboardResponse, error)
}

type dashboardService struct {
	resolver    CourseResolver
	courses     CourseService
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	summaries   GradeSummaryService
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(resolver CourseResolver, courses CourseService, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, summaries GradeSummaryService, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		resolver:    resolver,
		courses:     courses,
		assignments: assignments,
		submissions: submissions,
		summaries:   summaries,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) Student(ctx context.Context, studentID uuid.UUID) (dto.StudentDashboardResponse, error) {
	courseIDs, err := s.resolver.ListEnrolledCourseIDs(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	grades, err := s.summaries.ForStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	view := studentAssignmentView(assignments, submissions, s.now())

	counts := dto.AssignmentStatusCounts{}
	upcoming := make([]dto.AssignmentResponse, 0, upcomingLimit)
	for _, item := range view {
		switch item.Status {
		case models.AssignmentStatusGraded:
			counts.Graded++
		case models.AssignmentStatusSubmitted:
			counts.Submitted++
		case models.AssignmentStatusOverdue:
			counts.Overdue++
		default:
			counts.Pending++
			if item.DueDate != nil {
				upcoming = append(upcoming, item)
			}
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(*upcoming[j].DueDate)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}

	return dto.StudentDashboardResponse{
		EnrolledCourses: len(courseIDs),
		Assignments:     counts,
		Grades:          grades,
		Upcoming:        upcoming,
	}, nil
}

func (s *dashboardService) Teacher(ctx context.Context, teacherID uuid.UUID) (dto.TeacherDashboardResponse, error) {
	cards, err := s.courses.ListForTeacher(ctx, teacherID)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	response := dto.TeacherDashboardResponse{
		Courses:      cards,
		TotalCourses: len(cards),
	}
	courseIDs := make([]uuid.UUID, 0, len(cards))
	for _, card := range cards {
		response.TotalStudents += card.EnrollmentCount
		response.TotalAssignments += card.AssignmentCount
		courseIDs = append(courseIDs, card.ID)
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{CourseIDs: courseIDs})
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}
	for _, submission := range submissions {
		if !submission.IsGraded() {
			response.PendingGrading++
		}
	}

	return response, nil
}
