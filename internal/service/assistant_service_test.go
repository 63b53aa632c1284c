package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/pkg/ai"
)

type fakeGenerator struct {
	answer string
	err    error
	prompt ai.Prompt
	calls  int
}

func (g *fakeGenerator) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.answer, g.err
}

func newAssistantForTest(repos lmsRepos, generator ai.Generator) AssistantService {
	deps := AssistantDependencies{
		Courses:     repos.courses,
		Enrollments: repos.enrollments,
		Assignments: repos.assignments,
		Submissions: repos.submissions,
		Attendance:  repos.attendance,
	}
	if generator != nil {
		deps.Generator = generator
	}
	return NewAssistantService(deps, nopLogger())
}

func TestAssistantBuildsTeacherContext(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()
	teacher := createProfile(t, repos.db, "Teacher", models.RoleTeacher)
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	course := createCourse(t, repos.db, teacher.ID, "Geometry")
	enroll(t, repos.db, course.ID, student.ID)

	assignment := models.Assignment{CourseID: course.ID, Title: "Triangles"}
	require.NoError(t, repos.db.Omit("Course").Create(&assignment).Error)

	generator := &fakeGenerator{answer: "Grade the triangles homework."}
	svc := newAssistantForTest(repos, generator)

	response, err := svc.Ask(ctx, session.Teacher{Profile: teacher}, dto.AssistantRequest{
		Question: "What should I do next?",
		UserID:   teacher.ID.String(),
		UserRole: models.RoleTeacher,
	})
	require.NoError(t, err)
	require.Equal(t, "Grade the triangles homework.", response.Response)

	require.Equal(t, "What should I do next?", generator.prompt.Question)
	require.Contains(t, generator.prompt.Context, "You are an AI assistant for a teacher in Nxtgen LMS.")
	require.Contains(t, generator.prompt.Context, "Teacher's Courses:")
	require.Contains(t, generator.prompt.Context, "Geometry")
	require.Contains(t, generator.prompt.Context, "\"enrollments_count\": 1")
	require.Contains(t, generator.prompt.Context, "Teacher's Assignments:")
	require.Contains(t, generator.prompt.Context, "Triangles")
}

func TestAssistantBuildsStudentContext(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()
	teacher := createProfile(t, repos.db, "Teacher", models.RoleTeacher)
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	course := createCourse(t, repos.db, teacher.ID, "Literature")
	enroll(t, repos.db, course.ID, student.ID)

	day := models.AttendanceDay(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repos.attendance.ReplaceForDate(ctx, course.ID, day, []models.AttendanceRecord{
		{CourseID: course.ID, StudentID: student.ID, Date: day, Status: models.AttendanceLate},
	}))

	generator := &fakeGenerator{answer: ""}
	svc := newAssistantForTest(repos, generator)

	response, err := svc.Ask(ctx, session.Student{Profile: student}, dto.AssistantRequest{
		Question: "How am I doing?",
		UserID:   student.ID.String(),
		UserRole: models.RoleStudent,
	})
	require.NoError(t, err)
	require.Equal(t, FallbackAssistantAnswer, response.Response)

	require.Contains(t, generator.prompt.Context, "Student's Enrolled Courses:")
	require.Contains(t, generator.prompt.Context, "Literature")
	require.Contains(t, generator.prompt.Context, "Student's Submissions:")
	require.Contains(t, generator.prompt.Context, "Student's Attendance:")
	require.Contains(t, generator.prompt.Context, "2024-01-10")
	require.Contains(t, generator.prompt.Context, "late")
}

func TestAssistantRejectsBadRequests(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	principal := session.Student{Profile: student}

	generator := &fakeGenerator{answer: "ok"}
	svc := newAssistantForTest(repos, generator)

	_, err := svc.Ask(ctx, principal, dto.AssistantRequest{Question: "  ", UserID: student.ID.String(), UserRole: models.RoleStudent})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "question, userId, and userRole are required")

	_, err = svc.Ask(ctx, principal, dto.AssistantRequest{Question: "hi", UserID: student.ID.String(), UserRole: models.RoleTeacher})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Ask(ctx, principal, dto.AssistantRequest{Question: "hi", UserID: "someone-else", UserRole: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	require.Zero(t, generator.calls)
}

func TestAssistantUpstreamFailures(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	principal := session.Student{Profile: student}
	request := dto.AssistantRequest{Question: "hi", UserID: student.ID.String(), UserRole: models.RoleStudent}

	_, err := newAssistantForTest(repos, nil).Ask(ctx, principal, request)
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	_, err = newAssistantForTest(repos, &fakeGenerator{err: errors.New("quota exceeded")}).Ask(ctx, principal, request)
	require.ErrorIs(t, err, ErrUpstream)
}
