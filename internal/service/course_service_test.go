package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

func stringPtr(value string) *string {
	return &value
}

func TestCourseLifecycleAndScoping(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()
	publisher := &recordingPublisher{}

	teacher := createProfile(t, repos.db, "Teacher", models.RoleTeacher)
	other := createProfile(t, repos.db, "Other", models.RoleTeacher)
	student := createProfile(t, repos.db, "Student", models.RoleStudent)

	enrollments := NewEnrollmentService(repos.courses, repos.enrollments, publisher, nopLogger())
	courses := NewCourseService(repos.courses, repos.enrollments, repos.assignments, enrollments, publisher, newTestValidator(), nopLogger())

	created, err := courses.Create(ctx, teacher.ID, dto.CourseCreateRequest{
		Title:       "  Algebra I  ",
		Description: "<p>Intro</p><script>x()</script>",
		Duration:    stringPtr("12 weeks"),
	})
	require.NoError(t, err)
	require.Equal(t, "Algebra I", created.Title)
	require.NotContains(t, created.Description, "script")

	_, err = courses.Create(ctx, teacher.ID, dto.CourseCreateRequest{Title: "ab"})
	require.True(t, IsValidation(err))

	_, err = courses.Update(ctx, other.ID, created.ID, dto.CourseUpdateRequest{Title: stringPtr("Hijacked")})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	updated, err := courses.Update(ctx, teacher.ID, created.ID, dto.CourseUpdateRequest{Title: stringPtr("Algebra II")})
	require.NoError(t, err)
	require.Equal(t, "Algebra II", updated.Title)

	_, err = enrollments.Enroll(ctx, student.ID, created.ID)
	require.NoError(t, err)

	mine, err := courses.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	cards, err := courses.ListForTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.EqualValues(t, 1, cards[0].EnrollmentCount)

	otherCards, err := courses.ListForTeacher(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, otherCards)

	require.ErrorIs(t, courses.Delete(ctx, other.ID, created.ID), ErrNotCourseOwner)
	require.NoError(t, courses.Delete(ctx, teacher.ID, created.ID))

	_, err = courses.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)

	mine, err = courses.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Empty(t, mine)
	require.Contains(t, publisher.tables(), dto.ChangeTableCourses)
}

func TestAssignmentStatusesAndDashboards(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()

	teacher := createProfile(t, repos.db, "Teacher", models.RoleTeacher)
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	course := createCourse(t, repos.db, teacher.ID, "Statistics")
	enroll(t, repos.db, course.ID, student.ID)

	enrollments := NewEnrollmentService(repos.courses, repos.enrollments, nil, nopLogger())
	courses := NewCourseService(repos.courses, repos.enrollments, repos.assignments, enrollments, nil, newTestValidator(), nopLogger())
	assignments := NewAssignmentService(repos.courses, repos.enrollments, repos.assignments, repos.submissions, enrollments, nil, newTestValidator(), nopLogger())
	summaries := NewGradeSummaryService(repos.courses, repos.enrollments, repos.submissions, nil, time.Minute, nopLogger())
	submissions := NewSubmissionService(SubmissionDependencies{
		Courses:     repos.courses,
		Enrollments: repos.enrollments,
		Assignments: repos.assignments,
		Submissions: repos.submissions,
		Resolver:    enrollments,
		Summaries:   summaries,
	}, newTestValidator(), nopLogger())
	dashboard := NewDashboardService(enrollments, courses, repos.assignments, repos.submissions, summaries, nopLogger())

	future := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	past := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC3339)

	pending, err := assignments.Create(ctx, teacher.ID, course.ID, dto.AssignmentCreateRequest{Title: "Pending", DueDate: &future})
	require.NoError(t, err)
	_, err = assignments.Create(ctx, teacher.ID, course.ID, dto.AssignmentCreateRequest{Title: "Overdue", DueDate: &past})
	require.NoError(t, err)
	gradedAssignment, err := assignments.Create(ctx, teacher.ID, course.ID, dto.AssignmentCreateRequest{Title: "Graded"})
	require.NoError(t, err)

	_, err = assignments.Create(ctx, student.ID, course.ID, dto.AssignmentCreateRequest{Title: "Nope"})
	require.ErrorIs(t, err, ErrNotCourseOwner)

	submission, err := submissions.Submit(ctx, student.ID, gradedAssignment.ID, dto.SubmissionCreateRequest{Content: "done"})
	require.NoError(t, err)
	_, err = submissions.Grade(ctx, teacher.ID, submission.ID, dto.GradeRequest{Grade: floatPtr(75)})
	require.NoError(t, err)

	list, err := assignments.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, item := range list {
		statuses[item.Title] = item.Status
	}
	require.Equal(t, models.AssignmentStatusPending, statuses["Pending"])
	require.Equal(t, models.AssignmentStatusOverdue, statuses["Overdue"])
	require.Equal(t, models.AssignmentStatusGraded, statuses["Graded"])

	teacherList, err := assignments.ListForCourse(ctx, session.Teacher{Profile: teacher}, course.ID)
	require.NoError(t, err)
	require.Len(t, teacherList, 3)
	for _, item := range teacherList {
		require.NotNil(t, item.SubmissionCount)
		require.Empty(t, item.Status)
	}

	studentBoard, err := dashboard.Student(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, studentBoard.EnrolledCourses)
	require.Equal(t, 1, studentBoard.Assignments.Pending)
	require.Equal(t, 1, studentBoard.Assignments.Overdue)
	require.Equal(t, 1, studentBoard.Assignments.Graded)
	require.Len(t, studentBoard.Upcoming, 1)
	require.Equal(t, pending.ID, studentBoard.Upcoming[0].ID)
	require.InDelta(t, 75, studentBoard.Grades.AverageGrade, 0.001)

	teacherBoard, err := dashboard.Teacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, 1, teacherBoard.TotalCourses)
	require.EqualValues(t, 1, teacherBoard.TotalStudents)
	require.EqualValues(t, 3, teacherBoard.TotalAssignments)
	require.Zero(t, teacherBoard.PendingGrading)

	require.NoError(t, assignments.Delete(ctx, teacher.ID, gradedAssignment.ID))
	remaining, err := repos.submissions.List(ctx, repository.SubmissionFilter{StudentID: &student.ID})
	require.NoError(t, err)
	require.Empty(t, remaining)
}

type memoryUploader struct {
	uploads map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if u.uploads == nil {
		u.uploads = map[string][]byte{}
	}
	u.uploads[name] = data
	return "https://files.example.com/" + name, nil
}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestCourseFileUploadAndDeletePermissions(t *testing.T) {
	repos := setupLMS(t)
	ctx := context.Background()

	teacher := createProfile(t, repos.db, "Teacher", models.RoleTeacher)
	student := createProfile(t, repos.db, "Student", models.RoleStudent)
	classmate := createProfile(t, repos.db, "Classmate", models.RoleStudent)
	outsider := createProfile(t, repos.db, "Outsider", models.RoleStudent)
	course := createCourse(t, repos.db, teacher.ID, "Art")
	enroll(t, repos.db, course.ID, student.ID)
	enroll(t, repos.db, course.ID, classmate.ID)

	uploader := &memoryUploader{}
	files := NewCourseFileService(repos.courses, repos.enrollments, repos.files, uploader, nil, newTestValidator(), 1024, nopLogger())

	header := multipartFile(t, "notes.txt", []byte("lecture notes"))
	uploaded, err := files.Upload(ctx, session.Student{Profile: student}, course.ID, dto.CourseFileUploadRequest{Description: stringPtr("Week 1")}, header)
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/notes.txt", uploaded.FileURL)
	require.Contains(t, uploaded.FileType, "text/plain")
	require.Equal(t, []byte("lecture notes"), uploader.uploads["notes.txt"])

	_, err = files.Upload(ctx, session.Student{Profile: outsider}, course.ID, dto.CourseFileUploadRequest{}, header)
	require.ErrorIs(t, err, ErrNotEnrolled)

	large := multipartFile(t, "big.txt", bytes.Repeat([]byte("a"), 2048))
	_, err = files.Upload(ctx, session.Teacher{Profile: teacher}, course.ID, dto.CourseFileUploadRequest{}, large)
	require.ErrorIs(t, err, ErrValidation)

	list, err := files.List(ctx, session.Teacher{Profile: teacher}, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, files.Delete(ctx, session.Student{Profile: classmate}, uploaded.ID), ErrForbidden)
	require.NoError(t, files.Delete(ctx, session.Teacher{Profile: teacher}, uploaded.ID))
	require.ErrorIs(t, files.Delete(ctx, session.Teacher{Profile: teacher}, uploaded.ID), ErrFileNotFound)
}
