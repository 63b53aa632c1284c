package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

type lmsRepos struct {
	db          *gorm.DB
	profiles    repository.ProfileRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	attendance  repository.AttendanceRepository
	files       repository.CourseFileRepository
}

func setupLMS(t *testing.T) lmsRepos {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	return lmsRepos{
		db:          db,
		profiles:    repository.NewProfileRepository(db),
		courses:     repository.NewCourseRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		attendance:  repository.NewAttendanceRepository(db),
		files:       repository.NewCourseFileRepository(db),
	}
}

func createProfile(t *testing.T, db *gorm.DB, name, role string) models.Profile {
	t.Helper()
	profile := models.Profile{FullName: name, Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func createCourse(t *testing.T, db *gorm.DB, teacherID uuid.UUID, title string) models.Course {
	t.Helper()
	course := models.Course{Title: title, TeacherID: teacherID}
	require.NoError(t, db.Omit("Teacher").Create(&course).Error)
	return course
}

func enroll(t *testing.T, db *gorm.DB, courseID, studentID uuid.UUID) {
	t.Helper()
	enrollment := models.Enrollment{CourseID: courseID, StudentID: studentID}
	require.NoError(t, db.Omit("Course", "Student").Create(&enrollment).Error)
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type publishedChange struct {
	audience []uuid.UUID
	event    dto.ChangeEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedChange
}

func (p *recordingPublisher) Publish(_ context.Context, audience []uuid.UUID, event dto.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedChange{audience: audience, event: event})
}

func (p *recordingPublisher) tables() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	tables := make([]string, 0, len(p.events))
	for _, change := range p.events {
		tables = append(tables, change.event.Table)
	}
	return tables
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
