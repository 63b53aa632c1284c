package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

// courseAccess answers "may this user touch this course" for every service.
type courseAccess struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
}

func (a courseAccess) course(ctx context.Context, courseID uuid.UUID) (models.Course, error) {
	course, err := a.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (a courseAccess) owned(ctx context.Context, teacherID, courseID uuid.UUID) (models.Course, error) {
	course, err := a.course(ctx, courseID)
	if err != nil {
		return models.Course{}, err
	}
	if !course.OwnedBy(teacherID) {
		return models.Course{}, ErrNotCourseOwner
	}
	return course, nil
}

func (a courseAccess) enrolled(ctx context.Context, studentID, courseID uuid.UUID) (models.Course, error) {
	course, err := a.course(ctx, courseID)
	if err != nil {
		return models.Course{}, err
	}
	ok, err := a.enrollments.Exists(ctx, courseID, studentID)
	if err != nil {
		return models.Course{}, err
	}
	if !ok {
		return models.Course{}, ErrNotEnrolled
	}
	return course, nil
}

// member admits the owner and enrolled students.
func (a courseAccess) member(ctx context.Context, principal session.Principal, courseID uuid.UUID) (models.Course, error) {
	switch p := principal.(type) {
	case session.Teacher:
		return a.owned(ctx, p.UserID(), courseID)
	case session.Student:
		return a.enrolled(ctx, p.UserID(), courseID)
	default:
		return models.Course{}, ErrForbidden
	}
}

// audience is everyone who sees rows of the course: its teacher plus the roster.
func (a courseAccess) audience(ctx context.Context, course models.Course) []uuid.UUID {
	audience := []uuid.UUID{course.TeacherID}
	students, err := a.enrollments.ListStudentIDsByCourse(ctx, course.ID)
	if err != nil {
		return audience
	}
	return append(audience, students...)
}
