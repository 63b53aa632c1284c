package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// EnrollmentResponse is returned after a student joins a course.
type EnrollmentResponse struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	StudentID  uuid.UUID `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// RosterEntry lists one enrolled student of a course.
type RosterEntry struct {
	StudentID  uuid.UUID `json:"student_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// NewEnrollmentResponse converts an enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		StudentID:  model.StudentID,
		EnrolledAt: model.EnrolledAt,
	}
}

// NewRoster converts enrollments with preloaded students into roster entries.
func NewRoster(enrollments []models.Enrollment) []RosterEntry {
	roster := make([]RosterEntry, 0, len(enrollments))
	for _, enrollment := range enrollments {
		roster = append(roster, RosterEntry{
			StudentID:  enrollment.StudentID,
			FullName:   enrollment.Student.FullName,
			Email:      enrollment.Student.Email,
			EnrolledAt: enrollment.EnrolledAt,
		})
	}
	return roster
}
