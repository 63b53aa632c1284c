package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Duration    *string `json:"duration" validate:"omitempty,max=64"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Duration    *string `json:"duration" validate:"omitempty,max=64"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    *string      `json:"duration"`
	TeacherID   uuid.UUID    `json:"teacher_id"`
	Teacher     *ProfileLite `json:"teacher,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CourseCardResponse is a teacher's view of an owned course with its counters.
type CourseCardResponse struct {
	CourseResponse
	EnrollmentCount int64 `json:"enrollment_count"`
	AssignmentCount int64 `json:"assignment_count"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Duration:    model.Duration,
		TeacherID:   model.TeacherID,
		Teacher:     NewProfileLite(model.Teacher),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
