package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

const isoLayout = time.RFC3339

// AssignmentCreateRequest describes the payload for creating an assignment inside a course.
type AssignmentCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"max=10000"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ParsedDueDate returns the due date in UTC, or nil when none was given.
func (r AssignmentCreateRequest) ParsedDueDate() (*time.Time, error) {
	if r.DueDate == nil || *r.DueDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse(isoLayout, *r.DueDate)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}

// AssignmentResponse is the serialized representation returned to API clients.
// Status is only filled for students; SubmissionCount only for teachers.
type AssignmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	CourseID        uuid.UUID  `json:"course_id"`
	CourseTitle     string     `json:"course_title,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"due_date"`
	CreatedAt       time.Time  `json:"created_at"`
	Status          string     `json:"status,omitempty"`
	SubmissionID    *uuid.UUID `json:"submission_id,omitempty"`
	Grade           *float64   `json:"grade,omitempty"`
	SubmissionCount *int64     `json:"submission_count,omitempty"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"due_date"`
	CourseID    uuid.UUID  `json:"course_id"`
	CourseTitle string     `json:"course_title"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		CourseTitle: model.Course.Title,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		CreatedAt:   model.CreatedAt,
	}
}
