package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// SubmissionCreateRequest is the student's one-time answer to an assignment.
type SubmissionCreateRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

// GradeRequest sets or overwrites the grade of a submission. The range is checked by the grading service.
type GradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uuid.UUID      `json:"id"`
	AssignmentID uuid.UUID      `json:"assignment_id"`
	StudentID    uuid.UUID      `json:"student_id"`
	Content      string         `json:"content"`
	Grade        *float64       `json:"grade"`
	Feedback     *string        `json:"feedback"`
	Status       string         `json:"status"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	GradedAt     *time.Time     `json:"graded_at"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      *ProfileLite   `json:"student,omitempty"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	status := models.AssignmentStatusSubmitted
	if model.IsGraded() {
		status = models.AssignmentStatusGraded
	}

	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		Status:       status,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
		Student:      NewProfileLite(model.Student),
	}

	if model.Assignment.ID != uuid.Nil {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			DueDate:     model.Assignment.DueDate,
			CourseID:    model.Assignment.CourseID,
			CourseTitle: model.Assignment.Course.Title,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
