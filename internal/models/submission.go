package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission is a student's single response to one assignment.
// A nil Grade means ungraded, never zero.
type Submission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_student;index" json:"student_id"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Grade        *float64   `json:"grade"`
	Feedback     *string    `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time  `gorm:"not null;index" json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Profile    `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

func (s *Submission) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	return nil
}

// IsGraded reports whether the submission carries a grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}

// Display statuses of an assignment from one student's point of view. They are derived, never stored.
const (
	AssignmentStatusPending   = "Pending"
	AssignmentStatusOverdue   = "Overdue"
	AssignmentStatusSubmitted = "Submitted"
	AssignmentStatusGraded    = "Graded"
)

// DeriveAssignmentStatus computes the status shown to a student for an assignment.
// submission is nil when the student has not submitted yet.
func DeriveAssignmentStatus(assignment Assignment, submission *Submission, now time.Time) string {
	if submission != nil {
		if submission.IsGraded() {
			return AssignmentStatusGraded
		}
		return AssignmentStatusSubmitted
	}

	if assignment.IsPastDue(now) {
		return AssignmentStatusOverdue
	}

	return AssignmentStatusPending
}
