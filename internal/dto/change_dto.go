package dto

import (
	"time"

	"github.com/google/uuid"
)

// Tables reported by the change feed.
const (
	ChangeTableCourses     = "courses"
	ChangeTableEnrollments = "enrollments"
	ChangeTableAssignments = "assignments"
	ChangeTableSubmissions = "submissions"
	ChangeTableAttendance  = "attendance"
	ChangeTableCourseFiles = "course_files"
	ChangeTableProfiles    = "profiles"
)

// Actions reported by the change feed.
const (
	ChangeActionInsert = "INSERT"
	ChangeActionUpdate = "UPDATE"
	ChangeActionDelete = "DELETE"
)

// ChangeEvent tells a subscriber that a row it can see was written. Clients refetch on receipt.
type ChangeEvent struct {
	Table      string     `json:"table"`
	Action     string     `json:"action"`
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	RecordID   uuid.UUID  `json:"record_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}
