package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// AttendanceMarkRequest replaces the full attendance set of one course day.
// An empty map is valid and clears the day.
type AttendanceMarkRequest struct {
	Statuses map[string]string `json:"statuses" validate:"required,dive,keys,uuid,endkeys,oneof=present absent late"`
}

// AttendanceRecordResponse is one persisted attendance row.
type AttendanceRecordResponse struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	StudentID   uuid.UUID `json:"student_id"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttendanceRosterEntry is the teacher's editing view of one student.
// Recorded is false when the status shown is only the form default.
type AttendanceRosterEntry struct {
	StudentID uuid.UUID `json:"student_id"`
	FullName  string    `json:"full_name"`
	Status    string    `json:"status"`
	Recorded  bool      `json:"recorded"`
}

// AttendanceSheetResponse bundles the stored records of a day with the roster view.
type AttendanceSheetResponse struct {
	CourseID uuid.UUID                  `json:"course_id"`
	Date     string                     `json:"date"`
	Records  []AttendanceRecordResponse `json:"records"`
	Roster   []AttendanceRosterEntry    `json:"roster"`
}

// NewAttendanceRecordResponse converts an attendance model into a DTO.
func NewAttendanceRecordResponse(model models.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		CourseTitle: model.Course.Title,
		StudentID:   model.StudentID,
		Date:        models.DayString(model.Date),
		Status:      string(model.Status),
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAttendanceRecordResponseSlice converts attendance models into DTOs.
func NewAttendanceRecordResponseSlice(records []models.AttendanceRecord) []AttendanceRecordResponse {
	responses := make([]AttendanceRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewAttendanceRecordResponse(record))
	}
	return responses
}
