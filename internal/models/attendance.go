package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttendanceStatus is the state recorded for one student on one course day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid reports whether the status is one of the known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is unique per (course, student, date).
type AttendanceRecord struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_course_student_date" json:"course_id"`
	StudentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_course_student_date;index" json:"student_id"`
	Date      datatypes.Date   `gorm:"not null;uniqueIndex:idx_attendance_course_student_date" json:"date"`
	Status    AttendanceStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Course    Course           `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// TableName keeps the table name the auth platform's row policies refer to.
func (AttendanceRecord) TableName() string {
	return "attendance"
}

func (a *AttendanceRecord) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttendanceDay truncates t to its calendar day in UTC so every layer compares the same value.
func AttendanceDay(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DayString formats an attendance date as YYYY-MM-DD.
func DayString(date datatypes.Date) string {
	return time.Time(date).Format(time.DateOnly)
}
