package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// DefaultAttendanceStatus is what the marking form shows for a student with no record. It is never stored.
const DefaultAttendanceStatus = models.AttendancePresent

// AttendanceService records and reports per-day course attendance.
type AttendanceService interface {
	Mark(ctx context.Context, teacherID, courseID uuid.UUID, date time.Time, payload dto.AttendanceMarkRequest) (dto.AttendanceSheetResponse, error)
	Sheet(ctx context.Context, teacherID, courseID uuid.UUID, date time.Time) (dto.AttendanceSheetResponse, error)
	History(ctx context.Context, studentID, courseID uuid.UUID) ([]dto.AttendanceRecordResponse, error)
}

type attendanceService struct {
	access      courseAccess
	enrollments repository.EnrollmentRepository
	attendance  repository.AttendanceRepository
	changes     ChangePublisher
	validator   *validator.Validate
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewAttendanceService constructs the attendance aggregator.
func NewAttendanceService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, attendance repository.AttendanceRepository, changes ChangePublisher, validate *validator.Validate, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		access:      courseAccess{courses: courses, enrollments: enrollments},
		enrollments: enrollments,
		attendance:  attendance,
		changes:     changes,
		validator:   validate,
		tracer:      otel.Tracer("github.com/noah-isme/nxtgen-lms-api/internal/service/attendance"),
		logger:      logger.With().Str("component", "attendance_service").Logger(),
	}
}

// ParseAttendanceDate reads a YYYY-MM-DD path value as a UTC calendar day.
func ParseAttendanceDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// Mark replaces the whole attendance set of (course, date) with payload. Students left out end up
// unrecorded for that day, not absent.
func (s *attendanceService) Mark(ctx context.Context, teacherID, courseID uuid.UUID, date time.Time, payload dto.AttendanceMarkRequest) (dto.AttendanceSheetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.replace", trace.WithAttributes(
		attribute.String("attendance.course_id", courseID.String()),
		attribute.String("attendance.date", date.Format(time.DateOnly)),
		attribute.Int("attendance.entries", len(payload.Statuses)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceSheetResponse{}, err
	}

	course, err := s.access.owned(ctx, teacherID, courseID)
	if err != nil {
		span.SetStatus(codes.Error, "course_access_denied")
		return dto.AttendanceSheetResponse{}, err
	}

	roster, err := s.enrollments.ListStudentIDsByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.AttendanceSheetResponse{}, err
	}
	onRoster := make(map[uuid.UUID]struct{}, len(roster))
	for _, id := range roster {
		onRoster[id] = struct{}{}
	}

	day := models.AttendanceDay(date)
	records := make([]models.AttendanceRecord, 0, len(payload.Statuses))
	for rawID, rawStatus := range payload.Statuses {
		studentID, err := uuid.Parse(rawID)
		if err != nil {
			return dto.AttendanceSheetResponse{}, validationError("invalid student id %q", rawID)
		}
		if _, ok := onRoster[studentID]; !ok {
			return dto.AttendanceSheetResponse{}, validationError("student %s is not enrolled in this course", studentID)
		}
		status := models.AttendanceStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
		if !status.Valid() {
			return dto.AttendanceSheetResponse{}, validationError("invalid attendance status %q", rawStatus)
		}
		records = append(records, models.AttendanceRecord{
			CourseID:  courseID,
			StudentID: studentID,
			Date:      day,
			Status:    status,
		})
	}

	if err := s.attendance.ReplaceForDate(ctx, courseID, day, records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace_failed")
		return dto.AttendanceSheetResponse{}, err
	}

	s.logger.Info().
		Str("course_id", courseID.String()).
		Str("date", models.DayString(day)).
		Int("records", len(records)).
		Msg("attendance replaced")

	publishChange(ctx, s.changes, s.access.audience(ctx, course), dto.ChangeTableAttendance, dto.ChangeActionUpdate, &course.ID, course.ID)

	return s.sheet(ctx, courseID, day)
}

// Sheet returns the stored records of the day plus the roster view, where students without a record
// show the form default.
func (s *attendanceService) Sheet(ctx context.Context, teacherID, courseID uuid.UUID, date time.Time) (dto.AttendanceSheetResponse, error) {
	if _, err := s.access.owned(ctx, teacherID, courseID); err != nil {
		return dto.AttendanceSheetResponse{}, err
	}
	return s.sheet(ctx, courseID, models.AttendanceDay(date))
}

func (s *attendanceService) sheet(ctx context.Context, courseID uuid.UUID, day datatypes.Date) (dto.AttendanceSheetResponse, error) {
	records, err := s.attendance.ListByCourseAndDate(ctx, courseID, day)
	if err != nil {
		return dto.AttendanceSheetResponse{}, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.AttendanceSheetResponse{}, err
	}

	return BuildAttendanceSheet(courseID, day, records, enrollments), nil
}

// History lists the student's own records for the course, newest day first. Past records stay
// visible after the student leaves the course.
func (s *attendanceService) History(ctx context.Context, studentID, courseID uuid.UUID) ([]dto.AttendanceRecordResponse, error) {
	if _, err := s.access.course(ctx, courseID); err != nil {
		return nil, err
	}

	records, err := s.attendance.ListByCourseAndStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceRecordResponseSlice(records), nil
}

// BuildAttendanceSheet merges persisted records with the roster. Records are returned as stored;
// only the roster view applies the default status.
func BuildAttendanceSheet(courseID uuid.UUID, day datatypes.Date, records []models.AttendanceRecord, enrollments []models.Enrollment) dto.AttendanceSheetResponse {
	byStudent := make(map[uuid.UUID]models.AttendanceStatus, len(records))
	for _, record := range records {
		byStudent[record.StudentID] = record.Status
	}

	roster := make([]dto.AttendanceRosterEntry, 0, len(enrollments))
	for _, enrollment := range enrollments {
		entry := dto.AttendanceRosterEntry{
			StudentID: enrollment.StudentID,
			FullName:  enrollment.Student.FullName,
			Status:    string(DefaultAttendanceStatus),
		}
		if status, ok := byStudent[enrollment.StudentID]; ok {
			entry.Status = string(status)
			entry.Recorded = true
		}
		roster = append(roster, entry)
	}

	return dto.AttendanceSheetResponse{
		CourseID: courseID,
		Date:     models.DayString(day),
		Records:  dto.NewAttendanceRecordResponseSlice(records),
		Roster:   roster,
	}
}
