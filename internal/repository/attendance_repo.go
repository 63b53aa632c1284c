package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// AttendanceRepository stores attendance records.
type AttendanceRepository interface {
	ReplaceForDate(ctx context.Context, courseID uuid.UUID, date datatypes.Date, records []models.AttendanceRecord) error
	ListByCourseAndDate(ctx context.Context, courseID uuid.UUID, date datatypes.Date) ([]models.AttendanceRecord, error)
	ListByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) ([]models.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ReplaceForDate makes records the complete set for (course, date) in a single transaction:
// rows for students missing from records are pruned, the rest are upserted.
func (r *attendanceRepository) ReplaceForDate(ctx context.Context, courseID uuid.UUID, date datatypes.Date, records []models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prune := tx.Where("course_id = ? AND date = ?", courseID, date)
		if len(records) > 0 {
			keep := make([]uuid.UUID, 0, len(records))
			for _, record := range records {
				keep = append(keep, record.StudentID)
			}
			prune = prune.Where("student_id NOT IN ?", keep)
		}
		if err := prune.Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}

		if len(records) == 0 {
			return nil
		}

		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "course_id"},
				{Name: "student_id"},
				{Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&records).Error
	})
}

func (r *attendanceRepository) ListByCourseAndDate(ctx context.Context, courseID uuid.UUID, date datatypes.Date) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND date = ?", courseID, date).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *attendanceRepository) ListByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
