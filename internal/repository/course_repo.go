package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// CourseFilter narrows course listings. A non-nil IDs slice restricts results to those ids.
type CourseFilter struct {
	TeacherID *uuid.UUID
	IDs       []uuid.UUID
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	ListIDsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountEnrollments(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []models.Course{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Course{}).Preload("Teacher")
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.IDs != nil {
		query = query.Where("id IN ?", filter.IDs)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) ListIDsByTeacher(ctx context.Context, teacherID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	if err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("teacher_id = ?", teacherID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&course, "id = ?", id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(course).Error
}

// Delete removes the course together with everything that hangs off it.
func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignmentIDs := tx.Model(&models.Assignment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("assignment_id IN (?)", assignmentIDs).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		dependents := []interface{}{
			&models.Assignment{},
			&models.Enrollment{},
			&models.AttendanceRecord{},
			&models.CourseFile{},
		}
		for _, model := range dependents {
			if err := tx.Where("course_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Course{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type courseCount struct {
	CourseID uuid.UUID
	Total    int64
}

func (r *courseRepository) CountEnrollments(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countByCourse(ctx, r.db, &models.Enrollment{}, courseIDs)
}

func countByCourse(ctx context.Context, db *gorm.DB, model interface{}, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	var rows []courseCount
	if err := db.WithContext(ctx).Model(model).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}
