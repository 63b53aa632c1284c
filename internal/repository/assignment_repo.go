package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// AssignmentFilter restricts listings to a set of courses. A nil slice means no restriction.
type AssignmentFilter struct {
	CourseIDs []uuid.UUID
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCourse(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CountSubmissions(ctx context.Context, assignmentIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	if filter.CourseIDs != nil && len(filter.CourseIDs) == 0 {
		return []models.Assignment{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Course")
	if filter.CourseIDs != nil {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}

	var assignments []models.Assignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Course").First(&assignment, "id = ?", id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *assignmentRepository) CountByCourse(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countByCourse(ctx, r.db, &models.Assignment{}, courseIDs)
}

type assignmentCount struct {
	AssignmentID uuid.UUID
	Total        int64
}

func (r *assignmentRepository) CountSubmissions(ctx context.Context, assignmentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return counts, nil
	}

	var rows []assignmentCount
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("assignment_id, COUNT(*) AS total").
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AssignmentID] = row.Total
	}
	return counts, nil
}
