package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// CourseFileRepository persists metadata of files shared in a course.
type CourseFileRepository interface {
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseFile, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.CourseFile, error)
	Create(ctx context.Context, file *models.CourseFile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseFileRepository struct {
	db *gorm.DB
}

// NewCourseFileRepository instantiates the repository.
func NewCourseFileRepository(db *gorm.DB) CourseFileRepository {
	return &courseFileRepository{db: db}
}

func (r *courseFileRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.CourseFile, error) {
	var files []models.CourseFile
	if err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

func (r *courseFileRepository) GetByID(ctx context.Context, id uuid.UUID) (models.CourseFile, error) {
	var file models.CourseFile
	if err := r.db.WithContext(ctx).Preload("Uploader").First(&file, "id = ?", id).Error; err != nil {
		return models.CourseFile{}, err
	}

	return file, nil
}

func (r *courseFileRepository) Create(ctx context.Context, file *models.CourseFile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(file).Error
}

func (r *courseFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CourseFile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
