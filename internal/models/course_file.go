package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseFile is a file shared inside a course by its teacher or an enrolled student.
type CourseFile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	UploaderID   uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	UploaderRole string    `gorm:"size:16;not null" json:"uploader_role"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	FileURL      string    `gorm:"size:512;not null" json:"file_url"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `gorm:"size:128" json:"file_type"`
	Description  *string   `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	Uploader     Profile   `gorm:"foreignKey:UploaderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"uploader"`
}

func (f *CourseFile) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
