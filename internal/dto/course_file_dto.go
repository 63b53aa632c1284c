package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// CourseFileUploadRequest carries the optional form fields sent next to the file part.
type CourseFileUploadRequest struct {
	Description *string `form:"description" validate:"omitempty,max=500"`
}

// CourseFileResponse describes a shared course file.
type CourseFileResponse struct {
	ID           uuid.UUID    `json:"id"`
	CourseID     uuid.UUID    `json:"course_id"`
	UploaderID   uuid.UUID    `json:"uploader_id"`
	UploaderRole string       `json:"uploader_role"`
	Uploader     *ProfileLite `json:"uploader,omitempty"`
	FileName     string       `json:"file_name"`
	FileURL      string       `json:"file_url"`
	FileSize     int64        `json:"file_size"`
	FileType     string       `json:"file_type"`
	Description  *string      `json:"description"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewCourseFileResponse converts a course file model into a DTO.
func NewCourseFileResponse(model models.CourseFile) CourseFileResponse {
	return CourseFileResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		UploaderID:   model.UploaderID,
		UploaderRole: model.UploaderRole,
		Uploader:     NewProfileLite(model.Uploader),
		FileName:     model.FileName,
		FileURL:      model.FileURL,
		FileSize:     model.FileSize,
		FileType:     model.FileType,
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
	}
}
