package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/nxtgen-lms-api/internal/models"
)

// ProfileUpdateRequest captures the editable profile fields. Role is fixed at sign-up.
type ProfileUpdateRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=120"`
}

// ProfileResponse is the signed-in user's own profile.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileLite summarises another user inside nested payloads.
type ProfileLite struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

// NewProfileResponse converts a profile model into a DTO.
func NewProfileResponse(model models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        model.ID,
		FullName:  model.FullName,
		Email:     model.Email,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewProfileLite returns nil when the association was not loaded.
func NewProfileLite(model models.Profile) *ProfileLite {
	if model.ID == uuid.Nil {
		return nil
	}
	return &ProfileLite{ID: model.ID, FullName: model.FullName, Email: model.Email}
}
