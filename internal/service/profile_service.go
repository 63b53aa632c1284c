package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// ProfileService reads and edits the signed-in user's profile.
type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (dto.ProfileResponse, error)
	Update(ctx context.Context, id uuid.UUID, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error)
}

type profileService struct {
	profiles  repository.ProfileRepository
	changes   ChangePublisher
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(profiles repository.ProfileRepository, changes ChangePublisher, validate *validator.Validate, logger zerolog.Logger) ProfileService {
	return &profileService{
		profiles:  profiles,
		changes:   changes,
		validator: validate,
		logger:    logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (dto.ProfileResponse, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}
	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) Update(ctx context.Context, id uuid.UUID, payload dto.ProfileUpdateRequest) (dto.ProfileResponse, error) {
	payload.FullName = strings.TrimSpace(payload.FullName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	if err := s.profiles.UpdateFullName(ctx, id, payload.FullName); err != nil {
		if repository.IsNotFound(err) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	publishChange(ctx, s.changes, []uuid.UUID{id}, dto.ChangeTableProfiles, dto.ChangeActionUpdate, nil, id)

	return s.Get(ctx, id)
}
