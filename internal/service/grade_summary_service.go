package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/observability"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
)

// AverageGrade is the mean over graded submissions only. It returns 0 when nothing is graded.
func AverageGrade(submissions []models.Submission) float64 {
	var total float64
	var graded int
	for _, submission := range submissions {
		if submission.Grade == nil {
			continue
		}
		total += *submission.Grade
		graded++
	}
	if graded == 0 {
		return 0
	}
	return total / float64(graded)
}

// CompletionRate is the graded share of all submissions as a percentage, 0 for an empty set.
func CompletionRate(submissions []models.Submission) float64 {
	if len(submissions) == 0 {
		return 0
	}
	return float64(countGraded(submissions)) / float64(len(submissions)) * 100
}

// SummarizeGrades computes every aggregate of a submission set.
func SummarizeGrades(submissions []models.Submission) dto.GradeSummaryResponse {
	return dto.GradeSummaryResponse{
		AverageGrade:   AverageGrade(submissions),
		CompletionRate: CompletionRate(submissions),
		GradedCount:    countGraded(submissions),
		TotalCount:     len(submissions),
	}
}

func countGraded(submissions []models.Submission) int {
	graded := 0
	for _, submission := range submissions {
		if submission.IsGraded() {
			graded++
		}
	}
	return graded
}

// GradeSummaryInvalidator drops cached summaries after a write.
type GradeSummaryInvalidator interface {
	Invalidate(ctx context.Context, studentID uuid.UUID)
}

// GradeSummaryService serves per-student and per-course grade aggregates.
type GradeSummaryService interface {
	GradeSummaryInvalidator
	ForStudent(ctx context.Context, studentID uuid.UUID) (dto.GradeSummaryResponse, error)
	ForCourse(ctx context.Context, teacherID, courseID uuid.UUID) (dto.GradeSummaryResponse, error)
}

type gradeSummaryService struct {
	access      courseAccess
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewGradeSummaryService builds the calculator. A nil cache disables caching.
func NewGradeSummaryService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GradeSummaryService {
	return &gradeSummaryService{
		access:      courseAccess{courses: courses, enrollments: enrollments},
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "grade_summary_service").Logger(),
	}
}

func summaryCacheKey(studentID uuid.UUID) string {
	return fmt.Sprintf("grades:summary:student:%s", studentID)
}

func (s *gradeSummaryService) ForStudent(ctx context.Context, studentID uuid.UUID) (dto.GradeSummaryResponse, error) {
	cacheKey := summaryCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradeSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.SummaryCache().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read grade summary cache")
		}
		observability.SummaryCache().WithLabelValues("miss").Inc()
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.GradeSummaryResponse{}, err
	}

	response := SummarizeGrades(submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store grade summary cache")
			}
		}
	}

	return response, nil
}

func (s *gradeSummaryService) ForCourse(ctx context.Context, teacherID, courseID uuid.UUID) (dto.GradeSummaryResponse, error) {
	if _, err := s.access.owned(ctx, teacherID, courseID); err != nil {
		return dto.GradeSummaryResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{CourseIDs: []uuid.UUID{courseID}})
	if err != nil {
		return dto.GradeSummaryResponse{}, err
	}

	return SummarizeGrades(submissions), nil
}

func (s *gradeSummaryService) Invalidate(ctx context.Context, studentID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("student_id", studentID.String()).Msg("failed to invalidate grade summary cache")
	}
}
