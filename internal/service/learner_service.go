package service

import (
	"context"
	"errors"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrInvalidFavoriteAction = errors.New("favorite action must be 'favorite' or 'unfavorite'")
)

// LearnerService covers the viewer-side state: enrollments, favorites and
// watch progress.
type LearnerService interface {
	Enroll(ctx context.Context, userID, courseID string) error
	SetFavorite(ctx context.Context, userID, courseID, action string) error

	// RecordProgress upserts the (user, video) watch state. By default the
	// incoming values win unconditionally; in monotonic mode watchedSeconds
	// never shrinks and completed is sticky.
	RecordProgress(ctx context.Context, userID, videoID string, watchedSeconds int, completed bool) error
	GetProgress(ctx context.Context, userID, videoID string) (*domain.VideoProgress, error)
}

type learnerService struct {
	learnerRepo repository.LearnerRepository
	courseRepo  repository.CourseRepository
	monotonic   bool
}

// NewLearnerService creates a new instance of learnerService.
func NewLearnerService(learnerRepo repository.LearnerRepository, courseRepo repository.CourseRepository, monotonic bool) LearnerService {
	return &learnerService{
		learnerRepo: learnerRepo,
		courseRepo:  courseRepo,
		monotonic:   monotonic,
	}
}

func (s *learnerService) Enroll(ctx context.Context, userID, courseID string) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return s.learnerRepo.Enroll(ctx, userID, courseID)
}

func (s *learnerService) SetFavorite(ctx context.Context, userID, courseID, action string) error {
	switch action {
	case "favorite":
		return s.learnerRepo.Favorite(ctx, userID, courseID)
	case "unfavorite":
		return s.learnerRepo.Unfavorite(ctx, userID, courseID)
	default:
		return ErrInvalidFavoriteAction
	}
}

func (s *learnerService) RecordProgress(ctx context.Context, userID, videoID string, watchedSeconds int, completed bool) error {
	progress := &domain.VideoProgress{
		UserID:         userID,
		VideoID:        videoID,
		WatchedSeconds: watchedSeconds,
		Completed:      completed,
	}
	return s.learnerRepo.UpsertProgress(ctx, progress, s.monotonic)
}

func (s *learnerService) GetProgress(ctx context.Context, userID, videoID string) (*domain.VideoProgress, error) {
	return s.learnerRepo.GetProgress(ctx, userID, videoID)
}
