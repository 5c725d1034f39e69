package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresLearnerRepository implements repository.LearnerRepository using gorm.
type postgresLearnerRepository struct {
	db *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) repository.LearnerRepository {
	return &postgresLearnerRepository{db: db}
}

func (r *postgresLearnerRepository) Enroll(ctx context.Context, userID, courseID string) error {
	enrollment := domain.CourseEnrollment{UserID: userID, CourseID: courseID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error
}

func (r *postgresLearnerRepository) Favorite(ctx context.Context, userID, courseID string) error {
	favorite := domain.Favorite{UserID: userID, CourseID: courseID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&favorite).Error
}

func (r *postgresLearnerRepository) Unfavorite(ctx context.Context, userID, courseID string) error {
	return r.db.WithContext(ctx).
		Delete(&domain.Favorite{}, "user_id = ? AND course_id = ?", userID, courseID).Error
}

func (r *postgresLearnerRepository) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *postgresLearnerRepository) IsFavorite(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *postgresLearnerRepository) DeleteEnrollmentsByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&domain.CourseEnrollment{}, "course_id = ?", courseID).Error
}

func (r *postgresLearnerRepository) DeleteFavoritesByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&domain.Favorite{}, "course_id = ?", courseID).Error
}

// UpsertProgress writes the (user, video) watch state. Last-write-wins by
// default; the monotonic variant never lets watchedSeconds shrink and keeps
// completed sticky once set.
func (r *postgresLearnerRepository) UpsertProgress(ctx context.Context, p *domain.VideoProgress, monotonic bool) error {
	p.LastWatchedAt = time.Now().UTC()

	if !monotonic {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"watched_seconds", "completed", "last_watched_at"}),
			}).
			Create(p).Error
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"watched_seconds": gorm.Expr("GREATEST(video_progresses.watched_seconds, EXCLUDED.watched_seconds)"),
				"completed":       gorm.Expr("video_progresses.completed OR EXCLUDED.completed"),
				"last_watched_at": p.LastWatchedAt,
			}),
		}).
		Create(p).Error
}

func (r *postgresLearnerRepository) GetProgress(ctx context.Context, userID, videoID string) (*domain.VideoProgress, error) {
	var progress domain.VideoProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}
