package postgres

import (
	"context"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresVideoRepository implements repository.VideoRepository using gorm.
type postgresVideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) repository.VideoRepository {
	return &postgresVideoRepository{db: db}
}

func (r *postgresVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *postgresVideoRepository) ListByModule(ctx context.Context, moduleID string) ([]domain.Video, error) {
	var videos []domain.Video
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("created_at ASC").
		Find(&videos).Error
	return videos, err
}

func (r *postgresVideoRepository) FileIDsByModule(ctx context.Context, moduleID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Video{}).
		Where("module_id = ? AND file_id <> ''", moduleID).
		Pluck("file_id", &ids).Error
	return ids, err
}

func (r *postgresVideoRepository) DeleteByModuleIDs(ctx context.Context, moduleIDs []string) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&domain.Video{}, "module_id IN ?", moduleIDs).Error
}

func (r *postgresVideoRepository) DeleteByFileIDs(ctx context.Context, moduleID string, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&domain.Video{}, "module_id = ? AND file_id IN ?", moduleID, fileIDs).Error
}

// Search joins videos with module, course and the newest course thumbnail for
// the instructor's video library view.
func (r *postgresVideoRepository) Search(ctx context.Context, instructorID, query string, limit, offset int) ([]repository.VideoListing, error) {
	var rows []repository.VideoListing

	q := r.db.WithContext(ctx).
		Table("videos").
		Select(`videos.*,
			modules.title AS module_title,
			courses.id AS course_id,
			courses.title AS course_title,
			(SELECT file_id FROM course_thumbnails ct
				WHERE ct.course_id = courses.id
				ORDER BY ct.created_at DESC LIMIT 1) AS thumbnail_file_id`).
		Joins("LEFT JOIN modules ON videos.module_id = modules.id").
		Joins("LEFT JOIN courses ON modules.course_id = courses.id").
		Where("courses.instructor_id = ?", instructorID)

	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("videos.title ILIKE ? OR videos.description ILIKE ? OR courses.title ILIKE ?",
			pattern, pattern, pattern)
	}

	err := q.Order("videos.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}
