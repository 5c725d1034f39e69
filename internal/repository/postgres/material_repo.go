package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresMaterialRepository implements repository.MaterialRepository using gorm.
type postgresMaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) repository.MaterialRepository {
	return &postgresMaterialRepository{db: db}
}

func (r *postgresMaterialRepository) CreateMaterial(ctx context.Context, m *domain.CourseMaterial) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *postgresMaterialRepository) ListMaterials(ctx context.Context, courseID string) ([]domain.CourseMaterial, error) {
	var materials []domain.CourseMaterial
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&materials).Error
	return materials, err
}

func (r *postgresMaterialRepository) MaterialFileIDs(ctx context.Context, courseID string, materialIDs []string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.CourseMaterial{}).
		Where("course_id = ? AND id IN ? AND file_id <> ''", courseID, materialIDs).
		Pluck("file_id", &ids).Error
	return ids, err
}

func (r *postgresMaterialRepository) DeleteMaterials(ctx context.Context, courseID string, materialIDs []string) error {
	if len(materialIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&domain.CourseMaterial{}, "course_id = ? AND id IN ?", courseID, materialIDs).Error
}

func (r *postgresMaterialRepository) DeleteMaterialsByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&domain.CourseMaterial{}, "course_id = ?", courseID).Error
}

func (r *postgresMaterialRepository) CreateThumbnail(ctx context.Context, t *domain.CourseThumbnail) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *postgresMaterialRepository) ListThumbnails(ctx context.Context, courseID string) ([]domain.CourseThumbnail, error) {
	var thumbnails []domain.CourseThumbnail
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&thumbnails).Error
	return thumbnails, err
}

func (r *postgresMaterialRepository) LatestThumbnail(ctx context.Context, courseID string) (*domain.CourseThumbnail, error) {
	var thumbnail domain.CourseThumbnail
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		First(&thumbnail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &thumbnail, nil
}

func (r *postgresMaterialRepository) DeleteThumbnailByFileID(ctx context.Context, courseID, fileID string) error {
	result := r.db.WithContext(ctx).
		Delete(&domain.CourseThumbnail{}, "course_id = ? AND file_id = ?", courseID, fileID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postgresMaterialRepository) DeleteThumbnailsByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&domain.CourseThumbnail{}, "course_id = ?", courseID).Error
}
