package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresCourseRepository implements repository.CourseRepository using gorm.
type postgresCourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) repository.CourseRepository {
	return &postgresCourseRepository{db: db}
}

func (r *postgresCourseRepository) Create(ctx context.Context, course *domain.Course) error {
	if course.Title == "" || course.NamespaceID == "" {
		return errors.New("course title and namespace id are required")
	}
	err := r.db.WithContext(ctx).Create(course).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrConflict
	}
	return err
}

func (r *postgresCourseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *postgresCourseRepository) List(ctx context.Context, limit, offset int) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error
	return courses, err
}

func (r *postgresCourseRepository) Update(ctx context.Context, id, title, description string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postgresCourseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Course{}, "id = ?", id).Error
}
