package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresModuleRepository implements repository.ModuleRepository using gorm.
type postgresModuleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) repository.ModuleRepository {
	return &postgresModuleRepository{db: db}
}

// Create inserts the module with position = max(position)+1 within the course.
func (r *postgresModuleRepository) Create(ctx context.Context, module *domain.Module) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		err := tx.Model(&domain.Module{}).
			Where("course_id = ?", module.CourseID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxOrder).Error
		if err != nil {
			return err
		}
		module.Order = maxOrder + 1
		return tx.Create(module).Error
	})
}

func (r *postgresModuleRepository) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	var module domain.Module
	err := r.db.WithContext(ctx).First(&module, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *postgresModuleRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Module, error) {
	var modules []domain.Module
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&modules).Error
	return modules, err
}

func (r *postgresModuleRepository) IDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Module{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *postgresModuleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Module{}, "id = ?", id).Error
}

func (r *postgresModuleRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&domain.Module{}, "course_id = ?", courseID).Error
}
