package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresUserRepository implements repository.UserRepository using gorm.
type postgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &postgresUserRepository{db: db}
}

// Create inserts a new user. Duplicate email or external id maps to
// ErrConflict so the first-login race resolves to "already exists".
func (r *postgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Email == "" || user.Role == "" {
		return errors.New("user email and role are required")
	}
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of update. An empty update still
// reports ErrNotFound for unknown users.
func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id string, update repository.ProfileUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Website != nil {
		fields["website"] = *update.Website
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
	}
	if update.Location != nil {
		fields["location"] = *update.Location
	}
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postgresUserRepository) GetByExternalIDOrEmail(ctx context.Context, externalID, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("external_id = ? OR email = ?", externalID, email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
