package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
)

// postgresIntentRepository implements repository.IntentRepository using gorm.
type postgresIntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) repository.IntentRepository {
	return &postgresIntentRepository{db: db}
}

func (r *postgresIntentRepository) Create(ctx context.Context, intent *domain.StorageIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *postgresIntentRepository) MarkResolved(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.IntentStatusResolved)
}

func (r *postgresIntentRepository) MarkAborted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.IntentStatusAborted)
}

func (r *postgresIntentRepository) setStatus(ctx context.Context, id string, status domain.IntentStatus) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&domain.StorageIntent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "resolved_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postgresIntentRepository) MarkResolvedByFileID(ctx context.Context, fileID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&domain.StorageIntent{}).
		Where("file_id = ? AND status = ?", fileID, domain.IntentStatusPending).
		Updates(map[string]interface{}{"status": domain.IntentStatusResolved, "resolved_at": now}).Error
}

func (r *postgresIntentRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.StorageIntent, error) {
	var intents []domain.StorageIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.IntentStatusPending, cutoff).
		Order("created_at ASC").
		Find(&intents).Error
	return intents, err
}
