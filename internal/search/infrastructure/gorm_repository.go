package infrastructure

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/pkg/application"
)

type gormSearchRepository struct {
	db     *gorm.DB
	logger application.AppLogger
}

// NewGormSearchRepository opens the postgres store and migrates the
// search_records table. Every returned error from the repository methods is
// retryable by the caller; only FindAll at startup is treated as fatal.
func NewGormSearchRepository(dsn string, logger application.AppLogger) (domain.SearchRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening search store: %w", err)
	}

	if err = db.AutoMigrate(&domain.SearchRecord{}); err != nil {
		return nil, fmt.Errorf("migrating search store: %w", err)
	}

	return &gormSearchRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormSearchRepository) Save(ctx context.Context, record domain.SearchRecord) error {
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to save search record", err, map[string]interface{}{
			"search_id": record.ID,
		})
		return err
	}
	return nil
}

// Update writes the full row so counters going back to zero are persisted.
func (r *gormSearchRepository) Update(ctx context.Context, record domain.SearchRecord) error {
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to checkpoint search record", err, map[string]interface{}{
			"search_id": record.ID,
		})
		return err
	}
	return nil
}

func (r *gormSearchRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.SearchRecord{}, "id = ?", id).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to delete search record", err, map[string]interface{}{
			"search_id": id,
		})
		return err
	}
	return nil
}

func (r *gormSearchRepository) FindAll(ctx context.Context) ([]domain.SearchRecord, error) {
	var records []domain.SearchRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to list search records", err, nil)
		return nil, err
	}
	return records, nil
}

func (r *gormSearchRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.SearchRecord, error) {
	var records []domain.SearchRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to list user search records", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return records, nil
}
