package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type QualityTestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, test *types.QualityTest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QualityTest, error)
	ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.QualityTest, error)
	ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.QualityTest, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type qualityTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQualityTestRepo(db *gorm.DB, baseLog *logger.Logger) QualityTestRepo {
	repoLog := baseLog.With("repo", "QualityTestRepo")
	return &qualityTestRepo{db: db, log: repoLog}
}

func (r *qualityTestRepo) Create(ctx context.Context, tx *gorm.DB, test *types.QualityTest) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(test).Error; err != nil {
		return storageErr("creating quality test", err)
	}
	return nil
}

func (r *qualityTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QualityTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.QualityTest
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading quality test", err)
	}
	return &result, nil
}

func (r *qualityTestRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.QualityTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.QualityTest
	if batchCode == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("batch_code = ?", batchCode).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing quality tests by batch code", err)
	}
	return results, nil
}

func (r *qualityTestRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.QualityTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.QualityTest
	if err := transaction.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing quality tests before cutoff", err)
	}
	return results, nil
}

func (r *qualityTestRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.QualityTest{}).
		Count(&count).Error; err != nil {
		return 0, storageErr("counting quality tests", err)
	}
	return count, nil
}
