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

type ProcessingStepRepo interface {
	Create(ctx context.Context, tx *gorm.DB, step *types.ProcessingStep) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProcessingStep, error)
	ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.ProcessingStep, error)
	ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.ProcessingStep, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type processingStepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingStepRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingStepRepo {
	repoLog := baseLog.With("repo", "ProcessingStepRepo")
	return &processingStepRepo{db: db, log: repoLog}
}

func (r *processingStepRepo) Create(ctx context.Context, tx *gorm.DB, step *types.ProcessingStep) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(step).Error; err != nil {
		return storageErr("creating processing step", err)
	}
	return nil
}

func (r *processingStepRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProcessingStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ProcessingStep
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading processing step", err)
	}
	return &result, nil
}

func (r *processingStepRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.ProcessingStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProcessingStep
	if batchCode == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("batch_code = ?", batchCode).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing processing steps by batch code", err)
	}
	return results, nil
}

func (r *processingStepRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.ProcessingStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProcessingStep
	if err := transaction.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing processing steps before cutoff", err)
	}
	return results, nil
}

func (r *processingStepRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProcessingStep{}).
		Count(&count).Error; err != nil {
		return 0, storageErr("counting processing steps", err)
	}
	return count, nil
}
