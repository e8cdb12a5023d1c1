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

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, product *types.Product) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error)
	GetByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) (*types.Product, error)
	ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Product, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(product).Error; err != nil {
		return storageErr("creating product", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading product by id", err)
	}
	return &result, nil
}

func (r *productRepo) GetByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if batchCode == "" {
		return nil, nil
	}

	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("batch_code = ?", batchCode).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading product by batch code", err)
	}
	return &result, nil
}

func (r *productRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing products before cutoff", err)
	}
	return results, nil
}

func (r *productRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Product
	if limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, storageErr("listing recent products", err)
	}
	return results, nil
}

func (r *productRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Count(&count).Error; err != nil {
		return 0, storageErr("counting products", err)
	}
	return count, nil
}
