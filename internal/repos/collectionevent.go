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

// CollectionEventRepo stores harvest records. There are deliberately no
// update or delete methods: event records are immutable once created.
type CollectionEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.CollectionEvent) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CollectionEvent, error)
	ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.CollectionEvent, error)
	ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.CollectionEvent, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CollectionEvent, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type collectionEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionEventRepo(db *gorm.DB, baseLog *logger.Logger) CollectionEventRepo {
	repoLog := baseLog.With("repo", "CollectionEventRepo")
	return &collectionEventRepo{db: db, log: repoLog}
}

func (r *collectionEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.CollectionEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		return storageErr("creating collection event", err)
	}
	return nil
}

func (r *collectionEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CollectionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.CollectionEvent
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading collection event", err)
	}
	return &result, nil
}

func (r *collectionEventRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.CollectionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CollectionEvent
	if batchCode == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("batch_code = ?", batchCode).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing collection events by batch code", err)
	}
	return results, nil
}

func (r *collectionEventRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.CollectionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CollectionEvent
	if err := transaction.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing collection events before cutoff", err)
	}
	return results, nil
}

func (r *collectionEventRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CollectionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CollectionEvent
	if limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, storageErr("listing recent collection events", err)
	}
	return results, nil
}

func (r *collectionEventRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CollectionEvent{}).
		Count(&count).Error; err != nil {
		return 0, storageErr("counting collection events", err)
	}
	return count, nil
}
