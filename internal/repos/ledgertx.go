package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// LedgerTxRepo stores chain transactions. Append-only: rows are never updated
// or removed. GetLastBySubjectKey is the "read highest sequence for key" the
// append protocol is built on; the caller is responsible for serializing the
// read-modify-write per subject key.
type LedgerTxRepo interface {
	Create(ctx context.Context, tx *gorm.DB, transaction *types.LedgerTransaction) error
	GetByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.LedgerTransaction, error)
	GetLastBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) (*types.LedgerTransaction, error)
	ListBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) ([]*types.LedgerTransaction, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type ledgerTxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerTxRepo(db *gorm.DB, baseLog *logger.Logger) LedgerTxRepo {
	repoLog := baseLog.With("repo", "LedgerTxRepo")
	return &ledgerTxRepo{db: db, log: repoLog}
}

func (r *ledgerTxRepo) Create(ctx context.Context, tx *gorm.DB, transaction *types.LedgerTransaction) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(transaction).Error; err != nil {
		// Unique-index violations stay unwrapped: the appender reads them as
		// an append conflict, not an outage.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		return storageErr("creating ledger transaction", err)
	}
	return nil
}

func (r *ledgerTxRepo) GetByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.LedgerTransaction, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var result types.LedgerTransaction
	if err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading ledger transaction by event id", err)
	}
	return &result, nil
}

func (r *ledgerTxRepo) GetLastBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) (*types.LedgerTransaction, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var result types.LedgerTransaction
	if err := db.WithContext(ctx).
		Where("subject_key = ?", subjectKey).
		Order("sequence_number DESC").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("reading last ledger transaction", err)
	}
	return &result, nil
}

func (r *ledgerTxRepo) ListBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) ([]*types.LedgerTransaction, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var results []*types.LedgerTransaction
	if subjectKey == "" {
		return results, nil
	}

	if err := db.WithContext(ctx).
		Where("subject_key = ?", subjectKey).
		Order("sequence_number ASC").
		Find(&results).Error; err != nil {
		return nil, storageErr("listing ledger transactions", err)
	}
	return results, nil
}

func (r *ledgerTxRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var count int64
	if err := db.WithContext(ctx).
		Model(&types.LedgerTransaction{}).
		Count(&count).Error; err != nil {
		return 0, storageErr("counting ledger transactions", err)
	}
	return count, nil
}
