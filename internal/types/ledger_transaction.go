package types

import (
	"time"

	"github.com/google/uuid"
)

type TxKind string

const (
	TxCollection  TxKind = "collection"
	TxProcessing  TxKind = "processing"
	TxTesting     TxKind = "testing"
	TxFormulation TxKind = "formulation"
)

// LedgerTransaction is one link in a subject key's hash chain. PreviousHash is
// the DataHash of the prior link (or the genesis sentinel), LinkHash binds the
// two together, and SequenceNumber is 0-based and gap-free per subject key.
// EventID carries the idempotency guarantee: one chain link per event record.
type LedgerTransaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectKey     string    `gorm:"not null;index:idx_ledger_subject_seq,unique,priority:1;column:subject_key" json:"subject_key"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:event_id" json:"event_id"`
	Kind           TxKind    `gorm:"type:varchar(20);not null;column:kind" json:"kind"`
	DataHash       string    `gorm:"not null;column:data_hash" json:"data_hash"`
	PreviousHash   string    `gorm:"not null;column:previous_hash" json:"previous_hash"`
	LinkHash       string    `gorm:"not null;column:link_hash" json:"link_hash"`
	SequenceNumber int64     `gorm:"not null;index:idx_ledger_subject_seq,unique,priority:2;column:sequence_number" json:"sequence_number"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transaction"
}
