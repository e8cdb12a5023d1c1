// Package ledger implements the hash-chain append protocol. Every subject key
// owns one ordered, gap-free chain of transactions; appends to one key are
// serialized, appends to different keys proceed independently.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// GenesisHash is the previous_hash of the first transaction of a new subject
// key.
const GenesisHash = "0"

// ErrAppendConflict reports a write collision on a subject key's chain. The
// in-process keyed mutex makes this unreachable for a single writer process;
// it surfaces when a second process races on the same backing store. Callers
// retry the whole append.
var ErrAppendConflict = errors.New("ledger: concurrent append conflict")

type Appender interface {
	// Append links a new transaction onto subjectKey's chain. Idempotent on
	// eventID: appending the same event twice returns the existing
	// transaction without creating a duplicate link.
	Append(ctx context.Context, subjectKey string, kind types.TxKind, eventID uuid.UUID, record canonical.Encodable) (*types.LedgerTransaction, error)
	// Verify walks subjectKey's chain in sequence order and recomputes every
	// link hash against the stored data and previous hashes.
	Verify(ctx context.Context, subjectKey string) (*VerifyResult, error)
}

type VerifyResult struct {
	SubjectKey string `json:"subject_key"`
	Length     int    `json:"length"`
	Valid      bool   `json:"valid"`
	BrokenAt   *int64 `json:"broken_at,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type appender struct {
	log    *logger.Logger
	txRepo repos.LedgerTxRepo
	locks  *keyedMutex
}

func NewAppender(txRepo repos.LedgerTxRepo, baseLog *logger.Logger) Appender {
	return &appender{
		log:    baseLog.With("service", "LedgerAppender"),
		txRepo: txRepo,
		locks:  newKeyedMutex(),
	}
}

func (a *appender) Append(ctx context.Context, subjectKey string, kind types.TxKind, eventID uuid.UUID, record canonical.Encodable) (*types.LedgerTransaction, error) {
	if subjectKey == "" {
		return nil, fmt.Errorf("ledger: subject key is required")
	}
	if eventID == uuid.Nil {
		return nil, fmt.Errorf("ledger: event id is required")
	}

	ctx, span := otel.Tracer("ledger").Start(ctx, "ledger.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.subject_key", subjectKey),
		attribute.String("ledger.kind", string(kind)),
	)

	// Hash outside the lock; digests are pure.
	dataHash, err := canonical.Digest(record)
	if err != nil {
		return nil, fmt.Errorf("ledger: hashing event %s: %w", eventID, err)
	}

	unlock := a.locks.Lock(subjectKey)
	defer unlock()

	// Replay of an already-chained event is a no-op.
	existing, err := a.txRepo.GetByEventID(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("ledger: reading existing transaction for event %s: %w", eventID, err)
	}
	if existing != nil {
		a.log.Debug("Append replay detected, returning existing transaction",
			"subject_key", subjectKey, "event_id", eventID, "sequence", existing.SequenceNumber)
		return existing, nil
	}

	last, err := a.txRepo.GetLastBySubjectKey(ctx, nil, subjectKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: reading last transaction for %q: %w", subjectKey, err)
	}

	previousHash := GenesisHash
	var sequence int64
	if last != nil {
		previousHash = last.DataHash
		sequence = last.SequenceNumber + 1
	}

	linkHash, err := canonical.DigestFields(map[string]any{
		"data_hash":     dataHash,
		"previous_hash": previousHash,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: hashing link for %q: %w", subjectKey, err)
	}

	transaction := &types.LedgerTransaction{
		ID:             uuid.New(),
		SubjectKey:     subjectKey,
		EventID:        eventID,
		Kind:           kind,
		DataHash:       dataHash,
		PreviousHash:   previousHash,
		LinkHash:       linkHash,
		SequenceNumber: sequence,
		CreatedAt:      time.Now().UTC(),
	}

	if err := a.txRepo.Create(ctx, nil, transaction); err != nil {
		// A unique-index violation on event_id means another process chained
		// this event between our read and write; return its transaction.
		replay, replayErr := a.txRepo.GetByEventID(ctx, nil, eventID)
		if replayErr == nil && replay != nil {
			return replay, nil
		}
		// A storage outage is not a conflict; the write made no durable
		// change and the caller may retry once the store is back.
		if errors.Is(err, repos.ErrStorageUnavailable) {
			return nil, fmt.Errorf("ledger: appending to %q: %w", subjectKey, err)
		}
		return nil, fmt.Errorf("%w: subject %q sequence %d: %v", ErrAppendConflict, subjectKey, sequence, err)
	}

	a.log.Info("Ledger transaction appended",
		"subject_key", subjectKey, "kind", kind, "sequence", sequence, "event_id", eventID)
	return transaction, nil
}

func (a *appender) Verify(ctx context.Context, subjectKey string) (*VerifyResult, error) {
	chain, err := a.txRepo.ListBySubjectKey(ctx, nil, subjectKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: listing chain for %q: %w", subjectKey, err)
	}

	result := &VerifyResult{SubjectKey: subjectKey, Length: len(chain), Valid: true}

	previousHash := GenesisHash
	for i, transaction := range chain {
		if transaction.SequenceNumber != int64(i) {
			return broken(result, transaction.SequenceNumber,
				fmt.Sprintf("expected sequence %d, found %d", i, transaction.SequenceNumber)), nil
		}
		if transaction.PreviousHash != previousHash {
			return broken(result, transaction.SequenceNumber,
				"previous_hash does not match the prior transaction's data_hash"), nil
		}
		expectedLink, err := canonical.DigestFields(map[string]any{
			"data_hash":     transaction.DataHash,
			"previous_hash": transaction.PreviousHash,
		})
		if err != nil {
			return nil, fmt.Errorf("ledger: recomputing link at sequence %d: %w", transaction.SequenceNumber, err)
		}
		if expectedLink != transaction.LinkHash {
			return broken(result, transaction.SequenceNumber,
				"link_hash does not match recomputed digest"), nil
		}
		previousHash = transaction.DataHash
	}
	return result, nil
}

func broken(result *VerifyResult, sequence int64, reason string) *VerifyResult {
	result.Valid = false
	result.BrokenAt = &sequence
	result.Reason = reason
	return result
}
