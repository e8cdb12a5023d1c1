package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// ReconcilerService closes the gap between the two durable write steps: an
// event record whose chain append failed (crash, storage outage) is detected
// and its ledger transaction completed. Appends are idempotent on event id,
// so sweeping an already-chained event is a no-op.
type ReconcilerService interface {
	// Sweep runs one pass and reports how many chain entries it completed.
	Sweep(ctx context.Context) (int, error)
	// Start runs Sweep on the configured interval until ctx is cancelled.
	Start(ctx context.Context)
}

type reconcilerService struct {
	log       *logger.Logger
	eventRepo repos.CollectionEventRepo
	stepRepo  repos.ProcessingStepRepo
	testRepo  repos.QualityTestRepo
	prodRepo  repos.ProductRepo
	txRepo    repos.LedgerTxRepo
	appender  ledger.Appender
	interval  time.Duration
	grace     time.Duration
}

func NewReconcilerService(log *logger.Logger, eventRepo repos.CollectionEventRepo, stepRepo repos.ProcessingStepRepo, testRepo repos.QualityTestRepo, prodRepo repos.ProductRepo, txRepo repos.LedgerTxRepo, appender ledger.Appender, interval, grace time.Duration) ReconcilerService {
	serviceLog := log.With("service", "ReconcilerService")
	return &reconcilerService{
		log:       serviceLog,
		eventRepo: eventRepo,
		stepRepo:  stepRepo,
		testRepo:  testRepo,
		prodRepo:  prodRepo,
		txRepo:    txRepo,
		appender:  appender,
		interval:  interval,
		grace:     grace,
	}
}

func (s *reconcilerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info("Reconciler started", "interval", s.interval, "grace", s.grace)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reconciler stopped")
			return
		case <-ticker.C:
			completed, err := s.Sweep(ctx)
			if err != nil {
				s.log.Warn("Reconciler sweep failed", "error", err)
				continue
			}
			if completed > 0 {
				s.log.Info("Reconciler completed missing chain entries", "count", completed)
			}
		}
	}
}

func (s *reconcilerService) Sweep(ctx context.Context) (int, error) {
	// The grace window keeps the sweep from racing appends that are still
	// in flight on the write path.
	cutoff := time.Now().UTC().Add(-s.grace)
	completed := 0

	events, err := s.eventRepo.ListCreatedBefore(ctx, nil, cutoff)
	if err != nil {
		return completed, err
	}
	for _, event := range events {
		done, err := s.complete(ctx, event.BatchCode, types.TxCollection, event.ID, event)
		if err != nil {
			return completed, err
		}
		if done {
			completed++
		}
	}

	steps, err := s.stepRepo.ListCreatedBefore(ctx, nil, cutoff)
	if err != nil {
		return completed, err
	}
	for _, step := range steps {
		done, err := s.complete(ctx, step.BatchCode, types.TxProcessing, step.ID, step)
		if err != nil {
			return completed, err
		}
		if done {
			completed++
		}
	}

	tests, err := s.testRepo.ListCreatedBefore(ctx, nil, cutoff)
	if err != nil {
		return completed, err
	}
	for _, test := range tests {
		done, err := s.complete(ctx, test.BatchCode, types.TxTesting, test.ID, test)
		if err != nil {
			return completed, err
		}
		if done {
			completed++
		}
	}

	products, err := s.prodRepo.ListCreatedBefore(ctx, nil, cutoff)
	if err != nil {
		return completed, err
	}
	for _, product := range products {
		done, err := s.complete(ctx, product.BatchCode, types.TxFormulation, product.ID, product)
		if err != nil {
			return completed, err
		}
		if done {
			completed++
		}
	}

	return completed, nil
}

func (s *reconcilerService) complete(ctx context.Context, subjectKey string, kind types.TxKind, eventID uuid.UUID, record canonical.Encodable) (bool, error) {
	existing, err := s.txRepo.GetByEventID(ctx, nil, eventID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	s.log.Warn("Event record missing its chain entry, completing append",
		"event_id", eventID, "subject_key", subjectKey, "kind", kind)
	if _, err := s.appender.Append(ctx, subjectKey, kind, eventID, record); err != nil {
		return false, err
	}
	return true, nil
}
