package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	redisclient "github.com/herbtrace/herbtrace-backend/internal/clients/redis"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// ErrProductNotFound is returned when an identifier resolves to no product.
// Surfaced as-is, never retried.
var ErrProductNotFound = errors.New("product not found")

// TraceService is the stateless read side: it assembles a product's full
// lineage from the entity stores and the ledger. It performs no writes.
type TraceService interface {
	// Trace resolves an identifier against products by primary id first and
	// batch code second (an id match always wins), then gathers every event
	// and chain transaction recorded under the product's batch code. Missing
	// history is valid: the sequences come back empty, not as an error.
	Trace(ctx context.Context, identifier string) (*types.ProductTrace, error)
	// VerifyChain resolves an identifier the same way and recomputes the
	// chain's link hashes to confirm it is unbroken.
	VerifyChain(ctx context.Context, identifier string) (*ledger.VerifyResult, error)
}

type traceService struct {
	log         *logger.Logger
	productRepo repos.ProductRepo
	eventRepo   repos.CollectionEventRepo
	stepRepo    repos.ProcessingStepRepo
	testRepo    repos.QualityTestRepo
	txRepo      repos.LedgerTxRepo
	appender    ledger.Appender
	cache       redisclient.TraceCache
}

func NewTraceService(log *logger.Logger, productRepo repos.ProductRepo, eventRepo repos.CollectionEventRepo, stepRepo repos.ProcessingStepRepo, testRepo repos.QualityTestRepo, txRepo repos.LedgerTxRepo, appender ledger.Appender, cache redisclient.TraceCache) TraceService {
	serviceLog := log.With("service", "TraceService")
	return &traceService{
		log:         serviceLog,
		productRepo: productRepo,
		eventRepo:   eventRepo,
		stepRepo:    stepRepo,
		testRepo:    testRepo,
		txRepo:      txRepo,
		appender:    appender,
		cache:       cache,
	}
}

func (s *traceService) Trace(ctx context.Context, identifier string) (*types.ProductTrace, error) {
	product, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	batchCode := product.BatchCode

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, batchCode); ok {
			s.log.Debug("Trace served from cache", "batch_code", batchCode)
			return cached, nil
		}
	}

	trace := &types.ProductTrace{
		Product:            product,
		CollectionEvents:   []*types.CollectionEvent{},
		ProcessingSteps:    []*types.ProcessingStep{},
		QualityTests:       []*types.QualityTest{},
		LedgerTransactions: []*types.LedgerTransaction{},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		events, err := s.eventRepo.ListByBatchCode(groupCtx, nil, batchCode)
		if err != nil {
			return fmt.Errorf("fetching collection events: %w", err)
		}
		if events != nil {
			trace.CollectionEvents = events
		}
		return nil
	})
	group.Go(func() error {
		steps, err := s.stepRepo.ListByBatchCode(groupCtx, nil, batchCode)
		if err != nil {
			return fmt.Errorf("fetching processing steps: %w", err)
		}
		if steps != nil {
			trace.ProcessingSteps = steps
		}
		return nil
	})
	group.Go(func() error {
		tests, err := s.testRepo.ListByBatchCode(groupCtx, nil, batchCode)
		if err != nil {
			return fmt.Errorf("fetching quality tests: %w", err)
		}
		if tests != nil {
			trace.QualityTests = tests
		}
		return nil
	})
	group.Go(func() error {
		transactions, err := s.txRepo.ListBySubjectKey(groupCtx, nil, batchCode)
		if err != nil {
			return fmt.Errorf("fetching ledger transactions: %w", err)
		}
		if transactions != nil {
			trace.LedgerTransactions = transactions
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, batchCode, trace)
	}

	s.log.Debug("Trace assembled",
		"batch_code", batchCode,
		"collections", len(trace.CollectionEvents),
		"processing", len(trace.ProcessingSteps),
		"tests", len(trace.QualityTests),
		"transactions", len(trace.LedgerTransactions))
	return trace, nil
}

func (s *traceService) VerifyChain(ctx context.Context, identifier string) (*ledger.VerifyResult, error) {
	product, err := s.resolve(ctx, identifier)
	if err != nil {
		// Chains accumulate before any product is formulated. When nothing
		// resolves, verify the identifier as a chain key directly.
		if errors.Is(err, ErrProductNotFound) {
			return s.appender.Verify(ctx, identifier)
		}
		return nil, err
	}
	return s.appender.Verify(ctx, product.BatchCode)
}

func (s *traceService) resolve(ctx context.Context, identifier string) (*types.Product, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		product, err := s.productRepo.GetByID(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("resolving product id %q: %w", identifier, err)
		}
		if product != nil {
			return product, nil
		}
	}
	product, err := s.productRepo.GetByBatchCode(ctx, nil, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolving batch code %q: %w", identifier, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %q", ErrProductNotFound, identifier)
	}
	return product, nil
}
