package services

import (
	"context"
	"fmt"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

const recentLimit = 5

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*types.Dashboard, error)
}

type analyticsService struct {
	log         *logger.Logger
	eventRepo   repos.CollectionEventRepo
	stepRepo    repos.ProcessingStepRepo
	testRepo    repos.QualityTestRepo
	productRepo repos.ProductRepo
	txRepo      repos.LedgerTxRepo
}

func NewAnalyticsService(log *logger.Logger, eventRepo repos.CollectionEventRepo, stepRepo repos.ProcessingStepRepo, testRepo repos.QualityTestRepo, productRepo repos.ProductRepo, txRepo repos.LedgerTxRepo) AnalyticsService {
	serviceLog := log.With("service", "AnalyticsService")
	return &analyticsService{
		log:         serviceLog,
		eventRepo:   eventRepo,
		stepRepo:    stepRepo,
		testRepo:    testRepo,
		productRepo: productRepo,
		txRepo:      txRepo,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context) (*types.Dashboard, error) {
	dashboard := &types.Dashboard{
		RecentCollections: []*types.CollectionEvent{},
		RecentProducts:    []*types.Product{},
	}

	var err error
	if dashboard.Statistics.TotalCollections, err = s.eventRepo.CountAll(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting collection events: %w", err)
	}
	if dashboard.Statistics.TotalProcessing, err = s.stepRepo.CountAll(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting processing steps: %w", err)
	}
	if dashboard.Statistics.TotalQualityTests, err = s.testRepo.CountAll(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting quality tests: %w", err)
	}
	if dashboard.Statistics.TotalProducts, err = s.productRepo.CountAll(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}
	if dashboard.Statistics.TotalLedgerTransactions, err = s.txRepo.CountAll(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting ledger transactions: %w", err)
	}

	recentCollections, err := s.eventRepo.ListRecent(ctx, nil, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent collections: %w", err)
	}
	if recentCollections != nil {
		dashboard.RecentCollections = recentCollections
	}

	recentProducts, err := s.productRepo.ListRecent(ctx, nil, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent products: %w", err)
	}
	if recentProducts != nil {
		dashboard.RecentProducts = recentProducts
	}

	return dashboard, nil
}
