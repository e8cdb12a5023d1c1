package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/herbtrace/herbtrace-backend/internal/clients/redis"
	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type QualityService interface {
	Record(ctx context.Context, test *types.QualityTest) (*types.QualityTest, error)
}

type qualityService struct {
	log      *logger.Logger
	testRepo repos.QualityTestRepo
	appender ledger.Appender
	mirror   gateway.Ledger
	cache    redisclient.TraceCache
}

func NewQualityService(log *logger.Logger, testRepo repos.QualityTestRepo, appender ledger.Appender, mirror gateway.Ledger, cache redisclient.TraceCache) QualityService {
	serviceLog := log.With("service", "QualityService")
	return &qualityService{
		log:      serviceLog,
		testRepo: testRepo,
		appender: appender,
		mirror:   mirror,
		cache:    cache,
	}
}

func (s *qualityService) Record(ctx context.Context, test *types.QualityTest) (*types.QualityTest, error) {
	if test == nil {
		return nil, fmt.Errorf("quality test is required")
	}
	if test.BatchCode == "" {
		return nil, fmt.Errorf("batch_code is required")
	}
	if test.TestType == "" {
		return nil, fmt.Errorf("test_type is required")
	}

	if test.ID == uuid.Nil {
		test.ID = uuid.New()
	}
	test.CreatedAt = time.Now().UTC()

	hash, err := canonical.Digest(test)
	if err != nil {
		return nil, fmt.Errorf("hashing quality test: %w", err)
	}
	test.ContentHash = hash

	if err := s.testRepo.Create(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("storing quality test: %w", err)
	}

	if _, err := s.appender.Append(ctx, test.BatchCode, types.TxTesting, test.ID, test); err != nil {
		return nil, fmt.Errorf("chaining quality test %s: %w", test.ID, err)
	}

	mirrorSubmit(ctx, s.log, s.mirror, types.TxTesting, test.BatchCode, test)
	if s.cache != nil {
		s.cache.Invalidate(ctx, test.BatchCode)
	}

	s.log.Info("Quality test recorded",
		"test_id", test.ID, "batch_code", test.BatchCode, "test_type", test.TestType)
	return test, nil
}
