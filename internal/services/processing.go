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

type ProcessingService interface {
	Record(ctx context.Context, step *types.ProcessingStep) (*types.ProcessingStep, error)
}

type processingService struct {
	log      *logger.Logger
	stepRepo repos.ProcessingStepRepo
	appender ledger.Appender
	mirror   gateway.Ledger
	cache    redisclient.TraceCache
}

func NewProcessingService(log *logger.Logger, stepRepo repos.ProcessingStepRepo, appender ledger.Appender, mirror gateway.Ledger, cache redisclient.TraceCache) ProcessingService {
	serviceLog := log.With("service", "ProcessingService")
	return &processingService{
		log:      serviceLog,
		stepRepo: stepRepo,
		appender: appender,
		mirror:   mirror,
		cache:    cache,
	}
}

func (s *processingService) Record(ctx context.Context, step *types.ProcessingStep) (*types.ProcessingStep, error) {
	if step == nil {
		return nil, fmt.Errorf("processing step is required")
	}
	if step.BatchCode == "" {
		return nil, fmt.Errorf("batch_code is required")
	}
	if step.ProcessType == "" {
		return nil, fmt.Errorf("process_type is required")
	}

	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	step.CreatedAt = time.Now().UTC()

	hash, err := canonical.Digest(step)
	if err != nil {
		return nil, fmt.Errorf("hashing processing step: %w", err)
	}
	step.ContentHash = hash

	if err := s.stepRepo.Create(ctx, nil, step); err != nil {
		return nil, fmt.Errorf("storing processing step: %w", err)
	}

	if _, err := s.appender.Append(ctx, step.BatchCode, types.TxProcessing, step.ID, step); err != nil {
		return nil, fmt.Errorf("chaining processing step %s: %w", step.ID, err)
	}

	mirrorSubmit(ctx, s.log, s.mirror, types.TxProcessing, step.BatchCode, step)
	if s.cache != nil {
		s.cache.Invalidate(ctx, step.BatchCode)
	}

	s.log.Info("Processing step recorded",
		"step_id", step.ID, "batch_code", step.BatchCode, "process_type", step.ProcessType)
	return step, nil
}
