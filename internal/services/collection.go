package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/herbtrace/herbtrace-backend/internal/clients/redis"
	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/geofence"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// CollectionService admits harvest events. The geofence check runs before
// anything is persisted: a rejected event never reaches the store or the
// chain. Entity write and chain append are two durable steps; if the append
// fails the event stays and the reconciler completes the chain entry later.
type CollectionService interface {
	Record(ctx context.Context, event *types.CollectionEvent) (*types.CollectionEvent, error)
}

type collectionService struct {
	log       *logger.Logger
	policy    *geofence.Policy
	eventRepo repos.CollectionEventRepo
	appender  ledger.Appender
	mirror    gateway.Ledger
	cache     redisclient.TraceCache
}

func NewCollectionService(log *logger.Logger, policy *geofence.Policy, eventRepo repos.CollectionEventRepo, appender ledger.Appender, mirror gateway.Ledger, cache redisclient.TraceCache) CollectionService {
	serviceLog := log.With("service", "CollectionService")
	return &collectionService{
		log:       serviceLog,
		policy:    policy,
		eventRepo: eventRepo,
		appender:  appender,
		mirror:    mirror,
		cache:     cache,
	}
}

func (s *collectionService) Record(ctx context.Context, event *types.CollectionEvent) (*types.CollectionEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("collection event is required")
	}
	if event.BatchCode == "" {
		return nil, fmt.Errorf("batch_code is required")
	}
	if event.SpeciesName == "" {
		return nil, fmt.Errorf("species_name is required")
	}

	if err := s.policy.Validate(event.SpeciesName, event.Latitude, event.Longitude); err != nil {
		s.log.Warn("Collection rejected by geofence",
			"species", event.SpeciesName, "latitude", event.Latitude, "longitude", event.Longitude)
		return nil, err
	}

	now := time.Now().UTC()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.HarvestDate.IsZero() {
		event.HarvestDate = now
	}
	event.CreatedAt = now

	hash, err := canonical.Digest(event)
	if err != nil {
		return nil, fmt.Errorf("hashing collection event: %w", err)
	}
	event.ContentHash = hash

	if err := s.eventRepo.Create(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("storing collection event: %w", err)
	}

	if _, err := s.appender.Append(ctx, event.BatchCode, types.TxCollection, event.ID, event); err != nil {
		// The event record is durable; the reconciler completes the missing
		// chain entry. Surfaced, not swallowed.
		return nil, fmt.Errorf("chaining collection event %s: %w", event.ID, err)
	}

	mirrorSubmit(ctx, s.log, s.mirror, types.TxCollection, event.BatchCode, event)
	if s.cache != nil {
		s.cache.Invalidate(ctx, event.BatchCode)
	}

	s.log.Info("Collection event recorded",
		"event_id", event.ID, "batch_code", event.BatchCode, "species", event.SpeciesName)
	return event, nil
}
