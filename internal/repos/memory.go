package repos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// In-memory implementations of the repo interfaces. They back the local
// zero-dependency mode and keep the test suite hermetic. The tx parameter is
// ignored; each store is internally synchronized. Insertion order is creation
// order, which the list methods rely on the same way the SQL implementations
// rely on created_at.

type memoryCollectionEventRepo struct {
	mu     sync.RWMutex
	events []*types.CollectionEvent
	byID   map[uuid.UUID]*types.CollectionEvent
}

func NewMemoryCollectionEventRepo() CollectionEventRepo {
	return &memoryCollectionEventRepo{byID: map[uuid.UUID]*types.CollectionEvent{}}
}

func (r *memoryCollectionEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.CollectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[event.ID]; exists {
		return fmt.Errorf("collection event %s already exists", event.ID)
	}
	copied := *event
	r.events = append(r.events, &copied)
	r.byID[event.ID] = &copied
	return nil
}

func (r *memoryCollectionEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CollectionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryCollectionEventRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.CollectionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.CollectionEvent
	for _, e := range r.events {
		if e.BatchCode == batchCode {
			copied := *e
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryCollectionEventRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.CollectionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.CollectionEvent
	for _, e := range r.events {
		if e.CreatedAt.Before(cutoff) {
			copied := *e
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryCollectionEventRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.CollectionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.CollectionEvent
	for i := len(r.events) - 1; i >= 0 && len(results) < limit; i-- {
		copied := *r.events[i]
		results = append(results, &copied)
	}
	return results, nil
}

func (r *memoryCollectionEventRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.events)), nil
}

type memoryProcessingStepRepo struct {
	mu    sync.RWMutex
	steps []*types.ProcessingStep
	byID  map[uuid.UUID]*types.ProcessingStep
}

func NewMemoryProcessingStepRepo() ProcessingStepRepo {
	return &memoryProcessingStepRepo{byID: map[uuid.UUID]*types.ProcessingStep{}}
}

func (r *memoryProcessingStepRepo) Create(ctx context.Context, tx *gorm.DB, step *types.ProcessingStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[step.ID]; exists {
		return fmt.Errorf("processing step %s already exists", step.ID)
	}
	copied := *step
	r.steps = append(r.steps, &copied)
	r.byID[step.ID] = &copied
	return nil
}

func (r *memoryProcessingStepRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProcessingStep, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryProcessingStepRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.ProcessingStep, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.ProcessingStep
	for _, s := range r.steps {
		if s.BatchCode == batchCode {
			copied := *s
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryProcessingStepRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.ProcessingStep, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.ProcessingStep
	for _, s := range r.steps {
		if s.CreatedAt.Before(cutoff) {
			copied := *s
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryProcessingStepRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.steps)), nil
}

type memoryQualityTestRepo struct {
	mu    sync.RWMutex
	tests []*types.QualityTest
	byID  map[uuid.UUID]*types.QualityTest
}

func NewMemoryQualityTestRepo() QualityTestRepo {
	return &memoryQualityTestRepo{byID: map[uuid.UUID]*types.QualityTest{}}
}

func (r *memoryQualityTestRepo) Create(ctx context.Context, tx *gorm.DB, test *types.QualityTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[test.ID]; exists {
		return fmt.Errorf("quality test %s already exists", test.ID)
	}
	copied := *test
	r.tests = append(r.tests, &copied)
	r.byID[test.ID] = &copied
	return nil
}

func (r *memoryQualityTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QualityTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryQualityTestRepo) ListByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) ([]*types.QualityTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.QualityTest
	for _, q := range r.tests {
		if q.BatchCode == batchCode {
			copied := *q
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryQualityTestRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.QualityTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.QualityTest
	for _, q := range r.tests {
		if q.CreatedAt.Before(cutoff) {
			copied := *q
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryQualityTestRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tests)), nil
}

type memoryProductRepo struct {
	mu       sync.RWMutex
	products []*types.Product
	byID     map[uuid.UUID]*types.Product
	byBatch  map[string]*types.Product
}

func NewMemoryProductRepo() ProductRepo {
	return &memoryProductRepo{
		byID:    map[uuid.UUID]*types.Product{},
		byBatch: map[string]*types.Product{},
	}
}

func (r *memoryProductRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[product.ID]; exists {
		return fmt.Errorf("product %s already exists", product.ID)
	}
	if _, exists := r.byBatch[product.BatchCode]; exists {
		return fmt.Errorf("batch code %q already in use", product.BatchCode)
	}
	copied := *product
	r.products = append(r.products, &copied)
	r.byID[product.ID] = &copied
	r.byBatch[product.BatchCode] = &copied
	return nil
}

func (r *memoryProductRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryProductRepo) GetByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) (*types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byBatch[batchCode]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryProductRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.Product
	for _, p := range r.products {
		if p.CreatedAt.Before(cutoff) {
			copied := *p
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (r *memoryProductRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*types.Product
	for i := len(r.products) - 1; i >= 0 && len(results) < limit; i-- {
		copied := *r.products[i]
		results = append(results, &copied)
	}
	return results, nil
}

func (r *memoryProductRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

type memoryLedgerTxRepo struct {
	mu        sync.RWMutex
	bySubject map[string][]*types.LedgerTransaction
	byEventID map[uuid.UUID]*types.LedgerTransaction
	total     int64
}

func NewMemoryLedgerTxRepo() LedgerTxRepo {
	return &memoryLedgerTxRepo{
		bySubject: map[string][]*types.LedgerTransaction{},
		byEventID: map[uuid.UUID]*types.LedgerTransaction{},
	}
}

func (r *memoryLedgerTxRepo) Create(ctx context.Context, tx *gorm.DB, transaction *types.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEventID[transaction.EventID]; exists {
		return fmt.Errorf("ledger transaction for event %s already exists", transaction.EventID)
	}
	for _, existing := range r.bySubject[transaction.SubjectKey] {
		if existing.SequenceNumber == transaction.SequenceNumber {
			return fmt.Errorf("sequence %d already taken for subject %q", transaction.SequenceNumber, transaction.SubjectKey)
		}
	}
	copied := *transaction
	r.bySubject[transaction.SubjectKey] = append(r.bySubject[transaction.SubjectKey], &copied)
	r.byEventID[transaction.EventID] = &copied
	r.total++
	return nil
}

func (r *memoryLedgerTxRepo) GetByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found, ok := r.byEventID[eventID]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (r *memoryLedgerTxRepo) GetLastBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) (*types.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.bySubject[subjectKey]
	if len(chain) == 0 {
		return nil, nil
	}
	last := chain[0]
	for _, t := range chain[1:] {
		if t.SequenceNumber > last.SequenceNumber {
			last = t
		}
	}
	copied := *last
	return &copied, nil
}

func (r *memoryLedgerTxRepo) ListBySubjectKey(ctx context.Context, tx *gorm.DB, subjectKey string) ([]*types.LedgerTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.bySubject[subjectKey]
	results := make([]*types.LedgerTransaction, 0, len(chain))
	for _, t := range chain {
		copied := *t
		results = append(results, &copied)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].SequenceNumber < results[j].SequenceNumber
	})
	return results, nil
}

func (r *memoryLedgerTxRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total, nil
}
