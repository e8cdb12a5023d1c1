package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/geofence"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	eventRepo := repos.NewMemoryCollectionEventRepo()
	stepRepo := repos.NewMemoryProcessingStepRepo()
	testRepo := repos.NewMemoryQualityTestRepo()
	productRepo := repos.NewMemoryProductRepo()
	txRepo := repos.NewMemoryLedgerTxRepo()
	appender := ledger.NewAppender(txRepo, log)
	mirror := gateway.NewNoopLedger()
	policy := geofence.DefaultPolicy()

	collectionService := services.NewCollectionService(log, policy, eventRepo, appender, mirror, nil)
	processingService := services.NewProcessingService(log, stepRepo, appender, mirror, nil)
	qualityService := services.NewQualityService(log, testRepo, appender, mirror, nil)
	productService := services.NewProductService(log, productRepo, appender, mirror, nil, "http://localhost:3000")
	traceService := services.NewTraceService(log, productRepo, eventRepo, stepRepo, testRepo, txRepo, appender, nil)
	analyticsService := services.NewAnalyticsService(log, eventRepo, stepRepo, testRepo, productRepo, txRepo)

	router := gin.New()
	api := router.Group("/api")
	collectionHandler := NewCollectionHandler(log, collectionService)
	processingHandler := NewProcessingHandler(log, processingService)
	qualityHandler := NewQualityHandler(log, qualityService)
	productHandler := NewProductHandler(log, productService)
	traceHandler := NewTraceHandler(log, traceService)
	analyticsHandler := NewAnalyticsHandler(log, analyticsService)
	ledgerHandler := NewLedgerHandler(log, traceService, mirror)
	api.POST("/collection", collectionHandler.Record)
	api.POST("/processing", processingHandler.Record)
	api.POST("/quality", qualityHandler.Record)
	api.POST("/product", productHandler.Record)
	api.GET("/trace/:id", traceHandler.GetTrace)
	api.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
	api.GET("/ledger/status", ledgerHandler.GetStatus)
	api.GET("/ledger/verify/:batch", ledgerHandler.VerifyChain)
	router.GET("/healthcheck", HealthCheck)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthcheck response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRecordAndTraceRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/collection", map[string]any{
		"batch_code":   "B-100",
		"collector_id": "C-1",
		"species_name": "Turmeric",
		"latitude":     15.0,
		"longitude":    80.0,
		"quantity_kg":  12.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("collection: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/quality", map[string]any{
		"batch_code": "B-100",
		"lab_id":     "L-1",
		"test_type":  "moisture",
		"pass_fail":  "pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("quality: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/product", map[string]any{
		"product_name": "Turmeric Capsules",
		"batch_code":   "B-100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("product: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/trace/B-100", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trace: %d %s", rec.Code, rec.Body.String())
	}
	var trace struct {
		Product struct {
			BatchCode string `json:"batch_code"`
		} `json:"product"`
		CollectionEvents   []json.RawMessage `json:"collection_events"`
		QualityTests       []json.RawMessage `json:"quality_tests"`
		LedgerTransactions []json.RawMessage `json:"ledger_transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &trace); err != nil {
		t.Fatalf("decode trace: %v", err)
	}
	if trace.Product.BatchCode != "B-100" {
		t.Fatalf("wrong product in trace: %q", trace.Product.BatchCode)
	}
	if len(trace.CollectionEvents) != 1 || len(trace.QualityTests) != 1 {
		t.Fatalf("trace missing events: %s", rec.Body.String())
	}
	if len(trace.LedgerTransactions) != 3 {
		t.Fatalf("expected 3 chain transactions, got %d", len(trace.LedgerTransactions))
	}
}

func TestGeofenceRejectionMapsToBadRequest(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/collection", map[string]any{
		"batch_code":   "B-geo",
		"collector_id": "C-1",
		"species_name": "Ashwagandha",
		"latitude":     55.0,
		"longitude":    10.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "geofence_rejected" {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestUnknownTraceIdentifierMapsToNotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/trace/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMalformedBodyMapsToBadRequest(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/collection", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLedgerStatusReportsUnconfiguredMirror(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/ledger/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var payload struct {
		Network struct {
			Status string `json:"status"`
		} `json:"network"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Network.Status == "" {
		t.Fatalf("missing network status: %s", rec.Body.String())
	}
}

func TestVerifyEndpointOnIntactChain(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/collection", map[string]any{
		"batch_code":   "B-v",
		"collector_id": "C-1",
		"species_name": "Tulsi",
		"latitude":     25.0,
		"longitude":    80.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("collection: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/api/ledger/verify/B-v", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Valid  bool  `json:"valid"`
		Length int64 `json:"length"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Valid || result.Length != 1 {
		t.Fatalf("unexpected verify result: %s", rec.Body.String())
	}
}

// unreachableProductRepo models a product store that is down: every call
// fails with the storage sentinel.
type unreachableProductRepo struct{}

func (unreachableProductRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) error {
	return fmt.Errorf("creating product: %w", repos.ErrStorageUnavailable)
}

func (unreachableProductRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	return nil, fmt.Errorf("reading product by id: %w", repos.ErrStorageUnavailable)
}

func (unreachableProductRepo) GetByBatchCode(ctx context.Context, tx *gorm.DB, batchCode string) (*types.Product, error) {
	return nil, fmt.Errorf("reading product by batch code: %w", repos.ErrStorageUnavailable)
}

func (unreachableProductRepo) ListCreatedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Product, error) {
	return nil, fmt.Errorf("listing products before cutoff: %w", repos.ErrStorageUnavailable)
}

func (unreachableProductRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Product, error) {
	return nil, fmt.Errorf("listing recent products: %w", repos.ErrStorageUnavailable)
}

func (unreachableProductRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, fmt.Errorf("counting products: %w", repos.ErrStorageUnavailable)
}

func TestStorageOutageMapsToServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	txRepo := repos.NewMemoryLedgerTxRepo()
	appender := ledger.NewAppender(txRepo, log)
	traceService := services.NewTraceService(log, unreachableProductRepo{},
		repos.NewMemoryCollectionEventRepo(), repos.NewMemoryProcessingStepRepo(),
		repos.NewMemoryQualityTestRepo(), txRepo, appender, nil)

	router := gin.New()
	traceHandler := NewTraceHandler(log, traceService)
	router.GET("/api/trace/:id", traceHandler.GetTrace)

	rec := doJSON(t, router, http.MethodGet, "/api/trace/B-1", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "storage_unavailable" {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}
