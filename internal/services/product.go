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
	"github.com/herbtrace/herbtrace-backend/internal/qr"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

// ProductService registers formulated products. The formulation transaction
// is chained under the product's batch code, the same subject key as every
// other event of the lineage, so one chain covers the whole history.
type ProductService interface {
	Record(ctx context.Context, product *types.Product) (*types.Product, error)
}

type productService struct {
	log         *logger.Logger
	productRepo repos.ProductRepo
	appender    ledger.Appender
	mirror      gateway.Ledger
	cache       redisclient.TraceCache
	frontendURL string
}

func NewProductService(log *logger.Logger, productRepo repos.ProductRepo, appender ledger.Appender, mirror gateway.Ledger, cache redisclient.TraceCache, frontendURL string) ProductService {
	serviceLog := log.With("service", "ProductService")
	return &productService{
		log:         serviceLog,
		productRepo: productRepo,
		appender:    appender,
		mirror:      mirror,
		cache:       cache,
		frontendURL: frontendURL,
	}
}

func (s *productService) Record(ctx context.Context, product *types.Product) (*types.Product, error) {
	if product == nil {
		return nil, fmt.Errorf("product is required")
	}
	if product.BatchCode == "" {
		return nil, fmt.Errorf("batch_code is required")
	}
	if product.ProductName == "" {
		return nil, fmt.Errorf("product_name is required")
	}

	existing, err := s.productRepo.GetByBatchCode(ctx, nil, product.BatchCode)
	if err != nil {
		return nil, fmt.Errorf("checking batch code %q: %w", product.BatchCode, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("batch code %q is already registered to product %s", product.BatchCode, existing.ID)
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now().UTC()

	traceURL := qr.TraceURL(s.frontendURL, product.BatchCode)
	card, err := qr.TraceCard(product.ProductName, product.BatchCode, traceURL)
	if err != nil {
		return nil, fmt.Errorf("rendering trace card for %q: %w", product.BatchCode, err)
	}
	product.TraceCode = traceURL
	product.TraceImage = qr.EncodeBase64(card)

	hash, err := canonical.Digest(product)
	if err != nil {
		return nil, fmt.Errorf("hashing product: %w", err)
	}
	product.ContentHash = hash

	if err := s.productRepo.Create(ctx, nil, product); err != nil {
		return nil, fmt.Errorf("storing product: %w", err)
	}

	if _, err := s.appender.Append(ctx, product.BatchCode, types.TxFormulation, product.ID, product); err != nil {
		return nil, fmt.Errorf("chaining product %s: %w", product.ID, err)
	}

	mirrorSubmit(ctx, s.log, s.mirror, types.TxFormulation, product.BatchCode, product)
	if s.cache != nil {
		s.cache.Invalidate(ctx, product.BatchCode)
	}

	s.log.Info("Product recorded",
		"product_id", product.ID, "batch_code", product.BatchCode, "name", product.ProductName)
	return product, nil
}
