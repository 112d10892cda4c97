package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ProductSyncService pushes shop products into the ledger catalogue
type ProductSyncService struct {
	products    ports.ShopProductSource
	connections ports.ConnectionRepository
	records     ports.ProductSyncRecordStore
	ledger      ports.LedgerAPI
	tokens      *TokenService
	diff        *ProductDiffEngine
	metrics     ports.SyncMetrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProductSyncService creates a new product sync service
func NewProductSyncService(
	products ports.ShopProductSource,
	connections ports.ConnectionRepository,
	records ports.ProductSyncRecordStore,
	ledger ports.LedgerAPI,
	tokens *TokenService,
	diff *ProductDiffEngine,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
) *ProductSyncService {
	return &ProductSyncService{
		products:    products,
		connections: connections,
		records:     records,
		ledger:      ledger,
		tokens:      tokens,
		diff:        diff,
		metrics:     metricsOrNop(metrics),
		logger:      logger,
		now:         time.Now,
	}
}

// SyncProduct creates or updates the ledger product for a shop product and records the mapping.
// Cancelling ctx does not stop a push that has started.
func (s *ProductSyncService) SyncProduct(ctx context.Context, shopDomain, productID string, tenantID int64) (result *domain.ProductSyncResult, err error) {
	ctx = context.WithoutCancel(ctx)
	defer func() { s.metrics.ObserveSync("product", outcomeLabel(err)) }()

	gid, err := domain.NormalizeProductGID(productID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FetchProductByID(ctx, shopDomain, gid, tenantID)
	if err != nil {
		return nil, err
	}

	connection, err := s.connections.FindByShopAndTenant(ctx, shopDomain, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger connection: %w", err)
	}
	if connection == nil {
		return nil, domain.NewConfigurationError("ledger connection not configured for %s", shopDomain)
	}

	session, err := s.tokens.newSession(ctx, connection)
	if err != nil {
		return nil, err
	}

	key := domain.ProductSyncKey{ProductGID: product.GID, TenantID: tenantID}
	existing, err := s.records.FindProductRecord(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load product sync record: %w", err)
	}
	var ledgerProductID *int64
	if existing != nil {
		ledgerProductID = existing.LedgerProductID
	}

	payload, err := BuildSyncPayload(product, ledgerProductID)
	if err != nil {
		return nil, err
	}

	pushed, err := callWithRefresh(ctx, session, "product push", func(token string) (*domain.ProductPushResult, error) {
		return s.ledger.PushProduct(ctx, token, payload)
	})
	if err != nil {
		return nil, err
	}
	if pushed == nil {
		return nil, domain.NewUpstreamError("ledger product push response was empty", 0, "", nil)
	}

	syncedAt := s.now().UTC()
	record, err := s.records.UpsertProductRecord(ctx, key, func(r *domain.ProductSyncRecord) {
		r.ShopDomain = shopDomain
		r.LedgerProductID = &pushed.ProductID
		r.ProductTitle = product.Title
		r.SyncedAt = syncedAt
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save product sync record: %w", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Int64("tenantId", tenantID).
		Str("product", product.GID).
		Int64("ledgerProductId", pushed.ProductID).
		Bool("update", ledgerProductID != nil).
		Msg("Product synced to ledger")

	return &domain.ProductSyncResult{
		Product: product,
		Status: &domain.ProductSyncStatus{
			LedgerProductID: pushed.ProductID,
			SyncedAt:        record.SyncedAt,
			VariantMappings: pushed.Variants,
		},
	}, nil
}

// SearchProducts searches shop products by name and annotates each with its sync record and
// whether a push is required. An empty token marks every product as requiring sync.
func (s *ProductSyncService) SearchProducts(ctx context.Context, shopDomain, name string, tenantID int64, token string) ([]domain.ProductComparison, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("product name is required")
	}

	products, err := s.products.SearchProducts(ctx, shopDomain, name, tenantID)
	if err != nil {
		return nil, err
	}

	comparisons := make([]domain.ProductComparison, 0, len(products))
	for _, product := range products {
		record, err := s.records.FindProductRecord(ctx, domain.ProductSyncKey{ProductGID: product.GID, TenantID: tenantID})
		if err != nil {
			return nil, fmt.Errorf("failed to load product sync record: %w", err)
		}
		comparisons = append(comparisons, domain.ProductComparison{
			Product:      product,
			SyncRecord:   record,
			SyncRequired: s.diff.DetermineSyncRequired(ctx, product, record, token),
		})
	}
	return comparisons, nil
}

// RequiresSync reports whether an already fetched product differs from its ledger snapshot
func (s *ProductSyncService) RequiresSync(ctx context.Context, shopDomain string, product *domain.SourceProduct, tenantID int64) (bool, error) {
	record, err := s.records.FindProductRecord(ctx, domain.ProductSyncKey{ProductGID: product.GID, TenantID: tenantID})
	if err != nil {
		return true, fmt.Errorf("failed to load product sync record: %w", err)
	}
	if record == nil || record.LedgerProductID == nil {
		return true, nil
	}

	connection, err := s.connections.FindByShopAndTenant(ctx, shopDomain, tenantID)
	if err != nil {
		return true, fmt.Errorf("failed to load ledger connection: %w", err)
	}
	token, err := s.tokens.FetchValidAccessTokenOrEmpty(ctx, connection)
	if err != nil {
		return true, err
	}
	return s.diff.DetermineSyncRequired(ctx, product, record, token), nil
}
