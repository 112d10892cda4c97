package ports

import (
	"context"
	"iter"

	"shopify-ledger-sync/internal/domain"
)

// ShopOrderSource reads orders from the shop platform
type ShopOrderSource interface {
	// FetchOrderByNumber returns a not_found error when the shop has no such order
	FetchOrderByNumber(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.SourceOrder, error)

	// StreamAllOrders lazily walks every order page by page. Iteration stops at the first error.
	StreamAllOrders(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceOrder, error]
}

// ShopProductSource reads products from the shop platform
type ShopProductSource interface {
	SearchProducts(ctx context.Context, shopDomain, name string, tenantID int64) ([]*domain.SourceProduct, error)

	// FetchProductByID returns a not_found error when the shop has no such product
	FetchProductByID(ctx context.Context, shopDomain, productGID string, tenantID int64) (*domain.SourceProduct, error)

	// StreamAllProducts lazily walks every product page by page. Iteration stops at the first error.
	StreamAllProducts(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceProduct, error]
}

// SyncMetrics records sync outcomes
type SyncMetrics interface {
	ObserveSync(entity, outcome string)
	ObserveTokenRefresh(outcome string)
	ObserveSweep(connections int, seconds float64)
}
