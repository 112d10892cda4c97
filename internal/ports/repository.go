package ports

import (
	"context"

	"shopify-ledger-sync/internal/domain"
)

// ConnectionRepository defines the interface for tenant connection persistence.
// Lookups return (nil, nil) when nothing matches.
type ConnectionRepository interface {
	// FindByShopAndTenant returns the connection linking a shop installation to a tenant
	FindByShopAndTenant(ctx context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error)

	// FindByInstallation returns the connection bound to an installation
	FindByInstallation(ctx context.Context, installationID string) (*domain.TenantConnection, error)

	// FindByTenant returns every connection of a tenant, oldest first
	FindByTenant(ctx context.Context, tenantID int64) ([]*domain.TenantConnection, error)

	// ListAutoSync returns connections with auto-sync enabled
	ListAutoSync(ctx context.Context) ([]*domain.TenantConnection, error)

	// Save inserts or replaces a connection and assigns its ID when empty
	Save(ctx context.Context, connection *domain.TenantConnection) error

	// Update loads the connection by ID, applies mutate and writes it back
	Update(ctx context.Context, id string, mutate func(*domain.TenantConnection) error) (*domain.TenantConnection, error)

	// Delete removes a connection by ID
	Delete(ctx context.Context, id string) error
}

// InstallationRepository defines the interface for shop installation persistence
type InstallationRepository interface {
	FindByShopDomain(ctx context.Context, shopDomain string) (*domain.ShopInstallation, error)
	Save(ctx context.Context, installation *domain.ShopInstallation) error
	Delete(ctx context.Context, id string) error
}

// OrderSyncRecordStore keeps order sync records keyed by (order number, tenant)
type OrderSyncRecordStore interface {
	FindOrderRecord(ctx context.Context, key domain.OrderSyncKey) (*domain.OrderSyncRecord, error)

	// UpsertOrderRecord loads the record for key (or starts a new one), applies mutate and persists it
	UpsertOrderRecord(ctx context.Context, key domain.OrderSyncKey, mutate func(*domain.OrderSyncRecord)) (*domain.OrderSyncRecord, error)
}

// ProductSyncRecordStore keeps product sync records keyed by (product GID, tenant)
type ProductSyncRecordStore interface {
	FindProductRecord(ctx context.Context, key domain.ProductSyncKey) (*domain.ProductSyncRecord, error)

	// UpsertProductRecord loads the record for key (or starts a new one), applies mutate and persists it
	UpsertProductRecord(ctx context.Context, key domain.ProductSyncKey, mutate func(*domain.ProductSyncRecord)) (*domain.ProductSyncRecord, error)
}

// SyncRecordStore is implemented by storage backends that hold both record tables
type SyncRecordStore interface {
	OrderSyncRecordStore
	ProductSyncRecordStore
}

// SweepReportStore keeps the latest auto-sync report per connection
type SweepReportStore interface {
	SaveReport(ctx context.Context, report *domain.SweepReport) error
	LatestReport(ctx context.Context, shopDomain string, tenantID int64) (*domain.SweepReport, error)
}
