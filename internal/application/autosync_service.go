package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSweepInProgress is returned when a sweep is requested while another one is running
var ErrSweepInProgress = errors.New("auto-sync sweep already in progress")

type productSyncer interface {
	SyncProduct(ctx context.Context, shopDomain, productID string, tenantID int64) (*domain.ProductSyncResult, error)
	RequiresSync(ctx context.Context, shopDomain string, product *domain.SourceProduct, tenantID int64) (bool, error)
}

type orderSyncer interface {
	SyncOrder(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.OrderSyncResult, error)
}

// AutoSyncService walks every auto-sync connection and pushes its products and orders
type AutoSyncService struct {
	connections   ports.ConnectionRepository
	products      ports.ShopProductSource
	orders        ports.ShopOrderSource
	productSync   productSyncer
	orderSync     orderSyncer
	reports       ports.SweepReportStore
	metrics       ports.SyncMetrics
	logger        zerolog.Logger
	skipUnchanged bool
	running       atomic.Bool
	now           func() time.Time
}

// AutoSyncOptions tunes a sweep
type AutoSyncOptions struct {
	// SkipUnchanged consults the diff engine before pushing a product
	SkipUnchanged bool
}

// NewAutoSyncService creates a new auto-sync service
func NewAutoSyncService(
	connections ports.ConnectionRepository,
	products ports.ShopProductSource,
	orders ports.ShopOrderSource,
	productSync productSyncer,
	orderSync orderSyncer,
	reports ports.SweepReportStore,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
	opts AutoSyncOptions,
) *AutoSyncService {
	return &AutoSyncService{
		connections:   connections,
		products:      products,
		orders:        orders,
		productSync:   productSync,
		orderSync:     orderSync,
		reports:       reports,
		metrics:       metricsOrNop(metrics),
		logger:        logger,
		skipUnchanged: opts.SkipUnchanged,
		now:           time.Now,
	}
}

// RunSweep syncs every auto-sync connection in sequence. Item failures are counted and logged
// without stopping the sweep. Only one sweep runs at a time.
func (s *AutoSyncService) RunSweep(ctx context.Context) ([]*domain.SweepReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	started := s.now()
	runID := uuid.NewString()
	logger := s.logger.With().Str("runId", runID).Logger()

	connections, err := s.connections.ListAutoSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-sync connections: %w", err)
	}
	logger.Info().Int("connections", len(connections)).Msg("Auto-sync sweep started")

	reports := make([]*domain.SweepReport, 0, len(connections))
	for _, connection := range connections {
		if ctx.Err() != nil {
			break
		}
		if connection.ShopDomain == "" || !connection.HasTenant() {
			logger.Warn().Str("connectionId", connection.ID).Msg("Skipping connection without shop or tenant")
			continue
		}

		report := s.syncConnection(ctx, logger, runID, connection)
		reports = append(reports, report)

		if s.reports != nil {
			if err := s.reports.SaveReport(ctx, report); err != nil {
				logger.Warn().Err(err).Str("shop", report.ShopDomain).Msg("Failed to store sweep report")
			}
		}
	}

	elapsed := s.now().Sub(started)
	s.metrics.ObserveSweep(len(reports), elapsed.Seconds())
	logger.Info().Int("connections", len(reports)).Dur("elapsed", elapsed).Msg("Auto-sync sweep finished")
	return reports, ctx.Err()
}

func (s *AutoSyncService) syncConnection(ctx context.Context, logger zerolog.Logger, runID string, connection *domain.TenantConnection) *domain.SweepReport {
	shop := connection.ShopDomain
	tenantID := connection.Tenant()
	report := &domain.SweepReport{
		RunID:      runID,
		ShopDomain: shop,
		TenantID:   tenantID,
		StartedAt:  s.now().UTC(),
	}
	logger = logger.With().Str("shop", shop).Int64("tenantId", tenantID).Logger()

	for product, err := range s.products.StreamAllProducts(ctx, shop, tenantID) {
		if err != nil {
			logger.Error().Err(err).Msg("Product stream failed")
			report.LastError = err.Error()
			break
		}
		if ctx.Err() != nil {
			break
		}
		if s.skipUnchanged {
			required, err := s.productSync.RequiresSync(ctx, shop, product, tenantID)
			if err != nil {
				logger.Warn().Err(err).Str("product", product.GID).Msg("Diff check failed, syncing product")
			} else if !required {
				report.ProductsSkipped++
				continue
			}
		}
		if _, err := s.productSync.SyncProduct(ctx, shop, product.GID, tenantID); err != nil {
			logger.Warn().Err(err).Str("product", product.GID).Msg("Product sync failed")
			report.ProductsFailed++
			report.LastError = err.Error()
			continue
		}
		report.ProductsSynced++
	}

	if ctx.Err() == nil {
		for order, err := range s.orders.StreamAllOrders(ctx, shop, tenantID) {
			if err != nil {
				logger.Error().Err(err).Msg("Order stream failed")
				report.LastError = err.Error()
				break
			}
			if ctx.Err() != nil {
				break
			}
			result, err := s.orderSync.SyncOrder(ctx, shop, order.Number, tenantID)
			if err != nil {
				logger.Warn().Err(err).Str("order", order.Number).Msg("Order sync failed")
				report.OrdersFailed++
				report.LastError = err.Error()
				continue
			}
			if result != nil && result.Status != nil && result.Status.AlreadySynced {
				report.OrdersSkipped++
				continue
			}
			report.OrdersSynced++
		}
	}

	report.FinishedAt = s.now().UTC()
	logger.Info().
		Int("productsSynced", report.ProductsSynced).
		Int("productsFailed", report.ProductsFailed).
		Int("productsSkipped", report.ProductsSkipped).
		Int("ordersSynced", report.OrdersSynced).
		Int("ordersFailed", report.OrdersFailed).
		Int("ordersSkipped", report.OrdersSkipped).
		Msg("Connection swept")
	return report
}
