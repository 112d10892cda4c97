package cache

import (
	"context"
	"fmt"
	"sync"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"
)

// MemoryReportStore keeps sweep reports in process memory. Reports are lost on restart.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.SweepReport
}

// NewMemoryReportStore creates an empty in-memory store
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{
		reports: make(map[string]domain.SweepReport),
	}
}

var _ ports.SweepReportStore = (*MemoryReportStore)(nil)

func memoryKey(shopDomain string, tenantID int64) string {
	return fmt.Sprintf("%d:%s", tenantID, domain.NormalizeShopDomain(shopDomain))
}

// SaveReport stores a copy of the report
func (s *MemoryReportStore) SaveReport(_ context.Context, report *domain.SweepReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[memoryKey(report.ShopDomain, report.TenantID)] = *report
	return nil
}

// LatestReport returns a copy of the stored report or nil
func (s *MemoryReportStore) LatestReport(_ context.Context, shopDomain string, tenantID int64) (*domain.SweepReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[memoryKey(shopDomain, tenantID)]
	if !ok {
		return nil, nil
	}
	return &report, nil
}
