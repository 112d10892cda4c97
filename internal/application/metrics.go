package application

import (
	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"
)

type nopMetrics struct{}

func (nopMetrics) ObserveSync(string, string) {}
func (nopMetrics) ObserveTokenRefresh(string) {}
func (nopMetrics) ObserveSweep(int, float64)  {}

func metricsOrNop(m ports.SyncMetrics) ports.SyncMetrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// outcomeLabel maps an error to a metrics label
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
