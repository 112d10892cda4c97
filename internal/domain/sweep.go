package domain

import "time"

// SweepReport summarises one auto-sync pass over a single connection
type SweepReport struct {
	RunID           string    `json:"runId"`
	ShopDomain      string    `json:"shopDomain"`
	TenantID        int64     `json:"tenantId"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	ProductsSynced  int       `json:"productsSynced"`
	ProductsFailed  int       `json:"productsFailed"`
	ProductsSkipped int       `json:"productsSkipped"`
	OrdersSynced    int       `json:"ordersSynced"`
	OrdersFailed    int       `json:"ordersFailed"`
	OrdersSkipped   int       `json:"ordersSkipped"`
	LastError       string    `json:"lastError,omitempty"`
}
