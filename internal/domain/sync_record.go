package domain

import "time"

// OrderSyncKey identifies an order sync record
type OrderSyncKey struct {
	OrderNumber string
	TenantID    int64
}

// OrderSyncRecord remembers which ledger order and invoice a shop order was pushed to
type OrderSyncRecord struct {
	ID                  string    `json:"id"`
	OrderNumber         string    `json:"shopifyOrderNumber"`
	TenantID            int64     `json:"tenantId"`
	LedgerOrderID       *int64    `json:"reaiOrderId,omitempty"`
	LedgerInvoiceID     *int64    `json:"reaiInvoiceId,omitempty"`
	LedgerInvoiceNumber *string   `json:"reaiInvoiceNumber,omitempty"`
	SyncedAt            time.Time `json:"syncedAt"`
}

// Complete reports whether both invoice id and number are known, meaning the order is durably synced
func (r *OrderSyncRecord) Complete() bool {
	return r != nil && r.LedgerInvoiceID != nil && r.LedgerInvoiceNumber != nil
}

// Status renders the record as a sync status
func (r *OrderSyncRecord) Status(alreadySynced bool) *OrderSyncStatus {
	return &OrderSyncStatus{
		LedgerOrderID:       r.LedgerOrderID,
		LedgerInvoiceID:     r.LedgerInvoiceID,
		LedgerInvoiceNumber: r.LedgerInvoiceNumber,
		SyncedAt:            r.SyncedAt,
		AlreadySynced:       alreadySynced,
	}
}

// OrderSyncStatus is returned after an order sync or lookup
type OrderSyncStatus struct {
	LedgerOrderID       *int64    `json:"reaiOrderId,omitempty"`
	LedgerInvoiceID     *int64    `json:"reaiInvoiceId,omitempty"`
	LedgerInvoiceNumber *string   `json:"reaiInvoiceNumber,omitempty"`
	SyncedAt            time.Time `json:"syncedAt"`
	AlreadySynced       bool      `json:"alreadySynced"`
}

// OrderSyncResult pairs the source order with its sync status
type OrderSyncResult struct {
	Order  *SourceOrder     `json:"orderDetails"`
	Status *OrderSyncStatus `json:"status"`
}

// ProductSyncKey identifies a product sync record
type ProductSyncKey struct {
	ProductGID string
	TenantID   int64
}

// ProductSyncRecord remembers the ledger product a shop product maps to
type ProductSyncRecord struct {
	ID              string    `json:"id"`
	ShopDomain      string    `json:"shopDomain"`
	ProductGID      string    `json:"shopifyProductGid"`
	TenantID        int64     `json:"tenantId"`
	LedgerProductID *int64    `json:"reaiProductId,omitempty"`
	ProductTitle    string    `json:"productTitle,omitempty"`
	SyncedAt        time.Time `json:"syncedAt"`
}

// ProductSyncStatus is returned after a product push
type ProductSyncStatus struct {
	LedgerProductID int64            `json:"reaiProductId"`
	SyncedAt        time.Time        `json:"syncedAt"`
	VariantMappings []VariantMapping `json:"variantMappings"`
}

// ProductSyncResult pairs the source product with its sync status
type ProductSyncResult struct {
	Product *SourceProduct     `json:"productDetails"`
	Status  *ProductSyncStatus `json:"status"`
}

// ProductComparison annotates a searched product with its sync state
type ProductComparison struct {
	Product      *SourceProduct     `json:"product"`
	SyncRecord   *ProductSyncRecord `json:"syncRecord,omitempty"`
	SyncRequired bool               `json:"syncRequired"`
}
