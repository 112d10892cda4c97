package sqlstore

import (
	"time"

	"shopify-ledger-sync/internal/domain"
)

// OrderSyncRecordModel is the GORM model for order sync records
type OrderSyncRecordModel struct {
	ID                  string `gorm:"type:varchar(36);primaryKey"`
	OrderNumber         string `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_sync_key"`
	TenantID            int64  `gorm:"not null;uniqueIndex:idx_order_sync_key"`
	LedgerOrderID       *int64
	LedgerInvoiceID     *int64
	LedgerInvoiceNumber *string   `gorm:"type:varchar(64)"`
	SyncedAt            time.Time `gorm:"not null"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (OrderSyncRecordModel) TableName() string {
	return "order_sync_records"
}

// ToDomain converts the model to a domain record
func (m *OrderSyncRecordModel) ToDomain() *domain.OrderSyncRecord {
	return &domain.OrderSyncRecord{
		ID:                  m.ID,
		OrderNumber:         m.OrderNumber,
		TenantID:            m.TenantID,
		LedgerOrderID:       m.LedgerOrderID,
		LedgerInvoiceID:     m.LedgerInvoiceID,
		LedgerInvoiceNumber: m.LedgerInvoiceNumber,
		SyncedAt:            m.SyncedAt,
	}
}

func (m *OrderSyncRecordModel) apply(r *domain.OrderSyncRecord) {
	m.LedgerOrderID = r.LedgerOrderID
	m.LedgerInvoiceID = r.LedgerInvoiceID
	m.LedgerInvoiceNumber = r.LedgerInvoiceNumber
	m.SyncedAt = r.SyncedAt
}

// ProductSyncRecordModel is the GORM model for product sync records
type ProductSyncRecordModel struct {
	ID              string `gorm:"type:varchar(36);primaryKey"`
	ProductGID      string `gorm:"column:product_gid;type:varchar(128);not null;uniqueIndex:idx_product_sync_key"`
	TenantID        int64  `gorm:"not null;uniqueIndex:idx_product_sync_key"`
	ShopDomain      string `gorm:"type:varchar(255);index"`
	LedgerProductID *int64
	ProductTitle    string
	SyncedAt        time.Time `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ProductSyncRecordModel) TableName() string {
	return "product_sync_records"
}

// ToDomain converts the model to a domain record
func (m *ProductSyncRecordModel) ToDomain() *domain.ProductSyncRecord {
	return &domain.ProductSyncRecord{
		ID:              m.ID,
		ShopDomain:      m.ShopDomain,
		ProductGID:      m.ProductGID,
		TenantID:        m.TenantID,
		LedgerProductID: m.LedgerProductID,
		ProductTitle:    m.ProductTitle,
		SyncedAt:        m.SyncedAt,
	}
}

func (m *ProductSyncRecordModel) apply(r *domain.ProductSyncRecord) {
	m.ShopDomain = r.ShopDomain
	m.LedgerProductID = r.LedgerProductID
	m.ProductTitle = r.ProductTitle
	m.SyncedAt = r.SyncedAt
}
