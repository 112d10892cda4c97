package entity

import (
	"time"

	"shopify-ledger-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderSyncDoc represents an order sync record in MongoDB
type MongoOrderSyncDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	OrderNumber         string             `bson:"shopifyOrderNumber"`
	TenantID            int64              `bson:"tenantId"`
	LedgerOrderID       *int64             `bson:"reaiOrderId,omitempty"`
	LedgerInvoiceID     *int64             `bson:"reaiInvoiceId,omitempty"`
	LedgerInvoiceNumber *string            `bson:"reaiInvoiceNumber,omitempty"`
	SyncedAt            time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderSyncDoc) ToDomain() *domain.OrderSyncRecord {
	return &domain.OrderSyncRecord{
		ID:                  d.ID.Hex(),
		OrderNumber:         d.OrderNumber,
		TenantID:            d.TenantID,
		LedgerOrderID:       d.LedgerOrderID,
		LedgerInvoiceID:     d.LedgerInvoiceID,
		LedgerInvoiceNumber: d.LedgerInvoiceNumber,
		SyncedAt:            d.SyncedAt,
	}
}

// MongoOrderSyncDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderSyncDocFromDomain(record *domain.OrderSyncRecord) *MongoOrderSyncDoc {
	doc := &MongoOrderSyncDoc{
		OrderNumber:         record.OrderNumber,
		TenantID:            record.TenantID,
		LedgerOrderID:       record.LedgerOrderID,
		LedgerInvoiceID:     record.LedgerInvoiceID,
		LedgerInvoiceNumber: record.LedgerInvoiceNumber,
		SyncedAt:            record.SyncedAt,
	}
	if record.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(record.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}

// MongoProductSyncDoc represents a product sync record in MongoDB
type MongoProductSyncDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain      string             `bson:"shopDomain"`
	ProductGID      string             `bson:"shopifyProductGid"`
	TenantID        int64              `bson:"tenantId"`
	LedgerProductID *int64             `bson:"reaiProductId,omitempty"`
	ProductTitle    string             `bson:"productTitle,omitempty"`
	SyncedAt        time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductSyncDoc) ToDomain() *domain.ProductSyncRecord {
	return &domain.ProductSyncRecord{
		ID:              d.ID.Hex(),
		ShopDomain:      d.ShopDomain,
		ProductGID:      d.ProductGID,
		TenantID:        d.TenantID,
		LedgerProductID: d.LedgerProductID,
		ProductTitle:    d.ProductTitle,
		SyncedAt:        d.SyncedAt,
	}
}

// MongoProductSyncDocFromDomain converts a domain entity to a MongoDB document
func MongoProductSyncDocFromDomain(record *domain.ProductSyncRecord) *MongoProductSyncDoc {
	doc := &MongoProductSyncDoc{
		ShopDomain:      record.ShopDomain,
		ProductGID:      record.ProductGID,
		TenantID:        record.TenantID,
		LedgerProductID: record.LedgerProductID,
		ProductTitle:    record.ProductTitle,
		SyncedAt:        record.SyncedAt,
	}
	if record.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(record.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}
