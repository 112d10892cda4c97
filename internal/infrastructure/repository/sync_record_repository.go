package repository

import (
	"context"
	"fmt"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/infrastructure/repository/entity"
	"shopify-ledger-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSyncRecordRepository implements SyncRecordStore using MongoDB
type MongoSyncRecordRepository struct {
	ordersCollection   *mongo.Collection
	productsCollection *mongo.Collection
}

// NewMongoSyncRecordRepository creates a new MongoDB sync record repository
func NewMongoSyncRecordRepository(db *mongo.Database) *MongoSyncRecordRepository {
	return &MongoSyncRecordRepository{
		ordersCollection:   db.Collection("order_sync_records"),
		productsCollection: db.Collection("product_sync_records"),
	}
}

var _ ports.SyncRecordStore = (*MongoSyncRecordRepository)(nil)

// EnsureIndexes creates the unique record key indexes if they don't exist
func (r *MongoSyncRecordRepository) EnsureIndexes(ctx context.Context) error {
	orderIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopifyOrderNumber", Value: 1}, {Key: "tenantId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.ordersCollection.Indexes().CreateOne(ctx, orderIndex); err != nil {
		return fmt.Errorf("failed to create order sync index: %w", err)
	}

	productIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopifyProductGid", Value: 1}, {Key: "tenantId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.productsCollection.Indexes().CreateOne(ctx, productIndex); err != nil {
		return fmt.Errorf("failed to create product sync index: %w", err)
	}
	return nil
}

// FindOrderRecord retrieves the order sync record for a key
func (r *MongoSyncRecordRepository) FindOrderRecord(ctx context.Context, key domain.OrderSyncKey) (*domain.OrderSyncRecord, error) {
	var doc entity.MongoOrderSyncDoc
	err := r.ordersCollection.FindOne(ctx, orderFilter(key)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order sync record: %w", err)
	}
	return doc.ToDomain(), nil
}

// UpsertOrderRecord applies mutate to the stored record, or to a fresh one, and replaces it
func (r *MongoSyncRecordRepository) UpsertOrderRecord(ctx context.Context, key domain.OrderSyncKey, mutate func(*domain.OrderSyncRecord)) (*domain.OrderSyncRecord, error) {
	record, err := r.FindOrderRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &domain.OrderSyncRecord{OrderNumber: key.OrderNumber, TenantID: key.TenantID}
	}
	mutate(record)
	record.OrderNumber = key.OrderNumber
	record.TenantID = key.TenantID

	doc := entity.MongoOrderSyncDocFromDomain(record)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.ordersCollection.ReplaceOne(ctx, orderFilter(key), doc, opts); err != nil {
		return nil, fmt.Errorf("failed to save order sync record: %w", err)
	}

	record.ID = doc.ID.Hex()
	return record, nil
}

// FindProductRecord retrieves the product sync record for a key
func (r *MongoSyncRecordRepository) FindProductRecord(ctx context.Context, key domain.ProductSyncKey) (*domain.ProductSyncRecord, error) {
	var doc entity.MongoProductSyncDoc
	err := r.productsCollection.FindOne(ctx, productFilter(key)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product sync record: %w", err)
	}
	return doc.ToDomain(), nil
}

// UpsertProductRecord applies mutate to the stored record, or to a fresh one, and replaces it
func (r *MongoSyncRecordRepository) UpsertProductRecord(ctx context.Context, key domain.ProductSyncKey, mutate func(*domain.ProductSyncRecord)) (*domain.ProductSyncRecord, error) {
	record, err := r.FindProductRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &domain.ProductSyncRecord{ProductGID: key.ProductGID, TenantID: key.TenantID}
	}
	mutate(record)
	record.ProductGID = key.ProductGID
	record.TenantID = key.TenantID

	doc := entity.MongoProductSyncDocFromDomain(record)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.productsCollection.ReplaceOne(ctx, productFilter(key), doc, opts); err != nil {
		return nil, fmt.Errorf("failed to save product sync record: %w", err)
	}

	record.ID = doc.ID.Hex()
	return record, nil
}

func orderFilter(key domain.OrderSyncKey) bson.M {
	return bson.M{"shopifyOrderNumber": key.OrderNumber, "tenantId": key.TenantID}
}

func productFilter(key domain.ProductSyncKey) bson.M {
	return bson.M{"shopifyProductGid": key.ProductGID, "tenantId": key.TenantID}
}
