package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/infrastructure/repository/entity"
	"shopify-ledger-sync/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConnectionRepository implements ConnectionRepository using MongoDB
type MongoConnectionRepository struct {
	collection *mongo.Collection
}

// NewMongoConnectionRepository creates a new MongoDB connection repository
func NewMongoConnectionRepository(db *mongo.Database) *MongoConnectionRepository {
	return &MongoConnectionRepository{
		collection: db.Collection("tenant_connections"),
	}
}

var _ ports.ConnectionRepository = (*MongoConnectionRepository)(nil)

// EnsureIndexes creates the lookup indexes if they don't exist
func (r *MongoConnectionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "tenantId", Value: 1}}},
		{Keys: bson.D{{Key: "installationId", Value: 1}}},
		{Keys: bson.D{{Key: "autoSync", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create connection indexes: %w", err)
	}
	return nil
}

// FindByShopAndTenant retrieves a connection by shop domain and tenant
func (r *MongoConnectionRepository) FindByShopAndTenant(ctx context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error) {
	return r.findOne(ctx, bson.M{"shopDomain": shopDomain, "tenantId": tenantID})
}

// FindByInstallation retrieves the connection bound to an installation
func (r *MongoConnectionRepository) FindByInstallation(ctx context.Context, installationID string) (*domain.TenantConnection, error) {
	return r.findOne(ctx, bson.M{"installationId": installationID})
}

// FindByTenant retrieves every connection of a tenant, oldest first
func (r *MongoConnectionRepository) FindByTenant(ctx context.Context, tenantID int64) ([]*domain.TenantConnection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"tenantId": tenantID}, opts)
}

// ListAutoSync retrieves every connection with auto-sync enabled
func (r *MongoConnectionRepository) ListAutoSync(ctx context.Context) ([]*domain.TenantConnection, error) {
	return r.find(ctx, bson.M{"autoSync": true}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// Save inserts a new connection or replaces an existing one
func (r *MongoConnectionRepository) Save(ctx context.Context, connection *domain.TenantConnection) error {
	doc := entity.MongoConnectionDocFromDomain(connection)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("failed to create connection: %w", err)
		}
	} else {
		opts := options.Replace().SetUpsert(true)
		if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
			return fmt.Errorf("failed to save connection: %w", err)
		}
	}

	connection.ID = doc.ID.Hex()
	connection.CreatedAt = doc.CreatedAt
	connection.UpdatedAt = doc.UpdatedAt
	return nil
}

// Update loads a connection, applies mutate and replaces the stored document
func (r *MongoConnectionRepository) Update(ctx context.Context, id string, mutate func(*domain.TenantConnection) error) (*domain.TenantConnection, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid connection ID: %w", err)
	}

	connection, err := r.findOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return nil, err
	}
	if connection == nil {
		return nil, domain.NewNotFoundError("connection %s not found", id)
	}

	if err := mutate(connection); err != nil {
		return nil, err
	}

	doc := entity.MongoConnectionDocFromDomain(connection)
	doc.ID = objID
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objID}, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, domain.NewNotFoundError("connection %s not found", id)
	}
	return connection, nil
}

// Delete deletes a connection by ID
func (r *MongoConnectionRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid connection ID: %w", err)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.NewNotFoundError("connection %s not found", id)
	}
	return nil
}

func (r *MongoConnectionRepository) findOne(ctx context.Context, filter bson.M) (*domain.TenantConnection, error) {
	var doc entity.MongoConnectionDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return doc.ToDomain(), nil
}

func (r *MongoConnectionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.TenantConnection, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer cursor.Close(ctx)

	var connections []*domain.TenantConnection
	for cursor.Next(ctx) {
		var doc entity.MongoConnectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode connection: %w", err)
		}
		connections = append(connections, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return connections, nil
}
