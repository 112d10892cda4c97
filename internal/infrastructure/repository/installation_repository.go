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

// MongoInstallationRepository implements InstallationRepository using MongoDB.
// Installations are keyed by shop domain.
type MongoInstallationRepository struct {
	collection *mongo.Collection
}

// NewMongoInstallationRepository creates a new MongoDB installation repository
func NewMongoInstallationRepository(db *mongo.Database) *MongoInstallationRepository {
	return &MongoInstallationRepository{
		collection: db.Collection("shop_installations"),
	}
}

var _ ports.InstallationRepository = (*MongoInstallationRepository)(nil)

// EnsureIndexes creates the unique shop domain index if it doesn't exist
func (r *MongoInstallationRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create installation index: %w", err)
	}
	return nil
}

// FindByShopDomain retrieves an installation by shop domain
func (r *MongoInstallationRepository) FindByShopDomain(ctx context.Context, shopDomain string) (*domain.ShopInstallation, error) {
	var doc entity.MongoInstallationDoc
	err := r.collection.FindOne(ctx, bson.M{"shopDomain": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	return doc.ToDomain(), nil
}

// Save upserts an installation by shop domain and fills in its ID
func (r *MongoInstallationRepository) Save(ctx context.Context, installation *domain.ShopInstallation) error {
	doc := entity.MongoInstallationDocFromDomain(installation)
	doc.UpdatedAt = time.Now()
	if doc.InstalledAt.IsZero() {
		doc.InstalledAt = doc.UpdatedAt
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	update := bson.M{
		"$set": bson.M{
			"accessToken": doc.AccessToken,
			"scopes":      doc.Scopes,
			"updatedAt":   doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":         doc.ID,
			"installedAt": doc.InstalledAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved entity.MongoInstallationDoc
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"shopDomain": doc.ShopDomain}, update, opts).Decode(&saved)
	if err != nil {
		return fmt.Errorf("failed to save installation: %w", err)
	}

	installation.ID = saved.ID.Hex()
	installation.InstalledAt = saved.InstalledAt
	installation.UpdatedAt = saved.UpdatedAt
	return nil
}

// Delete deletes an installation by ID
func (r *MongoInstallationRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid installation ID: %w", err)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.NewNotFoundError("installation %s not found", id)
	}
	return nil
}
