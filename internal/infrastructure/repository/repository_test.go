package repository

import (
	"context"
	"testing"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/infrastructure/repository/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func toBsonD(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func int64Ptr(v int64) *int64 { return &v }

func TestMongoConnectionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "test.tenant_connections"
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	connectionDoc := func(id primitive.ObjectID) bson.D {
		return toBsonD(t, entity.MongoConnectionDoc{
			ID:           id,
			TenantID:     int64Ptr(7),
			ShopDomain:   "demo.myshopify.com",
			AccessToken:  "tok",
			ClientID:     "client",
			ClientSecret: "secret",
			AutoSync:     true,
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}

	mt.Run("find by shop and tenant", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, connectionDoc(id)))

		connection, err := repo.FindByShopAndTenant(ctx, "demo.myshopify.com", 7)
		require.NoError(t, err)
		require.NotNil(t, connection)
		assert.Equal(t, id.Hex(), connection.ID)
		assert.Equal(t, int64(7), connection.Tenant())
		assert.Equal(t, "secret", connection.ClientSecret)
		assert.True(t, connection.AutoSync)
	})

	mt.Run("find returns nil when missing", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		connection, err := repo.FindByInstallation(ctx, "inst-1")
		require.NoError(t, err)
		assert.Nil(t, connection)
	})

	mt.Run("list auto-sync", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			connectionDoc(primitive.NewObjectID()),
			connectionDoc(primitive.NewObjectID()),
		))

		connections, err := repo.ListAutoSync(ctx)
		require.NoError(t, err)
		assert.Len(t, connections, 2)
	})

	mt.Run("save assigns id", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		connection := &domain.TenantConnection{TenantID: int64Ptr(7), ShopDomain: "demo.myshopify.com"}
		require.NoError(t, repo.Save(ctx, connection))
		_, err := primitive.ObjectIDFromHex(connection.ID)
		assert.NoError(t, err)
		assert.False(t, connection.CreatedAt.IsZero())
	})

	mt.Run("update applies mutation", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, connectionDoc(id)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		updated, err := repo.Update(ctx, id.Hex(), func(c *domain.TenantConnection) error {
			c.AccessToken = "fresh"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", updated.AccessToken)
		assert.Equal(t, id.Hex(), updated.ID)
	})

	mt.Run("update missing connection", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Update(ctx, primitive.NewObjectID().Hex(), func(*domain.TenantConnection) error { return nil })
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoConnectionRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Delete(ctx, primitive.NewObjectID().Hex()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(t, repo.Delete(ctx, primitive.NewObjectID().Hex()), domain.ErrNotFound)

		assert.Error(t, repo.Delete(ctx, "not-an-object-id"))
	})
}

func TestMongoInstallationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("save upserts by shop domain", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		id := primitive.NewObjectID()
		installed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toBsonD(t, entity.MongoInstallationDoc{
			ID:          id,
			ShopDomain:  "demo.myshopify.com",
			AccessToken: "shpat_1",
			InstalledAt: installed,
			UpdatedAt:   installed,
		})}))

		installation := &domain.ShopInstallation{ShopDomain: "demo.myshopify.com", AccessToken: "shpat_1"}
		require.NoError(t, repo.Save(ctx, installation))
		assert.Equal(t, id.Hex(), installation.ID)
		assert.Equal(t, installed, installation.InstalledAt.UTC())
	})

	mt.Run("find by shop domain", func(mt *mtest.T) {
		repo := NewMongoInstallationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.shop_installations", mtest.FirstBatch, toBsonD(t, entity.MongoInstallationDoc{
			ID:          primitive.NewObjectID(),
			ShopDomain:  "demo.myshopify.com",
			AccessToken: "shpat_1",
			Scopes:      "read_products,read_orders",
		})))

		installation, err := repo.FindByShopDomain(ctx, "demo.myshopify.com")
		require.NoError(t, err)
		require.NotNil(t, installation)
		assert.Equal(t, "shpat_1", installation.AccessToken)
		assert.Equal(t, "read_products,read_orders", installation.Scopes)
	})
}

func TestMongoSyncRecordRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	syncedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	mt.Run("find order record", func(mt *mtest.T) {
		repo := NewMongoSyncRecordRepository(mt.DB)
		invoiceNumber := "INV-1"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.order_sync_records", mtest.FirstBatch, toBsonD(t, entity.MongoOrderSyncDoc{
			ID:                  primitive.NewObjectID(),
			OrderNumber:         "1001",
			TenantID:            7,
			LedgerOrderID:       int64Ptr(100),
			LedgerInvoiceID:     int64Ptr(200),
			LedgerInvoiceNumber: &invoiceNumber,
			SyncedAt:            syncedAt,
		})))

		record, err := repo.FindOrderRecord(ctx, domain.OrderSyncKey{OrderNumber: "1001", TenantID: 7})
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Complete())
		assert.Equal(t, int64Ptr(100), record.LedgerOrderID)
	})

	mt.Run("upsert new order record", func(mt *mtest.T) {
		repo := NewMongoSyncRecordRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.order_sync_records", mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		record, err := repo.UpsertOrderRecord(ctx, domain.OrderSyncKey{OrderNumber: "1001", TenantID: 7}, func(r *domain.OrderSyncRecord) {
			r.LedgerOrderID = int64Ptr(100)
			r.SyncedAt = syncedAt
		})
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "1001", record.OrderNumber)
		assert.Equal(t, int64(7), record.TenantID)
		assert.Equal(t, int64Ptr(100), record.LedgerOrderID)
	})

	mt.Run("upsert existing product record keeps id", func(mt *mtest.T) {
		repo := NewMongoSyncRecordRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.product_sync_records", mtest.FirstBatch, toBsonD(t, entity.MongoProductSyncDoc{
				ID:              id,
				ProductGID:      "gid://shopify/Product/42",
				TenantID:        7,
				LedgerProductID: int64Ptr(900),
				ProductTitle:    "Old title",
			})),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		record, err := repo.UpsertProductRecord(ctx, domain.ProductSyncKey{ProductGID: "gid://shopify/Product/42", TenantID: 7}, func(r *domain.ProductSyncRecord) {
			r.ProductTitle = "Wool Sweater"
		})
		require.NoError(t, err)
		assert.Equal(t, id.Hex(), record.ID)
		assert.Equal(t, int64Ptr(900), record.LedgerProductID)
		assert.Equal(t, "Wool Sweater", record.ProductTitle)
	})
}
