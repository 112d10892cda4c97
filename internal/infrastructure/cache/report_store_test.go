package cache

import (
	"context"
	"testing"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.SweepReport {
	return &domain.SweepReport{
		RunID:          "run-1",
		ShopDomain:     "demo.myshopify.com",
		TenantID:       7,
		StartedAt:      time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		FinishedAt:     time.Date(2024, 5, 10, 0, 5, 0, 0, time.UTC),
		ProductsSynced: 3,
		OrdersFailed:   1,
		LastError:      "order 1002: ledger order creation failed",
	}
}

func exerciseStore(t *testing.T, store ports.SweepReportStore) {
	ctx := context.Background()

	missing, err := store.LatestReport(ctx, "demo.myshopify.com", 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.SaveReport(ctx, sampleReport()))

	found, err := store.LatestReport(ctx, " DEMO.myshopify.com ", 7)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, *sampleReport(), *found)

	next := sampleReport()
	next.RunID = "run-2"
	require.NoError(t, store.SaveReport(ctx, next))
	found, err = store.LatestReport(ctx, "demo.myshopify.com", 7)
	require.NoError(t, err)
	assert.Equal(t, "run-2", found.RunID)

	other, err := store.LatestReport(ctx, "demo.myshopify.com", 8)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryReportStore(t *testing.T) {
	exerciseStore(t, NewMemoryReportStore())
}

func TestRedisReportStore(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := NewRedisReportStoreWithClient(client, "test:", time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)

	assert.True(t, server.Exists("test:7:demo.myshopify.com"))
	assert.Equal(t, time.Hour, server.TTL("test:7:demo.myshopify.com"))

	server.FastForward(2 * time.Hour)
	expired, err := store.LatestReport(context.Background(), "demo.myshopify.com", 7)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestNewRedisReportStore(t *testing.T) {
	server := miniredis.RunT(t)

	store, err := NewRedisReportStore(context.Background(), "redis://"+server.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewRedisReportStore(context.Background(), "://bad")
	assert.Error(t, err)
}
