package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "ledger-sync:sweep:"
	defaultReportTTL = 7 * 24 * time.Hour
)

// RedisReportStore keeps the latest sweep report per connection in Redis
type RedisReportStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReportStore connects to the Redis URL and verifies the connection
func NewRedisReportStore(ctx context.Context, redisURL string) (*RedisReportStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisReportStoreWithClient(client, "", 0), nil
}

// NewRedisReportStoreWithClient creates a store with an existing Redis client
func NewRedisReportStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisReportStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &RedisReportStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

var _ ports.SweepReportStore = (*RedisReportStore)(nil)

func (s *RedisReportStore) key(shopDomain string, tenantID int64) string {
	return fmt.Sprintf("%s%d:%s", s.keyPrefix, tenantID, domain.NormalizeShopDomain(shopDomain))
}

// SaveReport overwrites the previous report of the connection
func (s *RedisReportStore) SaveReport(ctx context.Context, report *domain.SweepReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode sweep report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(report.ShopDomain, report.TenantID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save sweep report: %w", err)
	}
	return nil
}

// LatestReport returns nil when no report is stored or it has expired
func (s *RedisReportStore) LatestReport(ctx context.Context, shopDomain string, tenantID int64) (*domain.SweepReport, error) {
	payload, err := s.client.Get(ctx, s.key(shopDomain, tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep report: %w", err)
	}

	var report domain.SweepReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode sweep report: %w", err)
	}
	return &report, nil
}

// Close closes the Redis client
func (s *RedisReportStore) Close() error {
	return s.client.Close()
}
