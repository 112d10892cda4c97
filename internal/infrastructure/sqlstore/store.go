package sqlstore

import (
	"context"
	"fmt"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenPostgres opens a Postgres connection for the sync record tables
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Store implements SyncRecordStore on a relational database
type Store struct {
	db *gorm.DB
}

// NewStore creates a new SQL sync record store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ ports.SyncRecordStore = (*Store)(nil)

// Migrate creates or updates the record tables and their unique key indexes
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&OrderSyncRecordModel{}, &ProductSyncRecordModel{}); err != nil {
		return fmt.Errorf("failed to migrate sync record tables: %w", err)
	}
	return nil
}

// FindOrderRecord retrieves the order sync record for a key
func (s *Store) FindOrderRecord(ctx context.Context, key domain.OrderSyncKey) (*domain.OrderSyncRecord, error) {
	model, err := findOrder(s.db.WithContext(ctx), key)
	if err != nil || model == nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpsertOrderRecord loads, mutates and saves the record inside one transaction
func (s *Store) UpsertOrderRecord(ctx context.Context, key domain.OrderSyncKey, mutate func(*domain.OrderSyncRecord)) (*domain.OrderSyncRecord, error) {
	var result *domain.OrderSyncRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := findOrder(tx, key)
		if err != nil {
			return err
		}
		isNew := model == nil
		if isNew {
			model = &OrderSyncRecordModel{ID: uuid.NewString(), OrderNumber: key.OrderNumber, TenantID: key.TenantID}
		}

		record := model.ToDomain()
		mutate(record)
		model.apply(record)

		if isNew {
			err = tx.Create(model).Error
		} else {
			err = tx.Save(model).Error
		}
		if err != nil {
			return fmt.Errorf("failed to save order sync record: %w", err)
		}
		result = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindProductRecord retrieves the product sync record for a key
func (s *Store) FindProductRecord(ctx context.Context, key domain.ProductSyncKey) (*domain.ProductSyncRecord, error) {
	model, err := findProduct(s.db.WithContext(ctx), key)
	if err != nil || model == nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpsertProductRecord loads, mutates and saves the record inside one transaction
func (s *Store) UpsertProductRecord(ctx context.Context, key domain.ProductSyncKey, mutate func(*domain.ProductSyncRecord)) (*domain.ProductSyncRecord, error) {
	var result *domain.ProductSyncRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := findProduct(tx, key)
		if err != nil {
			return err
		}
		isNew := model == nil
		if isNew {
			model = &ProductSyncRecordModel{ID: uuid.NewString(), ProductGID: key.ProductGID, TenantID: key.TenantID}
		}

		record := model.ToDomain()
		mutate(record)
		model.apply(record)

		if isNew {
			err = tx.Create(model).Error
		} else {
			err = tx.Save(model).Error
		}
		if err != nil {
			return fmt.Errorf("failed to save product sync record: %w", err)
		}
		result = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findOrder(db *gorm.DB, key domain.OrderSyncKey) (*OrderSyncRecordModel, error) {
	var models []OrderSyncRecordModel
	err := db.Where("order_number = ? AND tenant_id = ?", key.OrderNumber, key.TenantID).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get order sync record: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return &models[0], nil
}

func findProduct(db *gorm.DB, key domain.ProductSyncKey) (*ProductSyncRecordModel, error) {
	var models []ProductSyncRecordModel
	err := db.Where("product_gid = ? AND tenant_id = ?", key.ProductGID, key.TenantID).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get product sync record: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return &models[0], nil
}
