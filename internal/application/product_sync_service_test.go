package application

import (
	"context"
	"errors"
	"testing"

	"shopify-ledger-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleGID = "gid://shopify/Product/42"

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func sampleProduct() *domain.SourceProduct {
	return &domain.SourceProduct{
		GID:         sampleGID,
		Title:       "Wool Sweater",
		Description: "Warm and soft ",
		Variants: []domain.SourceVariant{
			{
				GID:               "gid://shopify/ProductVariant/1",
				SKU:               " SW-M ",
				Barcode:           "7040000000001",
				SellingPrice:      money("499.00"),
				CostPrice:         money("200.00"),
				InventoryQuantity: intPtr(5),
				SelectedOptions:   []domain.SelectedOption{{Name: "Size", Value: "M"}, {Name: "color", Value: "Blue"}},
			},
			{
				GID:             "gid://shopify/ProductVariant/2",
				SKU:             "SW-L",
				SellingPrice:    money("499.00"),
				SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "L"}, {Name: "Color", Value: "Blue"}},
			},
			{
				GID:             "gid://shopify/ProductVariant/3",
				SKU:             "  ",
				SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "XL"}},
			},
		},
	}
}

// snapshotOf mirrors what the ledger stores after accepting payload
func snapshotOf(payload *domain.ProductSyncPayload) *domain.ProductSnapshot {
	snapshot := &domain.ProductSnapshot{
		ProductID:   *payload.ProductID,
		Title:       payload.Title,
		Description: payload.Description,
	}
	for _, t := range payload.VariantOptionTypes {
		snapshot.VariantOptionTypes = append(snapshot.VariantOptionTypes, string(t))
	}
	for i, v := range payload.Variants {
		options := make(map[string]string, len(v.Options))
		for t, value := range v.Options {
			options[string(t)] = value
		}
		snapshot.Variants = append(snapshot.Variants, domain.VariantSnapshot{
			VariantID:         int64(i + 1),
			SKU:               v.SKU,
			Barcode:           v.Barcode,
			CostPrice:         v.CostPrice,
			SellingPrice:      v.SellingPrice,
			Options:           options,
			InventoryQuantity: v.Inventory,
			WarehouseName:     v.WarehouseName,
		})
	}
	return snapshot
}

func TestBuildSyncPayload(t *testing.T) {
	payload, err := BuildSyncPayload(sampleProduct(), int64Ptr(900))
	require.NoError(t, err)

	assert.Equal(t, int64Ptr(900), payload.ProductID)
	assert.Equal(t, "Wool Sweater", payload.Title)
	require.NotNil(t, payload.Description)
	assert.Equal(t, "Warm and soft", *payload.Description)
	assert.Equal(t, []domain.OptionType{domain.OptionSize, domain.OptionColor}, payload.VariantOptionTypes)

	require.Len(t, payload.Variants, 2)
	first := payload.Variants[0]
	assert.Equal(t, "SW-M", first.SKU)
	assert.Equal(t, map[domain.OptionType]string{domain.OptionSize: "M", domain.OptionColor: "Blue"}, first.Options)
	assert.True(t, first.CostPrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, intPtr(5), first.Inventory)

	second := payload.Variants[1]
	assert.Nil(t, second.Barcode)
	assert.True(t, second.CostPrice.IsZero())
	assert.Nil(t, second.Inventory)
}

func TestBuildSyncPayload_Rejections(t *testing.T) {
	noSKU := sampleProduct()
	for i := range noSKU.Variants {
		noSKU.Variants[i].SKU = ""
	}
	_, err := BuildSyncPayload(noSKU, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "no variants with SKU")

	unsupported := sampleProduct()
	unsupported.Variants[0].SelectedOptions = append(unsupported.Variants[0].SelectedOptions, domain.SelectedOption{Name: "Material", Value: "Wool"})
	_, err = BuildSyncPayload(unsupported, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Material")
}

func TestHasDifferences(t *testing.T) {
	base, err := BuildSyncPayload(sampleProduct(), int64Ptr(900))
	require.NoError(t, err)

	assert.False(t, HasDifferences(base, snapshotOf(base)), "identical snapshot")

	t.Run("display name option keys are accepted", func(t *testing.T) {
		snapshot := snapshotOf(base)
		snapshot.VariantOptionTypes = []string{"size", "Color"}
		snapshot.Variants[0].Options = map[string]string{"Size": "M", "color": "Blue"}
		assert.False(t, HasDifferences(base, snapshot))
	})

	t.Run("inventory unknown locally is ignored", func(t *testing.T) {
		snapshot := snapshotOf(base)
		snapshot.Variants[1].InventoryQuantity = intPtr(12)
		assert.False(t, HasDifferences(base, snapshot))
	})

	t.Run("blank description equals missing", func(t *testing.T) {
		payload := *base
		payload.Description = nil
		snapshot := snapshotOf(base)
		snapshot.Description = strPtr("  ")
		assert.False(t, HasDifferences(&payload, snapshot))
	})

	changes := map[string]func(s *domain.ProductSnapshot){
		"title":          func(s *domain.ProductSnapshot) { s.Title = "Cotton Sweater" },
		"description":    func(s *domain.ProductSnapshot) { s.Description = strPtr("Itchy") },
		"option types":   func(s *domain.ProductSnapshot) { s.VariantOptionTypes = []string{"SIZE"} },
		"missing sku":    func(s *domain.ProductSnapshot) { s.Variants = s.Variants[:1] },
		"renamed sku":    func(s *domain.ProductSnapshot) { s.Variants[1].SKU = "SW-XL" },
		"barcode":        func(s *domain.ProductSnapshot) { s.Variants[0].Barcode = strPtr("123") },
		"cost price":     func(s *domain.ProductSnapshot) { s.Variants[0].CostPrice = decimal.NewFromInt(199) },
		"selling price":  func(s *domain.ProductSnapshot) { s.Variants[1].SellingPrice = decimal.RequireFromString("499.01") },
		"option value":   func(s *domain.ProductSnapshot) { s.Variants[0].Options["SIZE"] = "S" },
		"unknown option": func(s *domain.ProductSnapshot) { s.Variants[0].Options["MATERIAL"] = "Wool" },
		"inventory":      func(s *domain.ProductSnapshot) { s.Variants[0].InventoryQuantity = intPtr(4) },
		"inventory gone": func(s *domain.ProductSnapshot) { s.Variants[0].InventoryQuantity = nil },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			snapshot := snapshotOf(base)
			change(snapshot)
			assert.True(t, HasDifferences(base, snapshot))
		})
	}
}

func TestHasDifferences_EqualPricesWithDifferentScale(t *testing.T) {
	base, err := BuildSyncPayload(sampleProduct(), int64Ptr(900))
	require.NoError(t, err)
	snapshot := snapshotOf(base)
	snapshot.Variants[0].SellingPrice = decimal.RequireFromString("499")
	assert.False(t, HasDifferences(base, snapshot))
}

func TestDetermineSyncRequired(t *testing.T) {
	ctx := context.Background()
	product := sampleProduct()
	record := &domain.ProductSyncRecord{ProductGID: sampleGID, LedgerProductID: int64Ptr(900)}

	t.Run("no record", func(t *testing.T) {
		engine := NewProductDiffEngine(&mockLedger{}, zerolog.Nop())
		assert.True(t, engine.DetermineSyncRequired(ctx, product, nil, "tok"))
		assert.True(t, engine.DetermineSyncRequired(ctx, product, &domain.ProductSyncRecord{}, "tok"))
	})

	t.Run("no token", func(t *testing.T) {
		ledger := &mockLedger{}
		engine := NewProductDiffEngine(ledger, zerolog.Nop())
		assert.True(t, engine.DetermineSyncRequired(ctx, product, record, " "))
		ledger.AssertNotCalled(t, "FetchProductSnapshot", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("snapshot missing", func(t *testing.T) {
		ledger := &mockLedger{}
		ledger.On("FetchProductSnapshot", mock.Anything, "tok", int64(900)).Return(nil, nil)
		engine := NewProductDiffEngine(ledger, zerolog.Nop())
		assert.True(t, engine.DetermineSyncRequired(ctx, product, record, "tok"))
	})

	t.Run("snapshot fetch fails", func(t *testing.T) {
		ledger := &mockLedger{}
		ledger.On("FetchProductSnapshot", mock.Anything, "tok", int64(900)).Return(nil, errors.New("connection reset"))
		engine := NewProductDiffEngine(ledger, zerolog.Nop())
		assert.True(t, engine.DetermineSyncRequired(ctx, product, record, "tok"))
	})

	t.Run("unchanged", func(t *testing.T) {
		payload, err := BuildSyncPayload(product, record.LedgerProductID)
		require.NoError(t, err)
		ledger := &mockLedger{}
		ledger.On("FetchProductSnapshot", mock.Anything, "tok", int64(900)).Return(snapshotOf(payload), nil)
		engine := NewProductDiffEngine(ledger, zerolog.Nop())
		assert.False(t, engine.DetermineSyncRequired(ctx, product, record, "tok"))
	})

	t.Run("payload cannot be built", func(t *testing.T) {
		ledger := &mockLedger{}
		engine := NewProductDiffEngine(ledger, zerolog.Nop())
		broken := sampleProduct()
		broken.Variants = nil
		assert.True(t, engine.DetermineSyncRequired(ctx, broken, record, "tok"))
		ledger.AssertNotCalled(t, "FetchProductSnapshot", mock.Anything, mock.Anything, mock.Anything)
	})
}

type productFixture struct {
	service     *ProductSyncService
	products    *mockProducts
	ledger      *mockLedger
	records     *memoryRecords
	connections *memoryConnections
}

func newProductFixture(t *testing.T, connection *domain.TenantConnection) *productFixture {
	t.Helper()
	f := &productFixture{
		products:    &mockProducts{},
		ledger:      &mockLedger{},
		records:     newMemoryRecords(),
		connections: newMemoryConnections(),
	}
	if connection != nil {
		require.NoError(t, f.connections.Save(context.Background(), connection))
	}
	tokens := newTestTokenService(f.connections, &mockExchange{}, newRecordingMetrics())
	f.service = NewProductSyncService(
		f.products,
		f.connections,
		f.records,
		f.ledger,
		tokens,
		NewProductDiffEngine(f.ledger, zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)
	f.service.now = fixedClock(testNow)
	return f
}

func TestSyncProduct_CreatesThenUpdates(t *testing.T) {
	f := newProductFixture(t, tenantConnection("tok"))
	ctx := context.Background()

	f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).Return(sampleProduct(), nil)
	f.ledger.On("PushProduct", mock.Anything, "tok", mock.MatchedBy(func(p *domain.ProductSyncPayload) bool {
		return p.ProductID == nil
	})).Return(&domain.ProductPushResult{
		ProductID: 900,
		Variants:  []domain.VariantMapping{{VariantID: 1, SKU: "SW-M"}, {VariantID: 2, SKU: "SW-L"}},
	}, nil).Once()

	result, err := f.service.SyncProduct(ctx, testShop, "42", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(900), result.Status.LedgerProductID)
	assert.Len(t, result.Status.VariantMappings, 2)
	assert.Equal(t, testNow, result.Status.SyncedAt)

	record, err := f.records.FindProductRecord(ctx, domain.ProductSyncKey{ProductGID: sampleGID, TenantID: 7})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64Ptr(900), record.LedgerProductID)
	assert.Equal(t, "Wool Sweater", record.ProductTitle)
	assert.Equal(t, testShop, record.ShopDomain)

	f.ledger.On("PushProduct", mock.Anything, "tok", mock.MatchedBy(func(p *domain.ProductSyncPayload) bool {
		return p.ProductID != nil && *p.ProductID == 900
	})).Return(&domain.ProductPushResult{ProductID: 900}, nil).Once()

	_, err = f.service.SyncProduct(ctx, testShop, sampleGID, 7)
	require.NoError(t, err)
	f.ledger.AssertExpectations(t)
}

func TestSyncProduct_CompletesAfterCallerCancels(t *testing.T) {
	f := newProductFixture(t, tenantConnection("tok"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).
		Run(func(mock.Arguments) { cancel() }).
		Return(sampleProduct(), nil)

	var pushCtxErr error
	f.ledger.On("PushProduct", mock.Anything, "tok", mock.Anything).
		Run(func(args mock.Arguments) { pushCtxErr = args.Get(0).(context.Context).Err() }).
		Return(&domain.ProductPushResult{ProductID: 900}, nil).Once()

	_, err := f.service.SyncProduct(ctx, testShop, sampleGID, 7)

	require.NoError(t, err)
	assert.NoError(t, pushCtxErr)
	record, err := f.records.FindProductRecord(context.Background(), domain.ProductSyncKey{ProductGID: sampleGID, TenantID: 7})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64Ptr(900), record.LedgerProductID)
}

func TestSyncProduct_ThenDiffReportsUnchanged(t *testing.T) {
	f := newProductFixture(t, tenantConnection("tok"))
	ctx := context.Background()

	var pushed *domain.ProductSyncPayload
	f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).Return(sampleProduct(), nil)
	f.ledger.On("PushProduct", mock.Anything, "tok", mock.Anything).
		Run(func(args mock.Arguments) { pushed = args.Get(2).(*domain.ProductSyncPayload) }).
		Return(&domain.ProductPushResult{ProductID: 900}, nil)

	_, err := f.service.SyncProduct(ctx, testShop, sampleGID, 7)
	require.NoError(t, err)

	pushed.ProductID = int64Ptr(900)
	f.ledger.On("FetchProductSnapshot", mock.Anything, "tok", int64(900)).Return(snapshotOf(pushed), nil)

	required, err := f.service.RequiresSync(ctx, testShop, sampleProduct(), 7)
	require.NoError(t, err)
	assert.False(t, required)
}

func TestSyncProduct_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid id", func(t *testing.T) {
		f := newProductFixture(t, tenantConnection("tok"))
		_, err := f.service.SyncProduct(ctx, testShop, "abc", 7)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing connection", func(t *testing.T) {
		f := newProductFixture(t, nil)
		f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).Return(sampleProduct(), nil)
		_, err := f.service.SyncProduct(ctx, testShop, sampleGID, 7)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newProductFixture(t, tenantConnection("tok"))
		f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).
			Return(nil, domain.NewNotFoundError("product %s not found", sampleGID))
		_, err := f.service.SyncProduct(ctx, testShop, sampleGID, 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("push rejected keeps no record", func(t *testing.T) {
		f := newProductFixture(t, tenantConnection("tok"))
		f.products.On("FetchProductByID", mock.Anything, testShop, sampleGID, int64(7)).Return(sampleProduct(), nil)
		f.ledger.On("PushProduct", mock.Anything, "tok", mock.Anything).
			Return(nil, domain.NewUpstreamError("ledger product push failed", 400, "bad sku", nil))
		_, err := f.service.SyncProduct(ctx, testShop, sampleGID, 7)
		assert.ErrorIs(t, err, domain.ErrUpstream)

		record, err := f.records.FindProductRecord(ctx, domain.ProductSyncKey{ProductGID: sampleGID, TenantID: 7})
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestSearchProducts(t *testing.T) {
	f := newProductFixture(t, tenantConnection("tok"))
	ctx := context.Background()

	_, err := f.service.SearchProducts(ctx, testShop, "  ", 7, "tok")
	assert.ErrorIs(t, err, domain.ErrValidation)

	other := sampleProduct()
	other.GID = "gid://shopify/Product/43"
	f.products.On("SearchProducts", mock.Anything, testShop, "sweater", int64(7)).
		Return([]*domain.SourceProduct{sampleProduct(), other}, nil)
	_, err = f.records.UpsertProductRecord(ctx, domain.ProductSyncKey{ProductGID: sampleGID, TenantID: 7}, func(r *domain.ProductSyncRecord) {
		r.LedgerProductID = int64Ptr(900)
	})
	require.NoError(t, err)

	payload, err := BuildSyncPayload(sampleProduct(), int64Ptr(900))
	require.NoError(t, err)
	f.ledger.On("FetchProductSnapshot", mock.Anything, "tok", int64(900)).Return(snapshotOf(payload), nil)

	comparisons, err := f.service.SearchProducts(ctx, testShop, "sweater", 7, "tok")
	require.NoError(t, err)
	require.Len(t, comparisons, 2)
	assert.NotNil(t, comparisons[0].SyncRecord)
	assert.False(t, comparisons[0].SyncRequired)
	assert.Nil(t, comparisons[1].SyncRecord)
	assert.True(t, comparisons[1].SyncRequired)
}
