package application

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"iter"
	"sync"
	"time"

	"shopify-ledger-sync/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) SearchCustomers(ctx context.Context, token, name string) ([]domain.LedgerCustomer, error) {
	args := m.Called(ctx, token, name)
	customers, _ := args.Get(0).([]domain.LedgerCustomer)
	return customers, args.Error(1)
}

func (m *mockLedger) CreateCustomer(ctx context.Context, token string, req *domain.CreateCustomerRequest) (*domain.LedgerCustomer, error) {
	args := m.Called(ctx, token, req)
	customer, _ := args.Get(0).(*domain.LedgerCustomer)
	return customer, args.Error(1)
}

func (m *mockLedger) CreateOrder(ctx context.Context, token string, req *domain.NewOrderRequest) (*domain.LedgerOrder, error) {
	args := m.Called(ctx, token, req)
	order, _ := args.Get(0).(*domain.LedgerOrder)
	return order, args.Error(1)
}

func (m *mockLedger) CreateInvoice(ctx context.Context, token string, req *domain.NewInvoiceRequest) (*domain.LedgerInvoice, error) {
	args := m.Called(ctx, token, req)
	invoice, _ := args.Get(0).(*domain.LedgerInvoice)
	return invoice, args.Error(1)
}

func (m *mockLedger) FetchProductSnapshot(ctx context.Context, token string, productID int64) (*domain.ProductSnapshot, error) {
	args := m.Called(ctx, token, productID)
	snapshot, _ := args.Get(0).(*domain.ProductSnapshot)
	return snapshot, args.Error(1)
}

func (m *mockLedger) PushProduct(ctx context.Context, token string, payload *domain.ProductSyncPayload) (*domain.ProductPushResult, error) {
	args := m.Called(ctx, token, payload)
	result, _ := args.Get(0).(*domain.ProductPushResult)
	return result, args.Error(1)
}

type mockExchange struct {
	mock.Mock
}

func (m *mockExchange) ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string, scopes []string) (string, error) {
	args := m.Called(ctx, clientID, clientSecret, scopes)
	return args.String(0), args.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) FetchOrderByNumber(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.SourceOrder, error) {
	args := m.Called(ctx, shopDomain, orderNumber, tenantID)
	order, _ := args.Get(0).(*domain.SourceOrder)
	return order, args.Error(1)
}

func (m *mockOrders) StreamAllOrders(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceOrder, error] {
	args := m.Called(ctx, shopDomain, tenantID)
	orders, _ := args.Get(0).([]*domain.SourceOrder)
	return sliceSeq(orders, args.Error(1))
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) SearchProducts(ctx context.Context, shopDomain, name string, tenantID int64) ([]*domain.SourceProduct, error) {
	args := m.Called(ctx, shopDomain, name, tenantID)
	products, _ := args.Get(0).([]*domain.SourceProduct)
	return products, args.Error(1)
}

func (m *mockProducts) FetchProductByID(ctx context.Context, shopDomain, productGID string, tenantID int64) (*domain.SourceProduct, error) {
	args := m.Called(ctx, shopDomain, productGID, tenantID)
	product, _ := args.Get(0).(*domain.SourceProduct)
	return product, args.Error(1)
}

func (m *mockProducts) StreamAllProducts(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceProduct, error] {
	args := m.Called(ctx, shopDomain, tenantID)
	products, _ := args.Get(0).([]*domain.SourceProduct)
	return sliceSeq(products, args.Error(1))
}

// sliceSeq yields every item and then the trailing error, if any
func sliceSeq[T any](items []T, tail error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if tail != nil {
			var zero T
			yield(zero, tail)
		}
	}
}

// memoryConnections is a map-backed ConnectionRepository
type memoryConnections struct {
	mu      sync.Mutex
	items   map[string]*domain.TenantConnection
	order   []string
	updates int
}

func newMemoryConnections(connections ...*domain.TenantConnection) *memoryConnections {
	repo := &memoryConnections{items: make(map[string]*domain.TenantConnection)}
	for _, c := range connections {
		_ = repo.Save(context.Background(), c)
	}
	return repo
}

func (r *memoryConnections) FindByShopAndTenant(_ context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		c := r.items[id]
		if c.ShopDomain == shopDomain && c.Tenant() == tenantID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryConnections) FindByInstallation(_ context.Context, installationID string) (*domain.TenantConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if c := r.items[id]; c.InstallationID == installationID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryConnections) FindByTenant(_ context.Context, tenantID int64) ([]*domain.TenantConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.TenantConnection
	for _, id := range r.order {
		if c := r.items[id]; c.Tenant() == tenantID {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memoryConnections) ListAutoSync(_ context.Context) ([]*domain.TenantConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.TenantConnection
	for _, id := range r.order {
		if c := r.items[id]; c.AutoSync {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memoryConnections) Save(_ context.Context, connection *domain.TenantConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if connection.ID == "" {
		connection.ID = "conn-" + string(rune('a'+len(r.order)))
	}
	if _, ok := r.items[connection.ID]; !ok {
		r.order = append(r.order, connection.ID)
	}
	copied := *connection
	r.items[connection.ID] = &copied
	return nil
}

func (r *memoryConnections) Update(_ context.Context, id string, mutate func(*domain.TenantConnection) error) (*domain.TenantConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("connection %s not found", id)
	}
	copied := *current
	if err := mutate(&copied); err != nil {
		return nil, err
	}
	r.items[id] = &copied
	r.updates++
	result := copied
	return &result, nil
}

func (r *memoryConnections) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryConnections) get(id string) *domain.TenantConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

type memoryInstallations struct {
	items map[string]*domain.ShopInstallation
}

func newMemoryInstallations(installations ...*domain.ShopInstallation) *memoryInstallations {
	repo := &memoryInstallations{items: make(map[string]*domain.ShopInstallation)}
	for _, i := range installations {
		_ = repo.Save(context.Background(), i)
	}
	return repo
}

func (r *memoryInstallations) FindByShopDomain(_ context.Context, shopDomain string) (*domain.ShopInstallation, error) {
	for _, i := range r.items {
		if i.ShopDomain == shopDomain {
			copied := *i
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryInstallations) Save(_ context.Context, installation *domain.ShopInstallation) error {
	if installation.ID == "" {
		installation.ID = "inst-" + installation.ShopDomain
	}
	copied := *installation
	r.items[installation.ID] = &copied
	return nil
}

func (r *memoryInstallations) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

// memoryRecords is a map-backed SyncRecordStore
type memoryRecords struct {
	orders   map[domain.OrderSyncKey]*domain.OrderSyncRecord
	products map[domain.ProductSyncKey]*domain.ProductSyncRecord
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{
		orders:   make(map[domain.OrderSyncKey]*domain.OrderSyncRecord),
		products: make(map[domain.ProductSyncKey]*domain.ProductSyncRecord),
	}
}

func (r *memoryRecords) FindOrderRecord(_ context.Context, key domain.OrderSyncKey) (*domain.OrderSyncRecord, error) {
	record, ok := r.orders[key]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *memoryRecords) UpsertOrderRecord(_ context.Context, key domain.OrderSyncKey, mutate func(*domain.OrderSyncRecord)) (*domain.OrderSyncRecord, error) {
	record, ok := r.orders[key]
	if !ok {
		record = &domain.OrderSyncRecord{ID: key.OrderNumber, OrderNumber: key.OrderNumber, TenantID: key.TenantID}
		r.orders[key] = record
	}
	mutate(record)
	copied := *record
	return &copied, nil
}

func (r *memoryRecords) FindProductRecord(_ context.Context, key domain.ProductSyncKey) (*domain.ProductSyncRecord, error) {
	record, ok := r.products[key]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *memoryRecords) UpsertProductRecord(_ context.Context, key domain.ProductSyncKey, mutate func(*domain.ProductSyncRecord)) (*domain.ProductSyncRecord, error) {
	record, ok := r.products[key]
	if !ok {
		record = &domain.ProductSyncRecord{ID: key.ProductGID, ProductGID: key.ProductGID, TenantID: key.TenantID}
		r.products[key] = record
	}
	mutate(record)
	copied := *record
	return &copied, nil
}

type memoryReports struct {
	saved []*domain.SweepReport
}

func (r *memoryReports) SaveReport(_ context.Context, report *domain.SweepReport) error {
	r.saved = append(r.saved, report)
	return nil
}

func (r *memoryReports) LatestReport(_ context.Context, shopDomain string, tenantID int64) (*domain.SweepReport, error) {
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].ShopDomain == shopDomain && r.saved[i].TenantID == tenantID {
			return r.saved[i], nil
		}
	}
	return nil, nil
}

type recordingMetrics struct {
	syncs     map[string]int
	refreshes map[string]int
	sweeps    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{syncs: map[string]int{}, refreshes: map[string]int{}}
}

func (m *recordingMetrics) ObserveSync(entity, outcome string) { m.syncs[entity+"/"+outcome]++ }
func (m *recordingMetrics) ObserveTokenRefresh(outcome string) { m.refreshes[outcome]++ }
func (m *recordingMetrics) ObserveSweep(int, float64)          { m.sweeps++ }

// testToken builds an unsigned JWT carrying the given claims
func testToken(claims map[string]any) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body, _ := json.Marshal(claims)
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".sig"
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }
