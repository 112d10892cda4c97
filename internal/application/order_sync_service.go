package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrencyCode = "NOK"
	defaultVatCode      = "0"
	shippingLineName    = "Shipping"
)

var shippingTolerance = decimal.RequireFromString("0.01")

// OrderSyncService pushes shop orders into the ledger as customer, order and invoice
type OrderSyncService struct {
	orders      ports.ShopOrderSource
	connections ports.ConnectionRepository
	records     ports.OrderSyncRecordStore
	ledger      ports.LedgerAPI
	tokens      *TokenService
	countries   *CountryResolver
	metrics     ports.SyncMetrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderSyncService creates a new order sync service
func NewOrderSyncService(
	orders ports.ShopOrderSource,
	connections ports.ConnectionRepository,
	records ports.OrderSyncRecordStore,
	ledger ports.LedgerAPI,
	tokens *TokenService,
	countries *CountryResolver,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		orders:      orders,
		connections: connections,
		records:     records,
		ledger:      ledger,
		tokens:      tokens,
		countries:   countries,
		metrics:     metricsOrNop(metrics),
		logger:      logger,
		now:         time.Now,
	}
}

// SyncOrder pushes one order to the ledger. An order whose record already carries an invoice id and
// number is returned as already synced without any ledger call. A record without invoice data is
// synced again from the start, which can create a second ledger order. Cancelling ctx does not stop a
// sync that has started; the ledger client timeouts bound each call.
func (s *OrderSyncService) SyncOrder(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (result *domain.OrderSyncResult, err error) {
	ctx = context.WithoutCancel(ctx)
	defer func() { s.metrics.ObserveSync("order", outcomeLabel(err)) }()

	number, err := domain.SanitizeOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FetchOrderByNumber(ctx, shopDomain, number, tenantID)
	if err != nil {
		return nil, err
	}

	connection, err := s.connections.FindByShopAndTenant(ctx, shopDomain, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger connection: %w", err)
	}
	if connection == nil {
		return nil, domain.NewConfigurationError("ledger connection not configured for %s", shopDomain)
	}

	recordTenant := tenantID
	if connection.HasTenant() {
		recordTenant = connection.Tenant()
	}
	key := domain.OrderSyncKey{OrderNumber: order.Number, TenantID: recordTenant}

	existing, err := s.records.FindOrderRecord(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load order sync record: %w", err)
	}
	if existing.Complete() {
		s.logger.Debug().Str("shop", shopDomain).Str("order", order.Number).Msg("Order already synced")
		return &domain.OrderSyncResult{Order: order, Status: existing.Status(true)}, nil
	}

	lines, err := BuildOrderLines(order)
	if err != nil {
		return nil, err
	}

	session, err := s.tokens.newSession(ctx, connection)
	if err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, session, order)
	if err != nil {
		return nil, err
	}

	orderRequest := &domain.NewOrderRequest{
		DaysUntilDue: DaysUntilDue(order),
		CurrencyCode: orderCurrency(order),
		CustomerID:   customer.ID,
		OrderLines:   lines,
	}
	created, err := callWithRefresh(ctx, session, "order creation", func(token string) (*domain.LedgerOrder, error) {
		return s.ledger.CreateOrder(ctx, token, orderRequest)
	})
	if err != nil {
		return nil, err
	}

	invoiceRequest := BuildInvoiceRequest(order, created.ID)
	invoice, err := callWithRefresh(ctx, session, "invoice creation", func(token string) (*domain.LedgerInvoice, error) {
		return s.ledger.CreateInvoice(ctx, token, invoiceRequest)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("shop", shopDomain).
			Str("order", order.Number).
			Int64("ledgerOrderId", created.ID).
			Msg("Ledger order created but invoice creation failed")
		return nil, err
	}

	syncedAt := s.now().UTC()
	record, err := s.records.UpsertOrderRecord(ctx, key, func(r *domain.OrderSyncRecord) {
		r.LedgerOrderID = &created.ID
		r.LedgerInvoiceID = &invoice.ID
		r.LedgerInvoiceNumber = &invoice.Number
		r.SyncedAt = syncedAt
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order sync record: %w", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Int64("tenantId", recordTenant).
		Str("order", order.Number).
		Int64("ledgerOrderId", created.ID).
		Str("invoiceNumber", invoice.Number).
		Msg("Order synced to ledger")

	return &domain.OrderSyncResult{Order: order, Status: record.Status(false)}, nil
}

// FindSyncRecord returns the stored status of an order, or nil when it was never synced
func (s *OrderSyncService) FindSyncRecord(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.OrderSyncStatus, error) {
	number, err := domain.SanitizeOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindOrderRecord(ctx, domain.OrderSyncKey{OrderNumber: number, TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to load order sync record: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return record.Status(true), nil
}

func (s *OrderSyncService) resolveCustomer(ctx context.Context, session *tokenSession, order *domain.SourceOrder) (*domain.LedgerCustomer, error) {
	candidateName := customerCandidateName(order)

	matches, err := callWithRefresh(ctx, session, "customer search", func(token string) ([]domain.LedgerCustomer, error) {
		return s.ledger.SearchCustomers(ctx, token, candidateName)
	})
	if err != nil {
		return nil, err
	}
	if preferred := preferCustomer(matches, order.CustomerEmail); preferred != nil {
		return preferred, nil
	}

	request := &domain.CreateCustomerRequest{
		Name:           candidateName,
		PrivateContact: true,
		Email:          trimmedOrNil(order.CustomerEmail),
	}
	if address := order.ShippingAddress; address != nil {
		if s.countries != nil {
			request.CountryCode = s.countries.ISOCode(address.Country)
		}
		request.City = trimmedOrNil(address.City)
		request.PostalCode = trimmedOrNil(address.PostalCode)
		request.AdministrativeDivisionCode = trimmedOrNil(address.Province)
		request.AddressPart1 = trimmedOrNil(address.AddressLineOne)
		request.AddressPart2 = trimmedOrNil(address.AddressLineTwo)
	}

	created, err := callWithRefresh(ctx, session, "customer creation", func(token string) (*domain.LedgerCustomer, error) {
		return s.ledger.CreateCustomer(ctx, token, request)
	})
	if err != nil {
		var upstream *domain.Error
		if errors.As(err, &upstream) && upstream.Kind == domain.KindUpstream {
			return nil, domain.NewUpstreamError(
				fmt.Sprintf("ledger rejected customer creation for %s", candidateName),
				upstream.StatusCode,
				strings.TrimSpace(upstream.Details),
				err,
			)
		}
		return nil, err
	}
	return created, nil
}

func customerCandidateName(order *domain.SourceOrder) string {
	if name := strings.TrimSpace(order.CustomerName); name != "" {
		return name
	}
	if order.ShippingAddress != nil {
		if name := strings.TrimSpace(order.ShippingAddress.Name); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Shopify order %s", order.Number)
}

// preferCustomer picks the candidate whose email matches, otherwise the one with the highest id
func preferCustomer(candidates []domain.LedgerCustomer, email string) *domain.LedgerCustomer {
	if email = strings.TrimSpace(email); email != "" {
		for i := range candidates {
			if strings.EqualFold(candidates[i].Email, email) {
				return &candidates[i]
			}
		}
	}
	var best *domain.LedgerCustomer
	for i := range candidates {
		if best == nil || candidates[i].ID > best.ID {
			best = &candidates[i]
		}
	}
	return best
}

// BuildOrderLines converts priced line items with a non-zero quantity into ledger order lines and
// appends a shipping line for any positive remainder between order total and line totals
func BuildOrderLines(order *domain.SourceOrder) ([]domain.NewOrderLine, error) {
	lines := make([]domain.NewOrderLine, 0, len(order.LineItems)+1)
	lastRow := 0
	for i, item := range order.LineItems {
		if item.TotalPrice == nil || item.Quantity == 0 {
			continue
		}
		itemName := strings.TrimSpace(item.Title)
		if itemName == "" {
			itemName = fmt.Sprintf("Line %d", i+1)
		}
		lines = append(lines, domain.NewOrderLine{
			RowNumber: i + 1,
			ItemName:  itemName,
			Quantity:  item.Quantity,
			UnitPrice: item.TotalPrice.Amount.DivRound(decimal.NewFromInt(int64(item.Quantity)), 2),
			VatCode:   defaultVatCode,
		})
		lastRow = i + 1
	}

	if shipping, ok := shippingAmount(order); ok && shipping.IsPositive() {
		lines = append(lines, domain.NewOrderLine{
			RowNumber: lastRow + 1,
			ItemName:  shippingLineName,
			Quantity:  1,
			UnitPrice: shipping.Round(2),
			VatCode:   defaultVatCode,
		})
	}

	if len(lines) == 0 {
		return nil, domain.NewValidationError("no purchasable line items found for order %s", order.Number)
	}
	return lines, nil
}

// shippingAmount is the order total minus every priced line total, ignored below the tolerance
func shippingAmount(order *domain.SourceOrder) (decimal.Decimal, bool) {
	if order.TotalPrice == nil {
		return decimal.Zero, false
	}
	lineSum := decimal.Zero
	for _, item := range order.LineItems {
		if item.TotalPrice != nil {
			lineSum = lineSum.Add(item.TotalPrice.Amount)
		}
	}
	remainder := order.TotalPrice.Amount.Sub(lineSum)
	if remainder.Abs().LessThan(shippingTolerance) {
		return decimal.Zero, false
	}
	return remainder, true
}

// DaysUntilDue counts calendar days from the order date to its due date, 0 without a due date
func DaysUntilDue(order *domain.SourceOrder) int {
	if order.DueDate == nil {
		return 0
	}
	return int(calendarDate(*order.DueDate).Sub(calendarDate(order.CreatedAt)).Hours() / 24)
}

// BuildInvoiceRequest issues the invoice on the order date and never emails the customer
func BuildInvoiceRequest(order *domain.SourceOrder, ledgerOrderID int64) *domain.NewInvoiceRequest {
	issueDate := order.CreatedAt.Format(time.DateOnly)
	dueDate := issueDate
	if order.DueDate != nil {
		dueDate = order.DueDate.Format(time.DateOnly)
	}
	return &domain.NewInvoiceRequest{
		IssueDate: issueDate,
		DueDate:   dueDate,
		OrderID:   ledgerOrderID,
		Comment:   fmt.Sprintf("Synced from Shopify order %s", order.Name),
		Email:     trimmedOrNil(order.CustomerEmail),
		SendEmail: false,
	}
}

func orderCurrency(order *domain.SourceOrder) string {
	if order.TotalPrice != nil && order.TotalPrice.CurrencyCode != "" {
		return order.TotalPrice.CurrencyCode
	}
	return defaultCurrencyCode
}

// calendarDate drops the clock in the timestamp's own offset
func calendarDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
