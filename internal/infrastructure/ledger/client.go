package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client talks to the ledger platform REST API
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a ledger API client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		logger: logger,
	}
}

var _ ports.LedgerAPI = (*Client)(nil)

// SearchCustomers finds customers by name
func (c *Client) SearchCustomers(ctx context.Context, token string, name string) ([]domain.LedgerCustomer, error) {
	var customers []domain.LedgerCustomer
	resp, err := c.request(ctx, token).
		SetQueryParam("name", name).
		SetResult(&customers).
		Get("/customers")
	if err := c.check(resp, err, "customer search"); err != nil {
		return nil, err
	}
	return customers, nil
}

// CreateCustomer creates a customer
func (c *Client) CreateCustomer(ctx context.Context, token string, req *domain.CreateCustomerRequest) (*domain.LedgerCustomer, error) {
	var customer domain.LedgerCustomer
	resp, err := c.request(ctx, token).
		SetBody(req).
		SetResult(&customer).
		Post("/customers")
	if err := c.check(resp, err, "customer creation"); err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, emptyResponse("customer")
	}
	return &customer, nil
}

// CreateOrder creates an order
func (c *Client) CreateOrder(ctx context.Context, token string, req *domain.NewOrderRequest) (*domain.LedgerOrder, error) {
	var order domain.LedgerOrder
	resp, err := c.request(ctx, token).
		SetBody(req).
		SetResult(&order).
		Post("/order")
	if err := c.check(resp, err, "order creation"); err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, emptyResponse("order")
	}
	return &order, nil
}

// CreateInvoice creates an invoice for an order
func (c *Client) CreateInvoice(ctx context.Context, token string, req *domain.NewInvoiceRequest) (*domain.LedgerInvoice, error) {
	var invoice domain.LedgerInvoice
	resp, err := c.request(ctx, token).
		SetBody(req).
		SetResult(&invoice).
		Post("/invoice")
	if err := c.check(resp, err, "invoice creation"); err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, emptyResponse("invoice")
	}
	return &invoice, nil
}

// FetchProductSnapshot returns the stored product, or nil when the ledger answers 404
func (c *Client) FetchProductSnapshot(ctx context.Context, token string, productID int64) (*domain.ProductSnapshot, error) {
	var snapshot domain.ProductSnapshot
	resp, err := c.request(ctx, token).
		SetPathParam("productId", fmt.Sprintf("%d", productID)).
		SetResult(&snapshot).
		Get("/product/{productId}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := c.check(resp, err, "product fetch"); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// PushProduct creates or updates a product with its variants
func (c *Client) PushProduct(ctx context.Context, token string, payload *domain.ProductSyncPayload) (*domain.ProductPushResult, error) {
	var result domain.ProductPushResult
	resp, err := c.request(ctx, token).
		SetBody(payload).
		SetResult(&result).
		Post("/product/create")
	if err := c.check(resp, err, "product push"); err != nil {
		return nil, err
	}
	if result.ProductID == 0 {
		return nil, emptyResponse("product sync")
	}
	return &result, nil
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
}

// check maps transport failures and non-2xx responses to domain errors
func (c *Client) check(resp *resty.Response, err error, operation string) error {
	if err != nil {
		return domain.NewUpstreamError(fmt.Sprintf("ledger %s request failed", operation), 0, "", err)
	}
	if !resp.IsError() {
		return nil
	}

	body := strings.TrimSpace(resp.String())
	c.logger.Warn().
		Str("operation", operation).
		Int("status", resp.StatusCode()).
		Str("body", body).
		Msg("Ledger API call failed")

	if resp.StatusCode() == http.StatusUnauthorized {
		return domain.NewUnauthorizedError(fmt.Sprintf("ledger rejected access token during %s", operation), body)
	}
	return domain.NewUpstreamError(fmt.Sprintf("ledger %s failed", operation), resp.StatusCode(), body, nil)
}

func emptyResponse(entity string) error {
	return domain.NewUpstreamError(fmt.Sprintf("ledger %s response was empty", entity), 0, "", nil)
}
