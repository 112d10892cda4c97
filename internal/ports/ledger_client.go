package ports

import (
	"context"

	"shopify-ledger-sync/internal/domain"
)

// LedgerAPI defines the ledger platform operations used by the sync services.
// Every method returns a domain error of kind unauthorized when the bearer token is rejected
// and kind upstream for any other failure.
type LedgerAPI interface {
	SearchCustomers(ctx context.Context, token string, name string) ([]domain.LedgerCustomer, error)
	CreateCustomer(ctx context.Context, token string, req *domain.CreateCustomerRequest) (*domain.LedgerCustomer, error)
	CreateOrder(ctx context.Context, token string, req *domain.NewOrderRequest) (*domain.LedgerOrder, error)
	CreateInvoice(ctx context.Context, token string, req *domain.NewInvoiceRequest) (*domain.LedgerInvoice, error)

	// FetchProductSnapshot returns (nil, nil) when the ledger has no such product
	FetchProductSnapshot(ctx context.Context, token string, productID int64) (*domain.ProductSnapshot, error)

	// PushProduct creates the product, or updates it when payload.ProductID is set
	PushProduct(ctx context.Context, token string, payload *domain.ProductSyncPayload) (*domain.ProductPushResult, error)
}

// TokenExchange obtains ledger access tokens with the client-credentials grant
type TokenExchange interface {
	ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string, scopes []string) (string, error)
}
