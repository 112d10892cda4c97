package shopify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const defaultPageDelay = time.Second

// SourceOptions configures a Source
type SourceOptions struct {
	// PageDelay is the pause between bulk pages. Zero means the default of one second, negative disables it.
	PageDelay time.Duration
}

// Source reads orders and products from the shop Admin GraphQL API using the installation token
type Source struct {
	installations ports.InstallationRepository
	pool          *ClientPool
	pageDelay     time.Duration
	logger        zerolog.Logger
}

var (
	_ ports.ShopOrderSource   = (*Source)(nil)
	_ ports.ShopProductSource = (*Source)(nil)
)

// NewSource creates a shop source
func NewSource(installations ports.InstallationRepository, pool *ClientPool, opts SourceOptions, logger zerolog.Logger) *Source {
	delay := opts.PageDelay
	if delay == 0 {
		delay = defaultPageDelay
	}
	return &Source{
		installations: installations,
		pool:          pool,
		pageDelay:     delay,
		logger:        logger,
	}
}

// client resolves the installation for a shop and returns its API client
func (s *Source) client(ctx context.Context, shopDomain string) (*goshopify.Client, error) {
	shop := domain.NormalizeShopDomain(shopDomain)
	installation, err := s.installations.FindByShopDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to load installation: %w", err)
	}
	if installation == nil || installation.AccessToken == "" {
		return nil, domain.NewConfigurationError("shop installation not found for %s", shop)
	}
	client, err := s.pool.Client(installation.ShopDomain, installation.AccessToken)
	if err != nil {
		return nil, domain.NewConfigurationError("invalid shop installation for %s: %v", shop, err)
	}
	return client, nil
}

func (s *Source) query(ctx context.Context, client *goshopify.Client, operation, q string, vars map[string]any, resp any) error {
	if err := client.GraphQL.Query(ctx, q, vars, resp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Str("operation", operation).Msg("Shop GraphQL query failed")
		return shopError(operation, err)
	}
	return nil
}

// shopError tags go-shopify failures as upstream errors
func shopError(operation string, err error) error {
	message := fmt.Sprintf("shop platform %s failed", operation)
	var responseErr goshopify.ResponseError
	if errors.As(err, &responseErr) {
		status := responseErr.Status
		if status == http.StatusOK {
			status = 0
		}
		return domain.NewUpstreamError(message, status, responseErr.Error(), nil)
	}
	return domain.NewUpstreamError(message, 0, "", err)
}

// FetchOrderByNumber looks up an order by its display name, with or without the leading '#'
func (s *Source) FetchOrderByNumber(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.SourceOrder, error) {
	number, err := domain.SanitizeOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	client, err := s.client(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	vars := map[string]any{"query": fmt.Sprintf(`name:"%s"`, escapeSearchValue(number))}
	if err := s.query(ctx, client, "order lookup", orderByNameQuery, vars, &resp); err != nil {
		return nil, err
	}
	if len(resp.Orders.Edges) == 0 {
		return nil, domain.NewNotFoundError("order %s not found", orderNumber)
	}

	s.logger.Debug().
		Str("shop", shopDomain).
		Int64("tenant_id", tenantID).
		Str("order", number).
		Msg("Fetched shop order")
	return toSourceOrder(resp.Orders.Edges[0].Node), nil
}

// StreamAllOrders walks every order of the shop
func (s *Source) StreamAllOrders(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceOrder, error] {
	var client *goshopify.Client
	return paginate(ctx, s.pageDelay, func(ctx context.Context, after *string) (page[*domain.SourceOrder], error) {
		if client == nil {
			c, err := s.client(ctx, shopDomain)
			if err != nil {
				return page[*domain.SourceOrder]{}, err
			}
			client = c
		}

		var resp ordersResponse
		vars := map[string]any{"first": orderPageSize, "after": after}
		if err := s.query(ctx, client, "order listing", allOrdersQuery, vars, &resp); err != nil {
			return page[*domain.SourceOrder]{}, err
		}

		orders := make([]*domain.SourceOrder, 0, len(resp.Orders.Edges))
		for _, edge := range resp.Orders.Edges {
			orders = append(orders, toSourceOrder(edge.Node))
		}
		s.logger.Debug().
			Str("shop", shopDomain).
			Int64("tenant_id", tenantID).
			Int("count", len(orders)).
			Msg("Fetched order page")
		return page[*domain.SourceOrder]{
			items:     orders,
			hasNext:   resp.Orders.PageInfo.HasNextPage,
			endCursor: resp.Orders.PageInfo.EndCursor,
		}, nil
	})
}

// SearchProducts returns up to ten products whose title contains name
func (s *Source) SearchProducts(ctx context.Context, shopDomain, name string, tenantID int64) ([]*domain.SourceProduct, error) {
	term := strings.TrimSpace(name)
	if term == "" {
		return nil, domain.NewValidationError("product name is required")
	}
	client, err := s.client(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	var resp productsResponse
	vars := map[string]any{
		"query": "title:*" + escapeSearchValue(term) + "*",
		"first": searchPageSize,
		"after": nil,
	}
	if err := s.query(ctx, client, "product search", searchProductsQuery, vars, &resp); err != nil {
		return nil, err
	}

	products := make([]*domain.SourceProduct, 0, len(resp.Products.Edges))
	for _, edge := range resp.Products.Edges {
		products = append(products, toSourceProduct(edge.Node, resp.Shop.CurrencyCode))
	}
	return products, nil
}

// FetchProductByID loads one product by GID
func (s *Source) FetchProductByID(ctx context.Context, shopDomain, productGID string, tenantID int64) (*domain.SourceProduct, error) {
	gid, err := domain.NormalizeProductGID(productGID)
	if err != nil {
		return nil, err
	}
	client, err := s.client(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	var resp productResponse
	if err := s.query(ctx, client, "product lookup", productByIDQuery, map[string]any{"id": gid}, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, domain.NewNotFoundError("product %s not found", gid)
	}
	return toSourceProduct(*resp.Product, resp.Shop.CurrencyCode), nil
}

// StreamAllProducts walks every product of the shop
func (s *Source) StreamAllProducts(ctx context.Context, shopDomain string, tenantID int64) iter.Seq2[*domain.SourceProduct, error] {
	var client *goshopify.Client
	return paginate(ctx, s.pageDelay, func(ctx context.Context, after *string) (page[*domain.SourceProduct], error) {
		if client == nil {
			c, err := s.client(ctx, shopDomain)
			if err != nil {
				return page[*domain.SourceProduct]{}, err
			}
			client = c
		}

		var resp productsResponse
		vars := map[string]any{"query": "", "first": productPageSize, "after": after}
		if err := s.query(ctx, client, "product listing", searchProductsQuery, vars, &resp); err != nil {
			return page[*domain.SourceProduct]{}, err
		}

		products := make([]*domain.SourceProduct, 0, len(resp.Products.Edges))
		for _, edge := range resp.Products.Edges {
			products = append(products, toSourceProduct(edge.Node, resp.Shop.CurrencyCode))
		}
		s.logger.Debug().
			Str("shop", shopDomain).
			Int64("tenant_id", tenantID).
			Int("count", len(products)).
			Msg("Fetched product page")
		return page[*domain.SourceProduct]{
			items:     products,
			hasNext:   resp.Products.PageInfo.HasNextPage,
			endCursor: resp.Products.PageInfo.EndCursor,
		}, nil
	})
}
