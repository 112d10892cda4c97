package shopify

import (
	"fmt"
	"net/http"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultPoolSize = 128
	defaultPoolTTL  = 30 * time.Minute
)

// PoolOptions configures the client pool
type PoolOptions struct {
	APIVersion string
	HTTPClient *http.Client
	Size       int
	TTL        time.Duration
}

// ClientPool keeps go-shopify clients per shop and access token
type ClientPool struct {
	app        goshopify.App
	apiVersion string
	httpClient *http.Client
	clients    *expirable.LRU[string, *goshopify.Client]
}

// NewClientPool creates a pool for the app credentials
func NewClientPool(apiKey, apiSecret string, opts PoolOptions) *ClientPool {
	size := opts.Size
	if size <= 0 {
		size = defaultPoolSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultPoolTTL
	}
	return &ClientPool{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		apiVersion: opts.APIVersion,
		httpClient: opts.HTTPClient,
		clients:    expirable.NewLRU[string, *goshopify.Client](size, nil, ttl),
	}
}

// Client returns a cached client or creates one. A rotated token gets a new entry.
func (p *ClientPool) Client(shopDomain, accessToken string) (*goshopify.Client, error) {
	key := shopDomain + ":" + accessToken
	if client, ok := p.clients.Get(key); ok {
		return client, nil
	}

	var options []goshopify.Option
	if p.apiVersion != "" {
		options = append(options, goshopify.WithVersion(p.apiVersion))
	}
	if p.httpClient != nil {
		options = append(options, goshopify.WithHTTPClient(p.httpClient))
	}

	client, err := goshopify.NewClient(p.app, shopDomain, accessToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	p.clients.Add(key, client)
	return client, nil
}

// Len returns the number of cached clients
func (p *ClientPool) Len() int {
	return p.clients.Len()
}
