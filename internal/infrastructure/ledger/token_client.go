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
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// TokenClient exchanges client credentials for ledger access tokens
type TokenClient struct {
	http     *resty.Client
	tokenURL string
}

// NewTokenClient creates a token client for the given token endpoint
func NewTokenClient(tokenURL string, timeout time.Duration) *TokenClient {
	return &TokenClient{
		http:     resty.New().SetTimeout(timeout),
		tokenURL: tokenURL,
	}
}

var _ ports.TokenExchange = (*TokenClient)(nil)

// ExchangeClientCredentials runs the OAuth client-credentials grant with HTTP basic client authentication
func (c *TokenClient) ExchangeClientCredentials(ctx context.Context, clientID, clientSecret string, scopes []string) (string, error) {
	form := map[string]string{"grant_type": "client_credentials"}
	if len(scopes) > 0 {
		form["scope"] = strings.Join(scopes, " ")
	}

	var token tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(clientID, clientSecret).
		SetFormData(form).
		SetResult(&token).
		Post(c.tokenURL)
	if err != nil {
		return "", domain.NewUpstreamError("ledger token request failed", 0, "", err)
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if resp.StatusCode() == http.StatusUnauthorized {
			return "", domain.NewConfigurationError("ledger rejected client credentials: %s", body)
		}
		return "", domain.NewUpstreamError(fmt.Sprintf("ledger token endpoint returned %s", http.StatusText(resp.StatusCode())), resp.StatusCode(), body, nil)
	}
	if token.AccessToken == "" {
		return "", domain.NewUpstreamError("ledger token response missing access token", resp.StatusCode(), "", nil)
	}
	return token.AccessToken, nil
}
