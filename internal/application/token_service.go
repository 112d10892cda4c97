package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/rs/zerolog"
)

// Tokens expiring within this window are refreshed before use
const tokenExpirySkew = 30 * time.Second

// TokenService keeps ledger access tokens usable for a tenant connection
type TokenService struct {
	connections ports.ConnectionRepository
	exchange    ports.TokenExchange
	metrics     ports.SyncMetrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(
	connections ports.ConnectionRepository,
	exchange ports.TokenExchange,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
) *TokenService {
	return &TokenService{
		connections: connections,
		exchange:    exchange,
		metrics:     metricsOrNop(metrics),
		logger:      logger,
		now:         time.Now,
	}
}

// EnsureValidAccessToken returns the stored token unless it expires within the skew window,
// in which case a new token is obtained
func (s *TokenService) EnsureValidAccessToken(ctx context.Context, connection *domain.TenantConnection) (string, error) {
	if connection == nil || connection.AccessToken == "" {
		return "", domain.NewConfigurationError("ledger access token missing, open this app from the ledger platform to establish the connection")
	}

	expiry := connection.AccessTokenExpiresAt
	if expiry == nil || expiry.After(s.now().Add(tokenExpirySkew)) {
		return connection.AccessToken, nil
	}

	s.logger.Debug().
		Str("connectionId", connection.ID).
		Time("expiresAt", *expiry).
		Msg("Ledger access token expired or about to expire, refreshing")
	return s.RefreshAccessToken(ctx, connection)
}

// RefreshAccessToken exchanges the connection's client credentials for a new token and persists it.
// The passed connection is not modified.
func (s *TokenService) RefreshAccessToken(ctx context.Context, connection *domain.TenantConnection) (string, error) {
	if connection == nil {
		return "", domain.NewConfigurationError("ledger connection missing")
	}
	clientID := strings.TrimSpace(connection.ClientID)
	clientSecret := strings.TrimSpace(connection.ClientSecret)
	if clientID == "" || clientSecret == "" {
		s.metrics.ObserveTokenRefresh("missing_credentials")
		return "", domain.NewConfigurationError("ledger client credentials missing, open this app from the ledger platform to establish the connection again")
	}

	scopes := domain.SplitScope(connection.GrantedScope)
	token, err := s.exchange.ExchangeClientCredentials(ctx, clientID, clientSecret, scopes)
	if err != nil {
		s.metrics.ObserveTokenRefresh("failed")
		s.logger.Error().Err(err).Str("connectionId", connection.ID).Msg("Failed to refresh ledger access token")
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		s.metrics.ObserveTokenRefresh("failed")
		return "", domain.NewUpstreamError("ledger token endpoint returned no access token", 0, "", nil)
	}

	claims := DecodeTokenClaims(token)
	now := s.now().UTC()
	apply := func(c *domain.TenantConnection) error {
		c.AccessToken = token
		c.AccessTokenExpiresAt = claims.ExpiresAt
		c.UpdatedAt = now
		c.ClientID = clientID
		c.ClientSecret = clientSecret
		c.GrantedScope = strings.Join(scopes, " ")
		if claims.TenantID != nil {
			c.TenantID = claims.TenantID
		}
		return nil
	}

	if connection.ID != "" {
		if _, err := s.connections.Update(ctx, connection.ID, apply); err != nil {
			s.metrics.ObserveTokenRefresh("failed")
			return "", fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}

	s.metrics.ObserveTokenRefresh("success")
	event := s.logger.Info().Str("connectionId", connection.ID)
	if claims.ExpiresAt != nil {
		event = event.Time("expiresAt", *claims.ExpiresAt)
	}
	event.Msg("Ledger access token refreshed")
	return token, nil
}

// FetchValidAccessTokenOrEmpty behaves like EnsureValidAccessToken but reports a missing or
// unrefreshable configuration as an empty token instead of an error
func (s *TokenService) FetchValidAccessTokenOrEmpty(ctx context.Context, connection *domain.TenantConnection) (string, error) {
	if connection == nil {
		return "", nil
	}
	token, err := s.EnsureValidAccessToken(ctx, connection)
	if err != nil {
		if domain.KindOf(err) == domain.KindConfiguration {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// tokenSession carries the bearer token through one sync flow and allows a single refresh
type tokenSession struct {
	tokens     *TokenService
	connection *domain.TenantConnection
	token      string
	refreshed  bool
}

func (s *TokenService) newSession(ctx context.Context, connection *domain.TenantConnection) (*tokenSession, error) {
	token, err := s.EnsureValidAccessToken(ctx, connection)
	if err != nil {
		return nil, err
	}
	return &tokenSession{tokens: s, connection: connection, token: token}, nil
}

// callWithRefresh runs call with the session token. On the first unauthorized response of the flow it
// refreshes once and retries this call only. Any later unauthorized response becomes an upstream error.
func callWithRefresh[T any](ctx context.Context, session *tokenSession, operation string, call func(token string) (T, error)) (T, error) {
	var zero T

	result, err := call(session.token)
	if err == nil || !domain.IsUnauthorized(err) {
		return result, err
	}
	if session.refreshed {
		return zero, domain.NewUpstreamError(fmt.Sprintf("ledger rejected %s after token refresh", operation), 401, "", err)
	}

	session.tokens.logger.Info().
		Str("connectionId", session.connection.ID).
		Str("operation", operation).
		Msg("Ledger rejected access token, refreshing once")

	token, err := session.tokens.RefreshAccessToken(ctx, session.connection)
	if err != nil {
		return zero, err
	}
	session.token = token
	session.refreshed = true

	result, err = call(token)
	if err != nil && domain.IsUnauthorized(err) {
		return zero, domain.NewUpstreamError(fmt.Sprintf("ledger rejected %s after token refresh", operation), 401, "", err)
	}
	return result, err
}
