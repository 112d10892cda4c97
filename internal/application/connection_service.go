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

// ConnectionService manages tenant connections and shop installations
type ConnectionService struct {
	connections   ports.ConnectionRepository
	installations ports.InstallationRepository
	tokens        *TokenService
	reports       ports.SweepReportStore
	logger        zerolog.Logger
	now           func() time.Time
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	connections ports.ConnectionRepository,
	installations ports.InstallationRepository,
	tokens *TokenService,
	reports ports.SweepReportStore,
	logger zerolog.Logger,
) *ConnectionService {
	return &ConnectionService{
		connections:   connections,
		installations: installations,
		tokens:        tokens,
		reports:       reports,
		logger:        logger,
		now:           time.Now,
	}
}

// StoreAccessTokenInput carries the credentials handed over by the ledger platform
type StoreAccessTokenInput struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	ShopDomain   string `json:"shopDomain"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Scope        string `json:"scope"`
}

// StoreAccessToken records a token obtained outside of a refresh. The tenant id is taken from the
// token and must be present. The connection bound to the shop installation is updated, or the
// tenant's first connection when no shop is given, otherwise a new one is created.
func (s *ConnectionService) StoreAccessToken(ctx context.Context, input StoreAccessTokenInput) (*domain.TenantConnection, error) {
	claims := DecodeTokenClaims(input.AccessToken)
	if claims.TenantID == nil {
		return nil, domain.NewValidationError("tenant id not found in access token")
	}
	tenantID := *claims.TenantID

	existing, err := s.connections.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant connections: %w", err)
	}

	var installation *domain.ShopInstallation
	if shop := domain.NormalizeShopDomain(input.ShopDomain); shop != "" {
		installation, err = s.installations.FindByShopDomain(ctx, shop)
		if err != nil {
			return nil, fmt.Errorf("failed to get installation: %w", err)
		}
	}

	var connection *domain.TenantConnection
	if installation != nil {
		for _, c := range existing {
			if c.InstallationID == installation.ID {
				connection = c
				break
			}
		}
	} else if len(existing) > 0 {
		connection = existing[0]
	}

	now := s.now().UTC()
	if connection == nil {
		connection = &domain.TenantConnection{CreatedAt: now}
		if installation != nil {
			connection.InstallationID = installation.ID
			connection.ShopDomain = installation.ShopDomain
		}
	}

	connection.TenantID = &tenantID
	connection.AccessToken = input.AccessToken
	connection.AccessTokenExpiresAt = claims.ExpiresAt
	connection.UpdatedAt = now
	if clientID := strings.TrimSpace(input.ClientID); clientID != "" {
		connection.ClientID = clientID
	}
	if clientSecret := strings.TrimSpace(input.ClientSecret); clientSecret != "" {
		connection.ClientSecret = clientSecret
	}
	if scopes := domain.SplitScope(input.Scope); len(scopes) > 0 {
		connection.GrantedScope = strings.Join(scopes, " ")
	}

	if err := s.connections.Save(ctx, connection); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Info().
		Int64("tenantId", tenantID).
		Str("shop", connection.ShopDomain).
		Str("connectionId", connection.ID).
		Msg("Ledger access token stored")
	return connection, nil
}

// RecordInstallation creates or updates the installation of a shop
func (s *ConnectionService) RecordInstallation(ctx context.Context, shopDomain, accessToken, scopes string) (*domain.ShopInstallation, error) {
	shop := domain.NormalizeShopDomain(shopDomain)
	if shop == "" {
		return nil, domain.NewValidationError("shop domain is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, domain.NewValidationError("shop access token is required")
	}

	installation, err := s.installations.FindByShopDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	now := s.now().UTC()
	if installation == nil {
		installation = &domain.ShopInstallation{ShopDomain: shop, InstalledAt: now}
	}
	installation.AccessToken = accessToken
	installation.Scopes = scopes
	installation.UpdatedAt = now

	if err := s.installations.Save(ctx, installation); err != nil {
		return nil, fmt.Errorf("failed to save installation: %w", err)
	}
	return installation, nil
}

// LinkInstallation creates a connection between a tenant and a shop installation
func (s *ConnectionService) LinkInstallation(ctx context.Context, tenantID int64, installation *domain.ShopInstallation) (*domain.TenantConnection, error) {
	if installation == nil {
		return nil, domain.NewValidationError("installation is required")
	}
	now := s.now().UTC()
	connection := &domain.TenantConnection{
		TenantID:       &tenantID,
		InstallationID: installation.ID,
		ShopDomain:     installation.ShopDomain,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.connections.Save(ctx, connection); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}
	return connection, nil
}

// LinkShop links a tenant to an already recorded installation by shop domain
func (s *ConnectionService) LinkShop(ctx context.Context, tenantID int64, shopDomain string) (*domain.TenantConnection, error) {
	installation, err := s.installations.FindByShopDomain(ctx, domain.NormalizeShopDomain(shopDomain))
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	if installation == nil {
		return nil, domain.NewNotFoundError("shop installation not found for %s", shopDomain)
	}
	if existing, err := s.connections.FindByInstallation(ctx, installation.ID); err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	} else if existing != nil && existing.Tenant() == tenantID {
		return existing, nil
	}
	return s.LinkInstallation(ctx, tenantID, installation)
}

// FindConnection returns the connection for a shop and tenant, or nil
func (s *ConnectionService) FindConnection(ctx context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error) {
	return s.connections.FindByShopAndTenant(ctx, domain.NormalizeShopDomain(shopDomain), tenantID)
}

// LedgerToken returns the stored ledger token for a shop and tenant, refreshing it when it is
// about to expire. An absent connection or an unusable token yields "".
func (s *ConnectionService) LedgerToken(ctx context.Context, shopDomain string, tenantID int64) (string, error) {
	connection, err := s.FindConnection(ctx, shopDomain, tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to get connection: %w", err)
	}
	return s.tokens.FetchValidAccessTokenOrEmpty(ctx, connection)
}

// Status reports whether a usable ledger token exists for the shop and tenant
func (s *ConnectionService) Status(ctx context.Context, shopDomain string, tenantID int64) (*domain.ConnectionStatus, error) {
	connection, err := s.FindConnection(ctx, shopDomain, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if connection == nil {
		return &domain.ConnectionStatus{}, nil
	}

	token, err := s.tokens.FetchValidAccessTokenOrEmpty(ctx, connection)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Int64("tenantId", tenantID).Msg("Ledger token check failed")
	}

	status := &domain.ConnectionStatus{
		Connected: token != "",
		ExpiresAt: connection.AccessTokenExpiresAt,
		TenantID:  connection.TenantID,
		AutoSync:  connection.AutoSync,
	}
	if s.reports != nil {
		report, err := s.reports.LatestReport(ctx, connection.ShopDomain, tenantID)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to load last sweep report")
		}
		status.LastReport = report
	}
	return status, nil
}

// ToggleAutoSync flips the auto-sync flag of a connection
func (s *ConnectionService) ToggleAutoSync(ctx context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error) {
	connection, err := s.FindConnection(ctx, shopDomain, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if connection == nil {
		return nil, domain.NewNotFoundError("ledger connection not found for shop %s and tenant %d", shopDomain, tenantID)
	}

	updated, err := s.connections.Update(ctx, connection.ID, func(c *domain.TenantConnection) error {
		c.AutoSync = !c.AutoSync
		c.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	s.logger.Info().Str("shop", shopDomain).Int64("tenantId", tenantID).Bool("autoSync", updated.AutoSync).Msg("Auto-sync toggled")
	return updated, nil
}

// Disconnect deletes the connection and then the shop installation. Sync records are kept.
func (s *ConnectionService) Disconnect(ctx context.Context, shopDomain string, tenantID int64) error {
	shop := domain.NormalizeShopDomain(shopDomain)
	installation, err := s.installations.FindByShopDomain(ctx, shop)
	if err != nil {
		return fmt.Errorf("failed to get installation: %w", err)
	}
	if installation == nil {
		return domain.NewNotFoundError("shop installation not found for domain %s and tenant %d", shopDomain, tenantID)
	}

	connection, err := s.connections.FindByShopAndTenant(ctx, shop, tenantID)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	if connection == nil || connection.InstallationID != installation.ID {
		return domain.NewNotFoundError("ledger connection not found for installation %s", installation.ID)
	}

	if err := s.connections.Delete(ctx, connection.ID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if err := s.installations.Delete(ctx, installation.ID); err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}

	s.logger.Info().Str("shop", shop).Int64("tenantId", tenantID).Msg("Shop disconnected")
	return nil
}
