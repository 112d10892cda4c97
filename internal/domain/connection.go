package domain

import (
	"strings"
	"time"
)

// TenantConnection links a ledger tenant to an optional shop installation and holds
// the credentials used to talk to the ledger platform on its behalf
type TenantConnection struct {
	ID                   string     `json:"id"`
	TenantID             *int64     `json:"tenantId,omitempty"`
	InstallationID       string     `json:"installationId,omitempty"`
	ShopDomain           string     `json:"shopDomain,omitempty"`
	AccessToken          string     `json:"-"`
	AccessTokenExpiresAt *time.Time `json:"accessTokenExpiresAt,omitempty"`
	ClientID             string     `json:"-"`
	ClientSecret         string     `json:"-"`
	GrantedScope         string     `json:"grantedScope,omitempty"`
	AutoSync             bool       `json:"autoSync"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasTenant reports whether the tenant id has been established
func (c *TenantConnection) HasTenant() bool {
	return c != nil && c.TenantID != nil
}

// Tenant returns the tenant id or 0 when it is not set
func (c *TenantConnection) Tenant() int64 {
	if c == nil || c.TenantID == nil {
		return 0
	}
	return *c.TenantID
}

// ShopInstallation is a shop that installed the app, with the token used against the shop platform
type ShopInstallation struct {
	ID          string    `json:"id"`
	ShopDomain  string    `json:"shopDomain"`
	AccessToken string    `json:"-"`
	Scopes      string    `json:"scopes"`
	InstalledAt time.Time `json:"installedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NormalizeShopDomain lowercases and trims a shop domain
func NormalizeShopDomain(shopDomain string) string {
	return strings.ToLower(strings.TrimSpace(shopDomain))
}

// ConnectionStatus is the read model shown to operators
type ConnectionStatus struct {
	Connected  bool         `json:"connected"`
	ExpiresAt  *time.Time   `json:"expiresAt,omitempty"`
	TenantID   *int64       `json:"tenantId,omitempty"`
	AutoSync   bool         `json:"autoSync"`
	LastReport *SweepReport `json:"lastSweep,omitempty"`
}

// SplitScope splits a scope string on spaces, commas, newlines and tabs, dropping empty tokens
func SplitScope(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
}
