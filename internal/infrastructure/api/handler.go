package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"shopify-ledger-sync/internal/application"
	"shopify-ledger-sync/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type connectionManager interface {
	StoreAccessToken(ctx context.Context, input application.StoreAccessTokenInput) (*domain.TenantConnection, error)
	RecordInstallation(ctx context.Context, shopDomain, accessToken, scopes string) (*domain.ShopInstallation, error)
	LinkShop(ctx context.Context, tenantID int64, shopDomain string) (*domain.TenantConnection, error)
	LedgerToken(ctx context.Context, shopDomain string, tenantID int64) (string, error)
	Status(ctx context.Context, shopDomain string, tenantID int64) (*domain.ConnectionStatus, error)
	ToggleAutoSync(ctx context.Context, shopDomain string, tenantID int64) (*domain.TenantConnection, error)
	Disconnect(ctx context.Context, shopDomain string, tenantID int64) error
}

type orderSyncer interface {
	SyncOrder(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.OrderSyncResult, error)
	FindSyncRecord(ctx context.Context, shopDomain, orderNumber string, tenantID int64) (*domain.OrderSyncStatus, error)
}

type productSyncer interface {
	SyncProduct(ctx context.Context, shopDomain, productID string, tenantID int64) (*domain.ProductSyncResult, error)
	SearchProducts(ctx context.Context, shopDomain, name string, tenantID int64, token string) ([]domain.ProductComparison, error)
}

type sweepRunner interface {
	RunSweep(ctx context.Context) ([]*domain.SweepReport, error)
}

// Handler serves the sync API
type Handler struct {
	connections connectionManager
	orders      orderSyncer
	products    productSyncer
	sweeps      sweepRunner
	logger      zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	connections connectionManager,
	orders orderSyncer,
	products productSyncer,
	sweeps sweepRunner,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		connections: connections,
		orders:      orders,
		products:    products,
		sweeps:      sweeps,
		logger:      logger,
	}
}

// InstallationRequest records a shop installation and optionally links it to a tenant
type InstallationRequest struct {
	ShopDomain  string `json:"shopDomain" validate:"required,hostname"`
	AccessToken string `json:"accessToken" validate:"required"`
	Scopes      string `json:"scopes"`
	TenantID    *int64 `json:"tenantId,omitempty" validate:"omitempty,gt=0"`
}

// InstallationResponse is returned after recording an installation
type InstallationResponse struct {
	Installation *domain.ShopInstallation `json:"installation"`
	Connection   *domain.TenantConnection `json:"connection,omitempty"`
}

// SweepResponse lists the reports of a manual sweep
type SweepResponse struct {
	Reports []*domain.SweepReport `json:"reports"`
}

// OrderSyncStatusResponse wraps the stored status of an order
type OrderSyncStatusResponse struct {
	Synced bool                    `json:"synced"`
	Status *domain.OrderSyncStatus `json:"status,omitempty"`
}

// shopScope carries the tenant and shop path parameters
type shopScope struct {
	tenantID int64
	shop     string
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (shopScope, bool) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		respondError(w, http.StatusBadRequest, "tenant id must be a positive integer")
		return shopScope{}, false
	}
	shop := domain.NormalizeShopDomain(chi.URLParam(r, "shop"))
	if shop == "" {
		respondError(w, http.StatusBadRequest, "shop domain is required")
		return shopScope{}, false
	}
	return shopScope{tenantID: tenantID, shop: shop}, true
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SyncOrder pushes one order to the ledger
func (h *Handler) SyncOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	result, err := h.orders.SyncOrder(r.Context(), s.shop, chi.URLParam(r, "orderNumber"), s.tenantID)
	if err != nil {
		respondServiceError(w, h.logger, "order sync", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// OrderSyncStatus returns the stored sync status of an order
func (h *Handler) OrderSyncStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	status, err := h.orders.FindSyncRecord(r.Context(), s.shop, chi.URLParam(r, "orderNumber"), s.tenantID)
	if err != nil {
		respondServiceError(w, h.logger, "order sync status", err)
		return
	}
	respondJSON(w, http.StatusOK, OrderSyncStatusResponse{Synced: status != nil, Status: status})
}

// SyncProduct pushes one product to the ledger catalogue
func (h *Handler) SyncProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	result, err := h.products.SyncProduct(r.Context(), s.shop, r.URL.Query().Get("id"), s.tenantID)
	if err != nil {
		respondServiceError(w, h.logger, "product sync", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SearchProducts searches shop products and marks the ones that need a push. A bearer token on
// the request takes precedence over the tenant's stored ledger token.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}

	token := bearerToken(r)
	if token == "" {
		var err error
		token, err = h.connections.LedgerToken(r.Context(), s.shop, s.tenantID)
		if err != nil {
			h.logger.Warn().Err(err).Str("shop", s.shop).Int64("tenantId", s.tenantID).Msg("Ledger token unavailable for product search")
		}
	}

	comparisons, err := h.products.SearchProducts(r.Context(), s.shop, r.URL.Query().Get("name"), s.tenantID, token)
	if err != nil {
		respondServiceError(w, h.logger, "product search", err)
		return
	}
	respondJSON(w, http.StatusOK, comparisons)
}

// ConnectionStatus reports the ledger connection of a shop and tenant
func (h *Handler) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	status, err := h.connections.Status(r.Context(), s.shop, s.tenantID)
	if err != nil {
		respondServiceError(w, h.logger, "connection status", err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// LinkShop links the tenant to the shop's installation
func (h *Handler) LinkShop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	connection, err := h.connections.LinkShop(r.Context(), s.tenantID, s.shop)
	if err != nil {
		respondServiceError(w, h.logger, "link shop", err)
		return
	}
	respondJSON(w, http.StatusOK, connection)
}

// ToggleAutoSync flips the auto-sync flag
func (h *Handler) ToggleAutoSync(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	connection, err := h.connections.ToggleAutoSync(r.Context(), s.shop, s.tenantID)
	if err != nil {
		respondServiceError(w, h.logger, "toggle auto-sync", err)
		return
	}
	respondJSON(w, http.StatusOK, connection)
}

// Disconnect removes the connection and the installation
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.connections.Disconnect(r.Context(), s.shop, s.tenantID); err != nil {
		respondServiceError(w, h.logger, "disconnect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordInstallation stores a shop installation and links it when a tenant is given
func (h *Handler) RecordInstallation(w http.ResponseWriter, r *http.Request) {
	var req InstallationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		return
	}

	installation, err := h.connections.RecordInstallation(r.Context(), req.ShopDomain, req.AccessToken, req.Scopes)
	if err != nil {
		respondServiceError(w, h.logger, "record installation", err)
		return
	}

	resp := InstallationResponse{Installation: installation}
	if req.TenantID != nil {
		connection, err := h.connections.LinkShop(r.Context(), *req.TenantID, installation.ShopDomain)
		if err != nil {
			respondServiceError(w, h.logger, "link installation", err)
			return
		}
		resp.Connection = connection
	}
	respondJSON(w, http.StatusCreated, resp)
}

// StoreAccessToken records ledger credentials handed over by the ledger platform
func (h *Handler) StoreAccessToken(w http.ResponseWriter, r *http.Request) {
	var input application.StoreAccessTokenInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		return
	}
	connection, err := h.connections.StoreAccessToken(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.logger, "store access token", err)
		return
	}
	respondJSON(w, http.StatusOK, connection)
}

// RunSweep triggers an auto-sync sweep and waits for it to finish
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	reports, err := h.sweeps.RunSweep(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "auto-sync sweep", err)
		return
	}
	if reports == nil {
		reports = []*domain.SweepReport{}
	}
	respondJSON(w, http.StatusOK, SweepResponse{Reports: reports})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
