package application

import (
	"context"
	"strings"

	"shopify-ledger-sync/internal/domain"
	"shopify-ledger-sync/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BuildSyncPayload builds the canonical ledger payload for a product. Only variants with a SKU are
// included. Option names outside the supported catalogue fail the build instead of being dropped.
func BuildSyncPayload(product *domain.SourceProduct, ledgerProductID *int64) (*domain.ProductSyncPayload, error) {
	var optionTypes []domain.OptionType
	seenTypes := make(map[domain.OptionType]bool)
	var unsupported []string
	seenUnsupported := make(map[string]bool)

	variants := make([]domain.VariantPayload, 0, len(product.Variants))
	for _, variant := range product.Variants {
		sku := strings.TrimSpace(variant.SKU)
		if sku == "" {
			continue
		}

		options := make(map[domain.OptionType]string, len(variant.SelectedOptions))
		for _, selected := range variant.SelectedOptions {
			optionType, ok := domain.OptionTypeFromDisplayName(selected.Name)
			if !ok {
				name := strings.TrimSpace(selected.Name)
				if !seenUnsupported[name] {
					seenUnsupported[name] = true
					unsupported = append(unsupported, name)
				}
				continue
			}
			if !seenTypes[optionType] {
				seenTypes[optionType] = true
				optionTypes = append(optionTypes, optionType)
			}
			options[optionType] = strings.TrimSpace(selected.Value)
		}

		variants = append(variants, domain.VariantPayload{
			SKU:           sku,
			Barcode:       trimmedOrNil(variant.Barcode),
			CostPrice:     amountOrZero(variant.CostPrice),
			SellingPrice:  amountOrZero(variant.SellingPrice),
			Options:       options,
			Inventory:     variant.InventoryQuantity,
			WarehouseName: trimmedOrNil(variant.WarehouseName),
		})
	}

	if len(variants) == 0 {
		return nil, domain.NewValidationError("no variants with SKU found for product %s", product.Title)
	}
	if len(unsupported) > 0 {
		return nil, domain.NewValidationError("unsupported variant options for product %s: types %s", product.Title, strings.Join(unsupported, ", "))
	}

	return &domain.ProductSyncPayload{
		ProductID:          ledgerProductID,
		Title:              product.Title,
		Description:        trimmedOrNil(product.Description),
		VariantOptionTypes: optionTypes,
		Variants:           variants,
	}, nil
}

// ProductDiffEngine decides whether a product must be pushed again
type ProductDiffEngine struct {
	ledger ports.LedgerAPI
	logger zerolog.Logger
}

// NewProductDiffEngine creates a new diff engine
func NewProductDiffEngine(ledger ports.LedgerAPI, logger zerolog.Logger) *ProductDiffEngine {
	return &ProductDiffEngine{ledger: ledger, logger: logger}
}

// DetermineSyncRequired compares the product against the ledger snapshot of its last push.
// Anything that prevents a confident comparison counts as "sync required".
func (e *ProductDiffEngine) DetermineSyncRequired(ctx context.Context, product *domain.SourceProduct, record *domain.ProductSyncRecord, token string) bool {
	if record == nil || record.LedgerProductID == nil {
		return true
	}
	if strings.TrimSpace(token) == "" {
		return true
	}

	payload, err := BuildSyncPayload(product, record.LedgerProductID)
	if err != nil {
		e.logger.Debug().Err(err).Str("product", product.GID).Msg("Payload build failed, marking product for sync")
		return true
	}

	snapshot, err := e.ledger.FetchProductSnapshot(ctx, token, *record.LedgerProductID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("ledgerProductId", *record.LedgerProductID).Msg("Failed to fetch ledger product snapshot")
		return true
	}
	if snapshot == nil {
		return true
	}

	return HasDifferences(payload, snapshot)
}

// HasDifferences reports whether payload and snapshot disagree on any compared field
func HasDifferences(payload *domain.ProductSyncPayload, snapshot *domain.ProductSnapshot) bool {
	if payload.Title != snapshot.Title {
		return true
	}
	if normalizeOptional(payload.Description) != normalizeOptional(snapshot.Description) {
		return true
	}
	if !sameOptionTypeNames(payload.VariantOptionTypes, snapshot.VariantOptionTypes) {
		return true
	}

	local := make(map[string]domain.VariantPayload, len(payload.Variants))
	for _, v := range payload.Variants {
		local[v.SKU] = v
	}
	remote := make(map[string]domain.VariantSnapshot, len(snapshot.Variants))
	for _, v := range snapshot.Variants {
		remote[v.SKU] = v
	}
	if len(local) != len(remote) {
		return true
	}

	for sku, localVariant := range local {
		remoteVariant, ok := remote[sku]
		if !ok {
			return true
		}
		if variantDiffers(localVariant, remoteVariant) {
			return true
		}
	}
	return false
}

func variantDiffers(local domain.VariantPayload, remote domain.VariantSnapshot) bool {
	if normalizeOptional(local.Barcode) != normalizeOptional(remote.Barcode) {
		return true
	}
	if !local.CostPrice.Equal(remote.CostPrice) {
		return true
	}
	if !local.SellingPrice.Equal(remote.SellingPrice) {
		return true
	}

	remoteOptions := make(map[domain.OptionType]string, len(remote.Options))
	for rawType, value := range remote.Options {
		optionType, ok := domain.OptionTypeFromSerializedKey(rawType)
		if !ok {
			return true
		}
		remoteOptions[optionType] = value
	}
	if len(remoteOptions) != len(local.Options) {
		return true
	}
	for optionType, value := range local.Options {
		if remoteValue, ok := remoteOptions[optionType]; !ok || remoteValue != value {
			return true
		}
	}

	if local.Inventory != nil {
		if remote.InventoryQuantity == nil || *remote.InventoryQuantity != *local.Inventory {
			return true
		}
	}
	return false
}

// sameOptionTypeNames compares option type names case-insensitively. Remote names that match a known
// option type by enum or display name are canonicalised first.
func sameOptionTypeNames(local []domain.OptionType, remote []string) bool {
	localNames := make(map[string]bool, len(local))
	for _, t := range local {
		localNames[strings.ToLower(t.DisplayName())] = true
	}
	remoteNames := make(map[string]bool, len(remote))
	for _, name := range remote {
		if t, ok := domain.OptionTypeFromSerializedKey(name); ok {
			remoteNames[strings.ToLower(t.DisplayName())] = true
			continue
		}
		remoteNames[strings.ToLower(strings.TrimSpace(name))] = true
	}
	if len(localNames) != len(remoteNames) {
		return false
	}
	for name := range localNames {
		if !remoteNames[name] {
			return false
		}
	}
	return true
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeOptional(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func amountOrZero(money *domain.Money) decimal.Decimal {
	if money == nil {
		return decimal.Zero
	}
	return money.Amount
}
