package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const productGIDPrefix = "gid://shopify/Product/"

// SourceProduct is a read-only view of a shop product
type SourceProduct struct {
	GID         string          `json:"productGid"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Variants    []SourceVariant `json:"variants"`
}

// SourceVariant is one variant of a source product
type SourceVariant struct {
	GID               string           `json:"variantGid"`
	Title             string           `json:"title,omitempty"`
	SKU               string           `json:"sku,omitempty"`
	Barcode           string           `json:"barcode,omitempty"`
	SellingPrice      *Money           `json:"sellingPrice,omitempty"`
	CostPrice         *Money           `json:"costPrice,omitempty"`
	InventoryQuantity *int             `json:"inventoryQuantity,omitempty"`
	Position          int              `json:"position"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	WarehouseName     string           `json:"warehouseName,omitempty"`
}

// SelectedOption is a named option value chosen by a variant, e.g. Size=M
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NormalizeProductGID accepts either a numeric id or a full product GID
func NormalizeProductGID(productID string) (string, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return "", NewValidationError("product id is required")
	}
	if strings.HasPrefix(trimmed, "gid://") {
		return trimmed, nil
	}
	if _, err := strconv.ParseUint(trimmed, 10, 64); err != nil {
		return "", NewValidationError("invalid product id %q", productID)
	}
	return fmt.Sprintf("%s%s", productGIDPrefix, trimmed), nil
}
