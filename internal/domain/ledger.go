package domain

import "github.com/shopspring/decimal"

// LedgerCustomer as returned by the ledger platform
type LedgerCustomer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Type      string `json:"type,omitempty"`
	CompanyID *int64 `json:"companyId,omitempty"`
	PersonID  *int64 `json:"personId,omitempty"`
}

// CreateCustomerRequest creates a ledger customer
type CreateCustomerRequest struct {
	Name                       string  `json:"name"`
	OrganizationNumber         *string `json:"organizationNumber"`
	PrivateContact             bool    `json:"privateContact"`
	Email                      *string `json:"email"`
	CountryCode                *string `json:"countryCode"`
	City                       *string `json:"city"`
	PostalCode                 *string `json:"postalCode"`
	AdministrativeDivisionCode *string `json:"administrativeDivisionCode"`
	AddressPart1               *string `json:"addressPart1"`
	AddressPart2               *string `json:"addressPart2"`
}

// NewOrderRequest creates a ledger order
type NewOrderRequest struct {
	DaysUntilDue int            `json:"daysUntilDue"`
	CurrencyCode string         `json:"currencyCode"`
	CustomerID   int64          `json:"customerId"`
	OrderLines   []NewOrderLine `json:"orderLines"`
}

// NewOrderLine is one line of a ledger order
type NewOrderLine struct {
	RowNumber int              `json:"rowNumber"`
	ItemName  string           `json:"itemName"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Discount  *decimal.Decimal `json:"discount"`
	VatCode   string           `json:"vatCode"`
	VariantID *int64           `json:"variantId"`
}

// LedgerOrder as returned by the ledger platform
type LedgerOrder struct {
	ID           int64  `json:"id"`
	Number       string `json:"number"`
	CurrencyCode string `json:"currencyCode"`
}

// NewInvoiceRequest creates a ledger invoice for an order. Dates are formatted as YYYY-MM-DD.
type NewInvoiceRequest struct {
	IssueDate string  `json:"issueDate"`
	DueDate   string  `json:"dueDate"`
	OrderID   int64   `json:"orderId"`
	Comment   string  `json:"comment"`
	Email     *string `json:"email"`
	SendEmail bool    `json:"sendEmail"`
}

// LedgerInvoice as returned by the ledger platform
type LedgerInvoice struct {
	ID     int64       `json:"id"`
	Number string      `json:"number"`
	Order  LedgerOrder `json:"order"`
}

// ProductSyncPayload is the canonical product representation pushed to the ledger and compared
// against its snapshot. It is built per call and never cached.
type ProductSyncPayload struct {
	ProductID          *int64           `json:"productId"`
	Title              string           `json:"title"`
	Description        *string          `json:"description"`
	VariantOptionTypes []OptionType     `json:"variantOptionTypes"`
	Variants           []VariantPayload `json:"variants"`
}

// VariantPayload is one SKU in the canonical payload
type VariantPayload struct {
	SKU           string                `json:"sku"`
	Barcode       *string               `json:"barcode"`
	CostPrice     decimal.Decimal       `json:"costPrice"`
	SellingPrice  decimal.Decimal       `json:"sellingPrice"`
	Options       map[OptionType]string `json:"options"`
	Inventory     *int                  `json:"inventory"`
	WarehouseName *string               `json:"warehouseName"`
}

// ProductPushResult is the ledger response to a product create-or-update
type ProductPushResult struct {
	ProductID int64            `json:"productId"`
	Variants  []VariantMapping `json:"variants"`
}

// VariantMapping links a SKU to the ledger variant id
type VariantMapping struct {
	VariantID int64  `json:"variantId"`
	SKU       string `json:"sku"`
}

// ProductSnapshot is the ledger's stored view of a product
type ProductSnapshot struct {
	ProductID          int64             `json:"productId"`
	Title              string            `json:"title"`
	Description        *string           `json:"description"`
	VariantOptionTypes []string          `json:"variantOptionTypes"`
	Variants           []VariantSnapshot `json:"variants"`
}

// VariantSnapshot is the ledger's stored view of one variant
type VariantSnapshot struct {
	VariantID         int64             `json:"variantId"`
	SKU               string            `json:"sku"`
	Barcode           *string           `json:"barcode"`
	CostPrice         decimal.Decimal   `json:"costPrice"`
	SellingPrice      decimal.Decimal   `json:"sellingPrice"`
	Options           map[string]string `json:"options"`
	InventoryQuantity *int              `json:"inventoryQuantity"`
	WarehouseName     *string           `json:"warehouseName"`
}
