package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Money is an amount in a currency
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// SourceOrder is a read-only view of a shop order
type SourceOrder struct {
	Name              string               `json:"orderName"`
	Number            string               `json:"orderNumber"`
	CreatedAt         time.Time            `json:"createdAt"`
	CustomerEmail     string               `json:"customerEmail,omitempty"`
	CustomerName      string               `json:"customerName,omitempty"`
	FulfillmentStatus string               `json:"fulfillmentStatus,omitempty"`
	TotalPrice        *Money               `json:"totalPrice,omitempty"`
	ShippingAddress   *ShippingAddress     `json:"shippingAddress,omitempty"`
	LineItems         []OrderLineItem      `json:"lineItems"`
	Fulfillments      []FulfillmentSummary `json:"fulfillments"`
	DueDate           *time.Time           `json:"dueDate,omitempty"`
}

// OrderLineItem is one purchased line of a source order
type OrderLineItem struct {
	Title      string `json:"title"`
	SKU        string `json:"sku,omitempty"`
	Quantity   int    `json:"quantity"`
	TotalPrice *Money `json:"totalPrice,omitempty"`
}

// FulfillmentSummary carries shipment tracking for a source order
type FulfillmentSummary struct {
	CreatedAt       time.Time `json:"createdAt"`
	Status          string    `json:"status,omitempty"`
	TrackingNumbers []string  `json:"trackingNumbers"`
	TrackingURLs    []string  `json:"trackingUrls"`
}

// ShippingAddress of a source order
type ShippingAddress struct {
	Name           string `json:"name,omitempty"`
	AddressLineOne string `json:"addressLineOne,omitempty"`
	AddressLineTwo string `json:"addressLineTwo,omitempty"`
	City           string `json:"city,omitempty"`
	Province       string `json:"province,omitempty"`
	Country        string `json:"country,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// SanitizeOrderNumber trims the number and drops a leading '#'
func SanitizeOrderNumber(orderNumber string) (string, error) {
	sanitized := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(orderNumber), "#"))
	if sanitized == "" {
		return "", NewValidationError("order number is required")
	}
	return sanitized, nil
}
