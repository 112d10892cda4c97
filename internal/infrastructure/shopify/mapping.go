package shopify

import (
	"strings"

	"shopify-ledger-sync/internal/domain"
)

func toMoney(m moneyV2) *domain.Money {
	if !m.Amount.Valid {
		return nil
	}
	return &domain.Money{Amount: m.Amount.Decimal, CurrencyCode: m.CurrencyCode}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmed(s *string) string {
	return strings.TrimSpace(deref(s))
}

func toSourceOrder(node orderNode) *domain.SourceOrder {
	order := &domain.SourceOrder{
		Name:              node.Name,
		Number:            strings.TrimPrefix(node.Name, "#"),
		CreatedAt:         node.CreatedAt,
		CustomerEmail:     deref(node.Email),
		FulfillmentStatus: node.DisplayFulfillmentStatus,
		TotalPrice:        toMoney(node.CurrentTotalPriceSet.ShopMoney),
		LineItems:         make([]domain.OrderLineItem, 0, len(node.LineItems.Nodes)),
		Fulfillments:      make([]domain.FulfillmentSummary, 0, len(node.Fulfillments)),
	}
	if node.Customer != nil {
		order.CustomerName = node.Customer.DisplayName
	}

	if addr := node.ShippingAddress; addr != nil {
		var nameParts []string
		for _, part := range []*string{addr.FirstName, addr.LastName} {
			if p := trimmed(part); p != "" {
				nameParts = append(nameParts, p)
			}
		}
		order.ShippingAddress = &domain.ShippingAddress{
			Name:           strings.Join(nameParts, " "),
			AddressLineOne: deref(addr.Address1),
			AddressLineTwo: deref(addr.Address2),
			City:           deref(addr.City),
			Province:       deref(addr.Province),
			Country:        deref(addr.Country),
			PostalCode:     deref(addr.Zip),
			Phone:          deref(addr.Phone),
		}
	}

	for _, item := range node.LineItems.Nodes {
		order.LineItems = append(order.LineItems, domain.OrderLineItem{
			Title:      item.Title,
			SKU:        deref(item.SKU),
			Quantity:   item.Quantity,
			TotalPrice: toMoney(item.DiscountedTotalSet.ShopMoney),
		})
	}

	for _, f := range node.Fulfillments {
		summary := domain.FulfillmentSummary{
			CreatedAt:       f.CreatedAt,
			Status:          deref(f.DisplayStatus),
			TrackingNumbers: []string{},
			TrackingURLs:    []string{},
		}
		for _, info := range f.TrackingInfo {
			if number := trimmed(info.Number); number != "" {
				summary.TrackingNumbers = append(summary.TrackingNumbers, number)
			}
			if url := trimmed(info.URL); url != "" {
				summary.TrackingURLs = append(summary.TrackingURLs, url)
			}
		}
		order.Fulfillments = append(order.Fulfillments, summary)
	}

	if terms := node.PaymentTerms; terms != nil && len(terms.PaymentSchedules.Nodes) > 0 {
		order.DueDate = terms.PaymentSchedules.Nodes[0].DueAt
	}
	return order
}

// toSourceProduct maps a product node. Selling prices carry the shop currency, falling back
// to the unit cost currency when the shop currency is unknown.
func toSourceProduct(node productNode, shopCurrency string) *domain.SourceProduct {
	product := &domain.SourceProduct{
		GID:         node.ID,
		Title:       node.Title,
		Description: deref(node.Description),
		Variants:    make([]domain.SourceVariant, 0, len(node.Variants.Edges)),
	}

	for i, edge := range node.Variants.Edges {
		v := edge.Node
		variant := domain.SourceVariant{
			GID:               v.ID,
			Title:             v.Title,
			SKU:               deref(v.SKU),
			Barcode:           deref(v.Barcode),
			InventoryQuantity: v.InventoryQuantity,
			Position:          i,
			SelectedOptions:   []domain.SelectedOption{},
		}

		var costCurrency string
		if item := v.InventoryItem; item != nil {
			if item.UnitCost != nil {
				variant.CostPrice = toMoney(*item.UnitCost)
				costCurrency = item.UnitCost.CurrencyCode
			}
			for _, level := range item.InventoryLevels.Edges {
				if level.Node.Location == nil {
					continue
				}
				if name := strings.TrimSpace(level.Node.Location.Name); name != "" {
					variant.WarehouseName = name
					break
				}
			}
		}

		currency := shopCurrency
		if currency == "" {
			currency = costCurrency
		}
		if v.Price.Valid && currency != "" {
			variant.SellingPrice = &domain.Money{Amount: v.Price.Decimal, CurrencyCode: currency}
		}

		for _, option := range v.SelectedOptions {
			name := strings.TrimSpace(option.Name)
			value := strings.TrimSpace(option.Value)
			if name == "" || value == "" {
				continue
			}
			variant.SelectedOptions = append(variant.SelectedOptions, domain.SelectedOption{Name: name, Value: value})
		}

		product.Variants = append(product.Variants, variant)
	}
	return product
}

// escapeSearchValue escapes backslashes and quotes inside a search query term
func escapeSearchValue(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
}
