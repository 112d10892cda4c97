package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	searchPageSize  = 10
	productPageSize = 50
	orderPageSize   = 50
)

const orderFields = `
fragment OrderFields on Order {
  name
  createdAt
  email
  displayFulfillmentStatus
  customer { displayName }
  currentTotalPriceSet { shopMoney { amount currencyCode } }
  shippingAddress { firstName lastName address1 address2 city province country zip phone }
  lineItems(first: 100) {
    nodes {
      title
      sku
      quantity
      discountedTotalSet { shopMoney { amount currencyCode } }
    }
  }
  fulfillments { createdAt displayStatus trackingInfo { number url } }
  paymentTerms { paymentSchedules(first: 1) { nodes { dueAt } } }
}
`

const orderByNameQuery = `
query OrderByName($query: String!) {
  orders(first: 1, query: $query) {
    edges { node { ...OrderFields } }
  }
}
` + orderFields

const allOrdersQuery = `
query AllOrders($first: Int!, $after: String) {
  orders(first: $first, after: $after) {
    edges { node { ...OrderFields } }
    pageInfo { hasNextPage endCursor }
  }
}
` + orderFields

const productFields = `
fragment ProductFields on Product {
  id
  title
  description
  variants(first: 100) {
    edges {
      node {
        id
        title
        sku
        barcode
        price
        inventoryQuantity
        selectedOptions { name value }
        inventoryItem {
          unitCost { amount currencyCode }
          inventoryLevels(first: 1) { edges { node { location { name } } } }
        }
      }
    }
  }
}
`

const searchProductsQuery = `
query SearchProducts($query: String, $first: Int!, $after: String) {
  shop { currencyCode }
  products(first: $first, after: $after, query: $query) {
    edges { node { ...ProductFields } }
    pageInfo { hasNextPage endCursor }
  }
}
` + productFields

const productByIDQuery = `
query ProductByID($id: ID!) {
  shop { currencyCode }
  product(id: $id) { ...ProductFields }
}
` + productFields

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type moneyV2 struct {
	Amount       decimal.NullDecimal `json:"amount"`
	CurrencyCode string              `json:"currencyCode"`
}

type moneyBag struct {
	ShopMoney moneyV2 `json:"shopMoney"`
}

type orderNode struct {
	Name                     string    `json:"name"`
	CreatedAt                time.Time `json:"createdAt"`
	Email                    *string   `json:"email"`
	DisplayFulfillmentStatus string    `json:"displayFulfillmentStatus"`
	Customer                 *struct {
		DisplayName string `json:"displayName"`
	} `json:"customer"`
	CurrentTotalPriceSet moneyBag      `json:"currentTotalPriceSet"`
	ShippingAddress      *mailingAddr  `json:"shippingAddress"`
	LineItems            lineItemNodes `json:"lineItems"`
	Fulfillments         []fulfillment `json:"fulfillments"`
	PaymentTerms         *paymentTerms `json:"paymentTerms"`
}

type mailingAddr struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Address1  *string `json:"address1"`
	Address2  *string `json:"address2"`
	City      *string `json:"city"`
	Province  *string `json:"province"`
	Country   *string `json:"country"`
	Zip       *string `json:"zip"`
	Phone     *string `json:"phone"`
}

type lineItemNodes struct {
	Nodes []struct {
		Title              string   `json:"title"`
		SKU                *string  `json:"sku"`
		Quantity           int      `json:"quantity"`
		DiscountedTotalSet moneyBag `json:"discountedTotalSet"`
	} `json:"nodes"`
}

type fulfillment struct {
	CreatedAt     time.Time `json:"createdAt"`
	DisplayStatus *string   `json:"displayStatus"`
	TrackingInfo  []struct {
		Number *string `json:"number"`
		URL    *string `json:"url"`
	} `json:"trackingInfo"`
}

type paymentTerms struct {
	PaymentSchedules struct {
		Nodes []struct {
			DueAt *time.Time `json:"dueAt"`
		} `json:"nodes"`
	} `json:"paymentSchedules"`
}

type orderConnection struct {
	Edges []struct {
		Node orderNode `json:"node"`
	} `json:"edges"`
	PageInfo pageInfo `json:"pageInfo"`
}

type ordersResponse struct {
	Orders orderConnection `json:"orders"`
}

type shopCurrency struct {
	CurrencyCode string `json:"currencyCode"`
}

type productNode struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Variants    struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type variantNode struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	SKU               *string             `json:"sku"`
	Barcode           *string             `json:"barcode"`
	Price             decimal.NullDecimal `json:"price"`
	InventoryQuantity *int                `json:"inventoryQuantity"`
	SelectedOptions   []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
	InventoryItem *struct {
		UnitCost        *moneyV2 `json:"unitCost"`
		InventoryLevels struct {
			Edges []struct {
				Node struct {
					Location *struct {
						Name string `json:"name"`
					} `json:"location"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"inventoryLevels"`
	} `json:"inventoryItem"`
}

type productsResponse struct {
	Shop     shopCurrency `json:"shop"`
	Products struct {
		Edges []struct {
			Node productNode `json:"node"`
		} `json:"edges"`
		PageInfo pageInfo `json:"pageInfo"`
	} `json:"products"`
}

type productResponse struct {
	Shop    shopCurrency `json:"shop"`
	Product *productNode `json:"product"`
}
