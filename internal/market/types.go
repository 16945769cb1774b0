package market

import "github.com/shopspring/decimal"

// Product is a catalog snapshot. It is re-fetched per operation and never
// cached beyond a single staged purchase.
type Product struct {
	ID       int64           `json:"productId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Qty      int             `json:"qty"`
	Platform string          `json:"platform"`
	Region   string          `json:"region"`
	OfferID  string          `json:"offerId,omitempty"`
}

// OrderKey is a delivered license serial. Issued by the remote API only once
// an order reaches "completed".
type OrderKey struct {
	Serial string `json:"serial"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

type Balance struct {
	Amount   decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

type OrderCreated struct {
	OrderID    string          `json:"orderId"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type OrderProduct struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type Order struct {
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Products   []OrderProduct  `json:"products"`
}

type OrderSummary struct {
	OrderID    string          `json:"orderId"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  string          `json:"createdAt,omitempty"`
}
