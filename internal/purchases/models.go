package purchases

import "github.com/shopspring/decimal"

// Purchase is the local record of a placed order. OrderID is remote-assigned
// and unique across all rows; it is the idempotency key for the whole system.
// Timestamps are RFC3339 strings so lexical order matches time order.
type Purchase struct {
	ID          int64
	UserID      int64
	OrderID     string
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	TotalPrice  decimal.Decimal
	Status      string
	Keys        string // serialized key list, empty until delivered
	CreatedAt   string
	CompletedAt string // set exactly when status becomes "completed"
}

// Link maps an external marketplace item id to a catalog product, scoped to
// the owning user, with the price observed when the link was made.
type Link struct {
	ExternalID  string
	ProductID   int64
	UserID      int64
	PriceAtLink decimal.Decimal
	CreatedAt   string
}
