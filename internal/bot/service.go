// Package bot implements the command operations the chat dispatcher calls:
// buy intent, confirm, cancel, linking, quick-buy, balance and history.
// Results are plain values; rendering belongs to the transport.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gamekey-bot/internal/market"
	"gamekey-bot/internal/purchases"
	"gamekey-bot/internal/session"
)

// MarketAPI is the slice of the commerce client the command flows use.
type MarketAPI interface {
	GetBalance(ctx context.Context) (market.Balance, error)
	GetProduct(ctx context.Context, productID int64) (market.Product, error)
	CreateOrder(ctx context.Context, productID int64, quantity int, price decimal.Decimal, name string) (market.OrderCreated, error)
	GetOrderKeys(ctx context.Context, orderID string) ([]market.OrderKey, error)
}

type PurchaseStore interface {
	AddPurchase(ctx context.Context, p purchases.Purchase) (int64, error)
	UpdateStatus(ctx context.Context, orderID, status, keys string) error
	GetUserPurchases(ctx context.Context, userID int64, limit int) ([]purchases.Purchase, error)
}

type LinkStore interface {
	UpsertLink(ctx context.Context, l purchases.Link) error
	RemoveLink(ctx context.Context, externalID string, userID int64) (bool, error)
	GetLink(ctx context.Context, externalID string, userID int64) (*purchases.Link, error)
	ListLinks(ctx context.Context, userID int64) ([]purchases.Link, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, orderID, productName string, keys []market.OrderKey) error
}

type Service struct {
	Market   MarketAPI
	Store    PurchaseStore
	Links    LinkStore
	Sessions session.Store
	Notifier Notifier
	Allowed  map[int64]struct{} // empty permits everyone
	Log      zerolog.Logger
}

func NewService(m MarketAPI, store PurchaseStore, links LinkStore, sessions session.Store, n Notifier, allowed []int64, log zerolog.Logger) *Service {
	set := make(map[int64]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &Service{
		Market:   m,
		Store:    store,
		Links:    links,
		Sessions: sessions,
		Notifier: n,
		Allowed:  set,
		Log:      log,
	}
}

// authorize gates every command before any API or store call.
func (s *Service) authorize(userID int64) error {
	if len(s.Allowed) == 0 {
		return nil
	}
	if _, ok := s.Allowed[userID]; !ok {
		s.Log.Warn().Int64("user_id", userID).Msg("unauthorized access attempt")
		return ErrUnauthorized
	}
	return nil
}

// Quote is the confirmation card for a staged purchase. LinkedPrice and
// Drift are populated only on the quick-buy path.
type Quote struct {
	Product     market.Product
	Quantity    int
	Total       decimal.Decimal
	ExternalID  string
	LinkedPrice decimal.Decimal
	Drift       decimal.Decimal
}

// Receipt reports the outcome of a confirmed purchase. Pending is true while
// the remote order has not reached a terminal status; keys for pending orders
// arrive later via the reconciler.
type Receipt struct {
	OrderID    string
	Status     string
	TotalPrice decimal.Decimal
	Keys       []market.OrderKey
	Pending    bool
}

// BuyIntent resolves the product and stages it for confirmation. Stock is
// checked first: nothing is staged (and any earlier staged entry survives)
// when the product cannot cover the requested quantity.
func (s *Service) BuyIntent(ctx context.Context, userID, productID int64, quantity int) (Quote, error) {
	if err := s.authorize(userID); err != nil {
		return Quote{}, err
	}
	if quantity <= 0 {
		return Quote{}, ErrInvalidQuantity
	}

	product, err := s.Market.GetProduct(ctx, productID)
	if err != nil {
		return Quote{}, err
	}
	if product.Qty == 0 {
		return Quote{}, ErrOutOfStock
	}
	if product.Qty < quantity {
		return Quote{}, fmt.Errorf("%w: %d available", ErrInsufficientStock, product.Qty)
	}

	if err := s.Sessions.Stage(ctx, userID, session.Entry{Product: product, Quantity: quantity}); err != nil {
		return Quote{}, err
	}
	return Quote{
		Product:  product,
		Quantity: quantity,
		Total:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// QuickBuyIntent resolves an external marketplace id through the stored link
// and stages a single unit, reporting how far the current price has drifted
// from the price observed at link time.
func (s *Service) QuickBuyIntent(ctx context.Context, userID int64, externalID string) (Quote, error) {
	if err := s.authorize(userID); err != nil {
		return Quote{}, err
	}

	link, err := s.Links.GetLink(ctx, externalID, userID)
	if err != nil {
		return Quote{}, err
	}
	if link == nil {
		return Quote{}, ErrLinkNotFound
	}

	product, err := s.Market.GetProduct(ctx, link.ProductID)
	if err != nil {
		return Quote{}, err
	}
	if product.Qty == 0 {
		return Quote{}, ErrOutOfStock
	}

	if err := s.Sessions.Stage(ctx, userID, session.Entry{Product: product, Quantity: 1}); err != nil {
		return Quote{}, err
	}
	return Quote{
		Product:     product,
		Quantity:    1,
		Total:       product.Price,
		ExternalID:  externalID,
		LinkedPrice: link.PriceAtLink,
		Drift:       product.Price.Sub(link.PriceAtLink),
	}, nil
}

// Confirm executes the staged purchase. The staged intent is consumed up
// front; if order creation then fails it is not restored and the user
// re-issues the buy command.
func (s *Service) Confirm(ctx context.Context, userID int64) (Receipt, error) {
	if err := s.authorize(userID); err != nil {
		return Receipt{}, err
	}

	entry, ok, err := s.Sessions.Take(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}
	if !ok {
		return Receipt{}, ErrSessionExpired
	}

	created, err := s.Market.CreateOrder(ctx, entry.Product.ID, entry.Quantity, entry.Product.Price, entry.Product.Name)
	if err != nil {
		return Receipt{}, err
	}

	_, err = s.Store.AddPurchase(ctx, purchases.Purchase{
		UserID:      userID,
		OrderID:     created.OrderID,
		ProductID:   entry.Product.ID,
		ProductName: entry.Product.Name,
		Quantity:    entry.Quantity,
		Price:       entry.Product.Price,
		TotalPrice:  created.TotalPrice,
		Status:      created.Status,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		if errors.Is(err, purchases.ErrDuplicateOrder) {
			// Order ids are remote-assigned per call; a duplicate here means
			// something upstream replayed the confirmation.
			s.Log.Error().Str("order_id", created.OrderID).Msg("duplicate order id on confirm")
		}
		return Receipt{}, err
	}

	receipt := Receipt{
		OrderID:    created.OrderID,
		Status:     created.Status,
		TotalPrice: created.TotalPrice,
		Pending:    !purchases.IsTerminal(created.Status),
	}

	// Some orders complete synchronously; fold the keys into this step
	// instead of waiting a reconciliation cycle. Key fetch failures are
	// non-fatal — the order is already recorded.
	if created.Status == purchases.StatusCompleted {
		keys, err := s.Market.GetOrderKeys(ctx, created.OrderID)
		if err != nil {
			s.Log.Error().Err(err).Str("order_id", created.OrderID).Msg("fetch keys after completed order")
			return receipt, nil
		}
		if len(keys) > 0 {
			encoded, err := purchases.EncodeKeys(keys)
			if err != nil {
				return receipt, nil
			}
			if err := s.Store.UpdateStatus(ctx, created.OrderID, purchases.StatusCompleted, encoded); err != nil {
				s.Log.Error().Err(err).Str("order_id", created.OrderID).Msg("store keys")
				return receipt, nil
			}
			receipt.Keys = keys
			if err := s.Notifier.Notify(ctx, userID, created.OrderID, entry.Product.Name, keys); err != nil {
				s.Log.Error().Err(err).Str("order_id", created.OrderID).Msg("notify delivery")
			}
		}
	}
	return receipt, nil
}

// Cancel discards any staged purchase. Cancelling with nothing staged is
// still an acknowledged cancel.
func (s *Service) Cancel(ctx context.Context, userID int64) error {
	if err := s.authorize(userID); err != nil {
		return err
	}
	_, _, err := s.Sessions.Take(ctx, userID)
	return err
}

// LinkCreate validates the product and stores (or replaces) the alias along
// with the current price snapshot.
func (s *Service) LinkCreate(ctx context.Context, userID, productID int64, externalID string) (market.Product, error) {
	if err := s.authorize(userID); err != nil {
		return market.Product{}, err
	}

	product, err := s.Market.GetProduct(ctx, productID)
	if err != nil {
		return market.Product{}, err
	}
	err = s.Links.UpsertLink(ctx, purchases.Link{
		ExternalID:  externalID,
		ProductID:   productID,
		UserID:      userID,
		PriceAtLink: product.Price,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return market.Product{}, err
	}
	return product, nil
}

func (s *Service) LinkRemove(ctx context.Context, userID int64, externalID string) error {
	if err := s.authorize(userID); err != nil {
		return err
	}
	removed, err := s.Links.RemoveLink(ctx, externalID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrLinkNotFound
	}
	return nil
}

func (s *Service) ListLinks(ctx context.Context, userID int64) ([]purchases.Link, error) {
	if err := s.authorize(userID); err != nil {
		return nil, err
	}
	return s.Links.ListLinks(ctx, userID)
}

func (s *Service) Balance(ctx context.Context, userID int64) (market.Balance, error) {
	if err := s.authorize(userID); err != nil {
		return market.Balance{}, err
	}
	return s.Market.GetBalance(ctx)
}

func (s *Service) History(ctx context.Context, userID int64, limit int) ([]purchases.Purchase, error) {
	if err := s.authorize(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return s.Store.GetUserPurchases(ctx, userID, limit)
}
