// Package reconciler re-synchronizes non-terminal stored orders against the
// remote API on a fixed period, delivering keys when an order completes.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gamekey-bot/internal/market"
	"gamekey-bot/internal/purchases"
)

type Store interface {
	GetPendingPurchases(ctx context.Context) ([]purchases.Purchase, error)
	UpdateStatus(ctx context.Context, orderID, status, keys string) error
}

type MarketAPI interface {
	GetOrder(ctx context.Context, orderID string) (market.Order, error)
	GetOrderKeys(ctx context.Context, orderID string) ([]market.OrderKey, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, orderID, productName string, keys []market.OrderKey) error
}

type Reconciler struct {
	Store        Store
	Market       MarketAPI
	Notifier     Notifier
	Interval     time.Duration
	StartupDelay time.Duration
	Log          zerolog.Logger
}

// Run polls until ctx is cancelled. Errors never stop the loop; a failed
// order or a failed pass is retried on the next cycle.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.StartupDelay > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.StartupDelay):
		}
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation pass. Each order's update is
// committed independently, so aborting between orders on shutdown is safe.
func (r *Reconciler) RunOnce(ctx context.Context) {
	pending, err := r.Store.GetPendingPurchases(ctx)
	if err != nil {
		r.Log.Error().Err(err).Msg("load pending purchases")
		return
	}

	for _, p := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := r.reconcile(ctx, p); err != nil {
			r.Log.Error().Err(err).Str("order_id", p.OrderID).Msg("reconcile order")
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context, p purchases.Purchase) error {
	order, err := r.Market.GetOrder(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if order.Status == p.Status {
		return nil
	}

	if order.Status != purchases.StatusCompleted {
		return r.Store.UpdateStatus(ctx, p.OrderID, order.Status, "")
	}

	keys, err := r.Market.GetOrderKeys(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		// Completed but keys not provisioned yet: leave the row pending and
		// try again next pass.
		r.Log.Info().Str("order_id", p.OrderID).Msg("order completed, keys not yet available")
		return nil
	}

	encoded, err := purchases.EncodeKeys(keys)
	if err != nil {
		return err
	}
	if err := r.Store.UpdateStatus(ctx, p.OrderID, purchases.StatusCompleted, encoded); err != nil {
		return err
	}

	if err := r.Notifier.Notify(ctx, p.UserID, p.OrderID, p.ProductName, keys); err != nil {
		// Keys are persisted; the notification is best effort.
		r.Log.Error().Err(err).Str("order_id", p.OrderID).Msg("notify delivery")
	}
	r.Log.Info().Str("order_id", p.OrderID).Int64("user_id", p.UserID).Msg("keys delivered")
	return nil
}
