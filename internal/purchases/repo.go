package purchases

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrDuplicateOrder = errors.New("order already recorded")

const pgUniqueViolation = "23505"

// AddPurchase inserts a new purchase row and returns the local id. A second
// insert with the same order id fails with ErrDuplicateOrder — never a silent
// overwrite.
func (r *Repo) AddPurchase(ctx context.Context, p Purchase) (int64, error) {
	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO purchases(
			user_id, order_id, product_id, product_name,
			quantity, price, total_price, status, keys,
			created_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,NULLIF($11,''))
		RETURNING id`,
		p.UserID, p.OrderID, p.ProductID, p.ProductName,
		p.Quantity, p.Price, p.TotalPrice, p.Status, p.Keys,
		createdAt, p.CompletedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrDuplicateOrder
		}
		return 0, err
	}
	return id, nil
}

// UpdateStatus sets the status (and keys, when given) for an order. The
// completion timestamp is set iff the new status is "completed", cleared
// otherwise. A missing order id is not an error — the row simply isn't there.
func (r *Repo) UpdateStatus(ctx context.Context, orderID, status, keys string) error {
	var completedAt any
	if status == StatusCompleted {
		completedAt = time.Now().UTC().Format(time.RFC3339)
	}

	var err error
	if keys != "" {
		_, err = r.DB.Exec(ctx, `
			UPDATE purchases SET status=$1, keys=$2, completed_at=$3
			WHERE order_id=$4`,
			status, keys, completedAt, orderID)
	} else {
		_, err = r.DB.Exec(ctx, `
			UPDATE purchases SET status=$1, completed_at=$2
			WHERE order_id=$3`,
			status, completedAt, orderID)
	}
	return err
}

// GetByOrderID returns nil when no purchase with that order id exists.
func (r *Repo) GetByOrderID(ctx context.Context, orderID string) (*Purchase, error) {
	row := r.DB.QueryRow(ctx, selectPurchase+` WHERE order_id=$1`, orderID)
	p, err := scanPurchase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetUserPurchases(ctx context.Context, userID int64, limit int) ([]Purchase, error) {
	rows, err := r.DB.Query(ctx, selectPurchase+`
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchases(rows)
}

// GetPendingPurchases is the reconciliation work queue: every row whose
// status is not terminal, newest first.
func (r *Repo) GetPendingPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := r.DB.Query(ctx, selectPurchase+`
		WHERE status NOT IN ($1,$2,$3) ORDER BY created_at DESC`,
		StatusCompleted, StatusCancelled, StatusRefunded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchases(rows)
}

const selectPurchase = `
	SELECT id, user_id, order_id, product_id, product_name,
	       quantity, price, total_price, status,
	       COALESCE(keys,''), created_at, COALESCE(completed_at,'')
	FROM purchases`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	err := row.Scan(
		&p.ID, &p.UserID, &p.OrderID, &p.ProductID, &p.ProductName,
		&p.Quantity, &p.Price, &p.TotalPrice, &p.Status,
		&p.Keys, &p.CreatedAt, &p.CompletedAt,
	)
	return p, err
}

func collectPurchases(rows pgx.Rows) ([]Purchase, error) {
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
