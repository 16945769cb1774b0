package purchases

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkRepo struct{ DB *pgxpool.Pool }

// UpsertLink creates or replaces the mapping for (external_id, user_id).
// Re-linking overwrites the prior product and price snapshot.
func (r *LinkRepo) UpsertLink(ctx context.Context, l Link) error {
	createdAt := l.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO marketplace_links(external_id, user_id, product_id, price_at_link, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (external_id, user_id) DO UPDATE
		SET product_id=EXCLUDED.product_id,
		    price_at_link=EXCLUDED.price_at_link,
		    created_at=EXCLUDED.created_at`,
		l.ExternalID, l.UserID, l.ProductID, l.PriceAtLink, createdAt)
	return err
}

// RemoveLink reports whether a link was actually deleted.
func (r *LinkRepo) RemoveLink(ctx context.Context, externalID string, userID int64) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM marketplace_links WHERE external_id=$1 AND user_id=$2`,
		externalID, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// GetLink returns nil when no such link exists.
func (r *LinkRepo) GetLink(ctx context.Context, externalID string, userID int64) (*Link, error) {
	var l Link
	err := r.DB.QueryRow(ctx, `
		SELECT external_id, user_id, product_id, price_at_link, created_at
		FROM marketplace_links WHERE external_id=$1 AND user_id=$2`,
		externalID, userID,
	).Scan(&l.ExternalID, &l.UserID, &l.ProductID, &l.PriceAtLink, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepo) ListLinks(ctx context.Context, userID int64) ([]Link, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT external_id, user_id, product_id, price_at_link, created_at
		FROM marketplace_links WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ExternalID, &l.UserID, &l.ProductID, &l.PriceAtLink, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
