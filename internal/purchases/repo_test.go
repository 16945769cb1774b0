package purchases

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamekey-bot/internal/postgres"
)

// Integration tests against a real database; set TEST_POSTGRES_DSN to run.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	t.Cleanup(pool.Close)
	return pool
}

func testPurchase(userID int64, status string) Purchase {
	return Purchase{
		UserID:      userID,
		OrderID:     uuid.NewString(),
		ProductID:   42,
		ProductName: "Game X",
		Quantity:    1,
		Price:       decimal.NewFromFloat(9.99),
		TotalPrice:  decimal.NewFromFloat(9.99),
		Status:      status,
	}
}

func TestAddPurchaseDuplicateOrderID(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}

	p := testPurchase(7, StatusNew)
	id, err := repo.AddPurchase(ctx, p)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = repo.AddPurchase(ctx, p)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestUpdateStatusCompletionTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}

	p := testPurchase(7, StatusNew)
	_, err := repo.AddPurchase(ctx, p)
	require.NoError(t, err)

	// Non-terminal update leaves the completion timestamp unset.
	require.NoError(t, repo.UpdateStatus(ctx, p.OrderID, StatusProcessing, ""))
	got, err := repo.GetByOrderID(ctx, p.OrderID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Empty(t, got.CompletedAt)

	keys := `[{"serial":"ABCD-1234","name":"Game X","type":"steam"}]`
	require.NoError(t, repo.UpdateStatus(ctx, p.OrderID, StatusCompleted, keys))
	got, err = repo.GetByOrderID(ctx, p.OrderID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotEmpty(t, got.CompletedAt)
	assert.Equal(t, keys, got.Keys)
}

func TestUpdateStatusMissingOrderIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}
	assert.NoError(t, repo.UpdateStatus(ctx, "no-such-order", StatusCompleted, ""))
}

func TestGetByOrderIDAbsent(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}

	got, err := repo.GetByOrderID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetPendingPurchasesExcludesTerminal(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}

	active := testPurchase(8, StatusNew)
	_, err := repo.AddPurchase(ctx, active)
	require.NoError(t, err)

	done := testPurchase(8, StatusProcessing)
	_, err = repo.AddPurchase(ctx, done)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, done.OrderID, StatusCompleted, ""))

	cancelled := testPurchase(8, StatusCancelled)
	_, err = repo.AddPurchase(ctx, cancelled)
	require.NoError(t, err)

	pending, err := repo.GetPendingPurchases(ctx)
	require.NoError(t, err)

	ids := make(map[string]bool, len(pending))
	for _, p := range pending {
		assert.False(t, IsTerminal(p.Status))
		ids[p.OrderID] = true
	}
	assert.True(t, ids[active.OrderID])
	assert.False(t, ids[done.OrderID])
	assert.False(t, ids[cancelled.OrderID])
}

func TestGetUserPurchasesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := &Repo{DB: testPool(t)}

	first := testPurchase(9001, StatusNew)
	first.CreatedAt = "2026-01-01T10:00:00Z"
	second := testPurchase(9001, StatusNew)
	second.CreatedAt = "2026-01-02T10:00:00Z"

	_, err := repo.AddPurchase(ctx, first)
	require.NoError(t, err)
	_, err = repo.AddPurchase(ctx, second)
	require.NoError(t, err)

	got, err := repo.GetUserPurchases(ctx, 9001, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.OrderID, got[0].OrderID)
	assert.Equal(t, first.OrderID, got[1].OrderID)

	got, err = repo.GetUserPurchases(ctx, 9001, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := &LinkRepo{DB: testPool(t)}
	userID := int64(9100)
	externalID := "fp-" + uuid.NewString()

	got, err := repo.GetLink(ctx, externalID, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.UpsertLink(ctx, Link{
		ExternalID:  externalID,
		ProductID:   42,
		UserID:      userID,
		PriceAtLink: decimal.NewFromFloat(9.99),
	}))

	got, err = repo.GetLink(ctx, externalID, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ProductID)
	assert.True(t, got.PriceAtLink.Equal(decimal.NewFromFloat(9.99)))

	// Re-link replaces product and price snapshot.
	require.NoError(t, repo.UpsertLink(ctx, Link{
		ExternalID:  externalID,
		ProductID:   43,
		UserID:      userID,
		PriceAtLink: decimal.NewFromFloat(12.50),
	}))
	got, err = repo.GetLink(ctx, externalID, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(43), got.ProductID)
	assert.True(t, got.PriceAtLink.Equal(decimal.NewFromFloat(12.50)))

	links, err := repo.ListLinks(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, links)

	removed, err := repo.RemoveLink(ctx, externalID, userID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveLink(ctx, externalID, userID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLinkScopedToUser(t *testing.T) {
	ctx := context.Background()
	repo := &LinkRepo{DB: testPool(t)}
	externalID := "fp-" + uuid.NewString()

	require.NoError(t, repo.UpsertLink(ctx, Link{
		ExternalID:  externalID,
		ProductID:   42,
		UserID:      9200,
		PriceAtLink: decimal.NewFromFloat(9.99),
	}))

	got, err := repo.GetLink(ctx, externalID, 9201)
	require.NoError(t, err)
	assert.Nil(t, got)
}
