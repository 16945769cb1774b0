package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamekey-bot/internal/market"
)

func entry(name string, qty int) Entry {
	return Entry{
		Product:  market.Product{ID: 1, Name: name, Price: decimal.NewFromFloat(9.99), Qty: 10},
		Quantity: qty,
	}
}

func TestMemoryStageAndTake(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Stage(ctx, 7, entry("Game X", 2)))

	got, ok, err := s.Take(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Game X", got.Product.Name)
	assert.Equal(t, 2, got.Quantity)

	// Take cleared the entry: a second take finds nothing.
	_, ok, err = s.Take(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTakeWithoutStage(t *testing.T) {
	_, ok, err := NewMemory().Take(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStageOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Stage(ctx, 7, entry("Game X", 1)))
	require.NoError(t, s.Stage(ctx, 7, entry("Game Y", 3)))

	got, ok, err := s.Take(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Game Y", got.Product.Name)
	assert.Equal(t, 3, got.Quantity)
}

func TestMemoryStagePerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Stage(ctx, 1, entry("Game X", 1)))
	require.NoError(t, s.Stage(ctx, 2, entry("Game Y", 1)))

	got, ok, _ := s.Take(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Game X", got.Product.Name)

	got, ok, _ = s.Take(ctx, 2)
	require.True(t, ok)
	assert.Equal(t, "Game Y", got.Product.Name)
}

// Concurrent confirms must resolve to exactly one winner.
func TestMemoryTakeAtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Stage(ctx, 7, entry("Game X", 1)))

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := s.Take(ctx, 7); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), wins)
}
