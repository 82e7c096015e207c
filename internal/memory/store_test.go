package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seed(t *testing.T, s *Store, id string, price string, stock int) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &catalog.Product{
		ID: id, Name: "product " + id, Price: decimal.RequireFromString(price), Stock: stock,
	}))
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	p, err := s.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "10.00", 5)
	ctx := context.Background()
	require.NoError(t, s.Ledgers().Cart.Add(ctx, "u1", "p1", 2))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, l orders.Ledgers) error {
		ok, err := l.Stock.Reserve(ctx, "p1", 2)
		require.NoError(t, err)
		require.True(t, ok)
		_, err = l.Orders.Create(ctx, "u1", decimal.NewFromInt(20))
		require.NoError(t, err)
		require.NoError(t, l.Cart.Clear(ctx, "u1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 5, stockOf(t, s, "p1"))
	lines, err := s.Ledgers().Cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	list, err := s.Ledgers().Orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "10.00", 5)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, l orders.Ledgers) error {
			_, _ = l.Stock.Reserve(ctx, "p1", 5)
			panic("kaboom")
		})
	})
	assert.Equal(t, 5, stockOf(t, s, "p1"))

	// the lock was released
	require.NoError(t, s.WithinTx(ctx, func(context.Context, orders.Ledgers) error { return nil }))
}

func TestReserve_IsConditional(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "1.00", 3)
	ctx := context.Background()

	ok, err := s.Ledgers().Stock.Reserve(ctx, "p1", 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, stockOf(t, s, "p1"))

	ok, err = s.Ledgers().Stock.Reserve(ctx, "p1", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, stockOf(t, s, "p1"))

	ok, err = s.Ledgers().Stock.Reserve(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCart_AddIncrementsAndTotals(t *testing.T) {
	s := NewStore()
	seed(t, s, "b", "2.50", 10)
	seed(t, s, "a", "10.00", 10)
	ctx := context.Background()
	cart := s.Ledgers().Cart

	total, err := cart.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	require.NoError(t, cart.Add(ctx, "u1", "b", 1))
	require.NoError(t, cart.Add(ctx, "u1", "b", 1))
	require.NoError(t, cart.Add(ctx, "u1", "a", 2))
	assert.ErrorIs(t, cart.Add(ctx, "u1", "nope", 1), orders.ErrNotFound)

	lines, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, 2, lines[1].Quantity)

	total, err = cart.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(total), total.String())

	assert.ErrorIs(t, cart.SetQuantity(ctx, "u1", "zzz", 1), orders.ErrNotFound)
	assert.ErrorIs(t, cart.Remove(ctx, "u2", "a"), orders.ErrNotFound)
	require.NoError(t, cart.Clear(ctx, "u1"))
	require.NoError(t, cart.Clear(ctx, "u1"))
}

func TestProducts_DeleteRefusesReferenced(t *testing.T) {
	s := NewStore()
	seed(t, s, "p1", "1.00", 3)
	seed(t, s, "p2", "1.00", 3)
	ctx := context.Background()
	require.NoError(t, s.Ledgers().Cart.Add(ctx, "u1", "p1", 1))

	assert.ErrorIs(t, s.Products().Delete(ctx, "p1"), catalog.ErrInUse)
	assert.NoError(t, s.Products().Delete(ctx, "p2"))
	assert.ErrorIs(t, s.Products().Delete(ctx, "p2"), catalog.ErrNotFound)
}

func TestProducts_ListFiltersAndSorts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, p := range []catalog.Product{
		{ID: "1", Name: "Mouse", Price: decimal.NewFromInt(5), Stock: 0},
		{ID: "2", Name: "Keyboard", Price: decimal.NewFromInt(30), Stock: 2},
		{ID: "3", Name: "Mousepad", Price: decimal.NewFromInt(3), Stock: 9},
	} {
		p := p
		require.NoError(t, s.Products().Create(ctx, &p))
	}

	all, err := s.Products().List(ctx, catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", all[0].Name)

	got, err := s.Products().List(ctx, catalog.Filter{NameContains: "mouse", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mousepad", got[0].Name)
}
