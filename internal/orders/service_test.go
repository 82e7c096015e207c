package orders_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/memory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	svc   *orders.Service
}

func newFixture(t *testing.T, products ...catalog.Product) *fixture {
	t.Helper()
	st := memory.NewStore()
	for _, p := range products {
		p := p
		require.NoError(t, st.Products().Create(context.Background(), &p))
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{store: st, svc: orders.NewService(st, st.Products(), log)}
}

func product(id, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t, product("A", "10.00", 5), product("B", "5.00", 5))
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 2))
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "B", 1))

	placed, err := f.svc.PlaceOrder(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, placed.OrderID)
	assert.True(t, decimal.RequireFromString("25.00").Equal(placed.Total), placed.Total.String())
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 4, f.stock(t, "B"))

	cart, err := f.svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	details, err := f.svc.OrderDetails(ctx, orders.Viewer{UserID: "u1"}, placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, details.Status)
	require.Len(t, details.Lines, 2)
	sum := decimal.Zero
	for _, l := range details.Lines {
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, sum.Equal(details.Total))
}

func TestPlaceOrder_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t, product("A", "10.00", 20))
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 10))
	require.NoError(t, f.store.WithinTx(ctx, func(ctx context.Context, l orders.Ledgers) error {
		ok, err := l.Stock.Reserve(ctx, "A", 17)
		require.True(t, ok)
		return err
	}))
	require.Equal(t, 3, f.stock(t, "A"))

	_, err := f.svc.PlaceOrder(ctx, "u1")
	require.ErrorIs(t, err, orders.ErrInsufficientStock)
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "A", ise.ProductID)

	assert.Equal(t, 3, f.stock(t, "A"))
	list, err := f.svc.MyOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	cart, err := f.svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestPlaceOrder_LastUnitGoesToExactlyOneBuyer(t *testing.T) {
	f := newFixture(t, product("C", "7.00", 1))
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "C", 1))
	require.NoError(t, f.svc.AddToCart(ctx, "u2", "C", 1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(ctx, user)
		}(i, user)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, orders.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, f.stock(t, "C"))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), "u1")
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
}

func TestPlaceOrder_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t, product("A", "10.00", 5))
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 1))
	placed, err := f.svc.PlaceOrder(ctx, "u1")
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("99.99")
	_, err = f.store.Products().Update(ctx, "A", catalog.Patch{Price: &newPrice})
	require.NoError(t, err)

	details, err := f.svc.OrderDetails(ctx, orders.Viewer{UserID: "u1"}, placed.OrderID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.00").Equal(details.Lines[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("10.00").Equal(details.Total))
}

// failingStore makes AddLine fail for one product, after the header and
// earlier lines were already written in the same unit of work.
type failingStore struct {
	*memory.Store
	failOn string
}

type failingOrders struct {
	orders.OrderStore
	failOn string
}

func (f failingOrders) AddLine(ctx context.Context, orderID, productID string, qty int, price decimal.Decimal) error {
	if productID == f.failOn {
		return errors.New("connection reset")
	}
	return f.OrderStore.AddLine(ctx, orderID, productID, qty, price)
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(context.Context, orders.Ledgers) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, l orders.Ledgers) error {
		l.Orders = failingOrders{OrderStore: l.Orders, failOn: s.failOn}
		return fn(ctx, l)
	})
}

func TestPlaceOrder_StorageFailureRollsBackEverything(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	for _, p := range []catalog.Product{product("A", "1.00", 5), product("B", "2.00", 5)} {
		p := p
		require.NoError(t, st.Products().Create(ctx, &p))
	}
	svc := orders.NewService(&failingStore{Store: st, failOn: "B"}, st.Products(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, svc.AddToCart(ctx, "u1", "A", 2))
	require.NoError(t, svc.AddToCart(ctx, "u1", "B", 1))

	_, err := svc.PlaceOrder(ctx, "u1")
	require.ErrorIs(t, err, orders.ErrStorage)
	assert.NotContains(t, err.Error(), "connection reset")

	a, _ := st.Products().Get(ctx, "A")
	assert.Equal(t, 5, a.Stock)
	list, err := svc.MyOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	cart, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count)
}

func TestOrderDetails_Ownership(t *testing.T) {
	f := newFixture(t, product("A", "3.00", 5))
	ctx := context.Background()
	require.NoError(t, f.svc.AddToCart(ctx, "owner", "A", 1))
	placed, err := f.svc.PlaceOrder(ctx, "owner")
	require.NoError(t, err)

	got, err := f.svc.OrderDetails(ctx, orders.Viewer{UserID: "intruder"}, placed.OrderID)
	assert.ErrorIs(t, err, orders.ErrForbidden)
	assert.Nil(t, got)

	got, err = f.svc.OrderDetails(ctx, orders.Viewer{UserID: "admin", Admin: true}, placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.UserID)

	_, err = f.svc.OrderDetails(ctx, orders.Viewer{UserID: "owner"}, "missing")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestMyOrders_NewestFirstWithLineCount(t *testing.T) {
	f := newFixture(t, product("A", "1.00", 10), product("B", "1.00", 10))
	ctx := context.Background()

	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 1))
	first, err := f.svc.PlaceOrder(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 1))
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "B", 1))
	second, err := f.svc.PlaceOrder(ctx, "u1")
	require.NoError(t, err)

	list, err := f.svc.MyOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.OrderID, list[0].ID)
	assert.Equal(t, 2, list[0].LineCount)
	assert.Equal(t, first.OrderID, list[1].ID)
	assert.Equal(t, 1, list[1].LineCount)
}

func TestCartOperations_Validation(t *testing.T) {
	f := newFixture(t, product("A", "4.00", 2))
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.AddToCart(ctx, "u1", "A", 0), orders.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.AddToCart(ctx, "u1", "A", 3), orders.ErrInsufficientStock)
	assert.ErrorIs(t, f.svc.AddToCart(ctx, "u1", "nope", 1), orders.ErrNotFound)
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 1))

	assert.ErrorIs(t, f.svc.UpdateCartItem(ctx, "u1", "A", -1), orders.ErrInvalidQuantity)
	require.NoError(t, f.svc.UpdateCartItem(ctx, "u1", "A", 2))
	cart, err := f.svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8.00").Equal(cart.Total))

	assert.ErrorIs(t, f.svc.RemoveCartItem(ctx, "u1", "B"), orders.ErrNotFound)
	require.NoError(t, f.svc.RemoveCartItem(ctx, "u1", "A"))
	require.NoError(t, f.svc.ClearCart(ctx, "u1"))
}

func TestRestock(t *testing.T) {
	f := newFixture(t, product("A", "4.00", 0))
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Restock(ctx, "A", 0), orders.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.Restock(ctx, "missing", 1), orders.ErrNotFound)
	require.NoError(t, f.svc.Restock(ctx, "A", 4))
	assert.Equal(t, 4, f.stock(t, "A"))
}

// shortStockStore lets validation pass but refuses the reservation of one
// product, as when another buyer took the stock in between.
type shortStockStore struct {
	*memory.Store
	refuse string
}

type refusingStock struct {
	orders.StockLedger
	refuse string
}

func (r refusingStock) Reserve(ctx context.Context, productID string, qty int) (bool, error) {
	if productID == r.refuse {
		return false, nil
	}
	return r.StockLedger.Reserve(ctx, productID, qty)
}

func (s *shortStockStore) WithinTx(ctx context.Context, fn func(context.Context, orders.Ledgers) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, l orders.Ledgers) error {
		l.Stock = refusingStock{StockLedger: l.Stock, refuse: s.refuse}
		return fn(ctx, l)
	})
}

func TestPlaceOrder_ReservationRefusedAfterValidation(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	for _, p := range []catalog.Product{product("A", "10.00", 5), product("B", "5.00", 5)} {
		p := p
		require.NoError(t, st.Products().Create(ctx, &p))
	}
	svc := orders.NewService(&shortStockStore{Store: st, refuse: "B"}, st.Products(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, svc.AddToCart(ctx, "u1", "A", 2))
	require.NoError(t, svc.AddToCart(ctx, "u1", "B", 1))

	_, err := svc.PlaceOrder(ctx, "u1")
	require.ErrorIs(t, err, orders.ErrInsufficientStock)
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "B", ise.ProductID)

	a, err := st.Products().Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, a.Stock)
	list, err := svc.MyOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	cart, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count)
	assert.True(t, decimal.RequireFromString("25.00").Equal(cart.Total))
}

func TestAddToCart_ChecksRunningQuantityAgainstStock(t *testing.T) {
	f := newFixture(t, product("A", "1.00", 3))
	ctx := context.Background()

	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 2))
	err := f.svc.AddToCart(ctx, "u1", "A", 2)
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)
	require.NoError(t, f.svc.AddToCart(ctx, "u1", "A", 1))

	cart, err := f.svc.Cart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// another user's cart does not count
	require.NoError(t, f.svc.AddToCart(ctx, "u2", "A", 3))
}
