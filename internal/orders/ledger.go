package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

// CartLedger owns (user, product, quantity) rows.
type CartLedger interface {
	// Lines returns the user's cart joined with current product data.
	Lines(ctx context.Context, userID string) ([]CartLine, error)
	// Add increments an existing row or inserts a new one.
	Add(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	// Clear is idempotent.
	Clear(ctx context.Context, userID string) error
	// Total is zero for an empty cart.
	Total(ctx context.Context, userID string) (decimal.Decimal, error)
}

// StockLedger owns per-product available quantity.
type StockLedger interface {
	CheckAvailable(ctx context.Context, productID string, qty int) (bool, error)
	// Reserve decrements stock only if stock >= qty, as one conditional write.
	// It returns false without mutating anything otherwise.
	Reserve(ctx context.Context, productID string, qty int) (bool, error)
	Restock(ctx context.Context, productID string, qty int) error
}

// OrderStore owns order headers and their append-only lines.
type OrderStore interface {
	Create(ctx context.Context, userID string, total decimal.Decimal) (string, error)
	AddLine(ctx context.Context, orderID, productID string, qty int, unitPrice decimal.Decimal) error
	// ListByUser is ordered newest first.
	ListByUser(ctx context.Context, userID string) ([]OrderSummary, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	Lines(ctx context.Context, orderID string) ([]OrderLine, error)
}

type Ledgers struct {
	Cart   CartLedger
	Stock  StockLedger
	Orders OrderStore
}

// Store hands out ledgers, either standalone or bound to one unit of work.
type Store interface {
	Ledgers() Ledgers
	// WithinTx runs fn against ledgers sharing one transaction. The transaction
	// commits when fn returns nil and rolls back on any error or panic.
	WithinTx(ctx context.Context, fn func(ctx context.Context, l Ledgers) error) error
}
