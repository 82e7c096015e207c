package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// Orders are created pending; later transitions belong to fulfilment, not here.
const StatusPending Status = "pending"

// CartLine is a cart row joined with the product's current name, price and stock.
type CartLine struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type OrderSummary struct {
	Order
	LineCount int `json:"line_count"`
}

// OrderLine carries the unit price captured at placement, not the live price.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderDetails struct {
	Order
	Lines []OrderLine `json:"lines"`
}

// Placement is the result of a committed order placement.
type Placement struct {
	OrderID string
	UserID  string
	Total   decimal.Decimal
	Lines   []OrderLine
}

func Subtotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
