package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ DB dbtx }

var _ OrderStore = (*OrderRepo)(nil)

func (r *OrderRepo) Create(ctx context.Context, userID string, total decimal.Decimal) (string, error) {
	orderID := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, user_id, total, status)
		VALUES ($1, $2, $3, $4)`,
		orderID, userID, total, string(StatusPending),
	)
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func (r *OrderRepo) AddLine(ctx context.Context, orderID, productID string, qty int, unitPrice decimal.Decimal) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_lines(order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`,
		orderID, productID, qty, unitPrice,
	)
	return err
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]OrderSummary, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, o.total, o.status, o.created_at, COUNT(l.id)
		FROM orders o
		LEFT JOIN order_lines l ON l.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OrderSummary, 0)
	for rows.Next() {
		var s OrderSummary
		var status string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Total, &status, &s.CreatedAt, &s.LineCount); err != nil {
			return nil, err
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `SELECT id, user_id, total, status, created_at FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Total, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func (r *OrderRepo) Lines(ctx context.Context, orderID string) ([]OrderLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT l.id, l.order_id, l.product_id, p.name, p.description, l.quantity, l.unit_price
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = $1
		ORDER BY l.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OrderLine, 0)
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Description, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		l.Subtotal = Subtotal(l.UnitPrice, l.Quantity)
		out = append(out, l)
	}
	return out, rows.Err()
}
