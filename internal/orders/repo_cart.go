package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type CartRepo struct {
	DB dbtx
	// LockRows makes Lines take row locks on the user's cart so two placements
	// of the same cart serialize.
	LockRows bool
}

var _ CartLedger = (*CartRepo)(nil)

// Lines are ordered by product id so concurrent placements lock products in
// the same order.
func (r *CartRepo) Lines(ctx context.Context, userID string) ([]CartLine, error) {
	q := `
		SELECT c.product_id, p.name, p.description, p.price, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.product_id`
	if r.LockRows {
		q += ` FOR UPDATE OF c`
	}
	rows, err := r.DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CartLine, 0)
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Description, &l.Price, &l.Stock, &l.Quantity); err != nil {
			return nil, err
		}
		l.Subtotal = Subtotal(l.Price, l.Quantity)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CartRepo) Add(ctx context.Context, userID, productID string, qty int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, qty,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return err
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE cart_items SET quantity=$3 WHERE user_id=$1 AND product_id=$2`,
		userID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	}
	return nil
}

func (r *CartRepo) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

func (r *CartRepo) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(c.quantity * p.price), 0)
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1`, userID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
