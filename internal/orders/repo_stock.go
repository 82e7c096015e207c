package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type StockRepo struct{ DB dbtx }

var _ StockLedger = (*StockRepo)(nil)

func (r *StockRepo) CheckAvailable(ctx context.Context, productID string, qty int) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT stock >= $2 FROM products WHERE id=$1`, productID, qty).Scan(&ok)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return ok, err
}

// Reserve: kondisi stok dicek di dalam UPDATE itu sendiri (bukan SELECT lalu UPDATE),
// jadi dua transaksi yang berebut unit terakhir tidak bisa sama-sama lolos.
func (r *StockRepo) Reserve(ctx context.Context, productID string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *StockRepo) Restock(ctx context.Context, productID string, qty int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}
