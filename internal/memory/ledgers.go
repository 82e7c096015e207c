package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartLedger struct{ s *Store }

func (c *cartLedger) Lines(ctx context.Context, userID string) ([]orders.CartLine, error) {
	defer c.s.rlock(ctx)()
	return c.s.cartLines(userID), nil
}

func (s *Store) cartLines(userID string) []orders.CartLine {
	out := make([]orders.CartLine, 0, len(s.carts[userID]))
	for pid, row := range s.carts[userID] {
		p := s.products[pid]
		out = append(out, orders.CartLine{
			ProductID:   pid,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Quantity:    row.qty,
			Subtotal:    orders.Subtotal(p.Price, row.qty),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (c *cartLedger) Add(ctx context.Context, userID, productID string, qty int) error {
	defer c.s.wlock(ctx)()
	if _, ok := c.s.products[productID]; !ok {
		return fmt.Errorf("product %s: %w", productID, orders.ErrNotFound)
	}
	rows := c.s.carts[userID]
	if rows == nil {
		rows = make(map[string]cartRow)
		c.s.carts[userID] = rows
	}
	row := rows[productID]
	row.qty += qty
	rows[productID] = row
	return nil
}

func (c *cartLedger) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	defer c.s.wlock(ctx)()
	row, ok := c.s.carts[userID][productID]
	if !ok {
		return fmt.Errorf("cart item %s: %w", productID, orders.ErrNotFound)
	}
	row.qty = qty
	c.s.carts[userID][productID] = row
	return nil
}

func (c *cartLedger) Remove(ctx context.Context, userID, productID string) error {
	defer c.s.wlock(ctx)()
	if _, ok := c.s.carts[userID][productID]; !ok {
		return fmt.Errorf("cart item %s: %w", productID, orders.ErrNotFound)
	}
	delete(c.s.carts[userID], productID)
	if len(c.s.carts[userID]) == 0 {
		delete(c.s.carts, userID)
	}
	return nil
}

func (c *cartLedger) Clear(ctx context.Context, userID string) error {
	defer c.s.wlock(ctx)()
	delete(c.s.carts, userID)
	return nil
}

func (c *cartLedger) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	defer c.s.rlock(ctx)()
	total := decimal.Zero
	for _, l := range c.s.cartLines(userID) {
		total = total.Add(l.Subtotal)
	}
	return total, nil
}

type stockLedger struct{ s *Store }

func (st *stockLedger) CheckAvailable(ctx context.Context, productID string, qty int) (bool, error) {
	defer st.s.rlock(ctx)()
	p, ok := st.s.products[productID]
	return ok && p.Stock >= qty, nil
}

func (st *stockLedger) Reserve(ctx context.Context, productID string, qty int) (bool, error) {
	defer st.s.wlock(ctx)()
	p, ok := st.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = st.s.now()
	st.s.products[productID] = p
	return true, nil
}

func (st *stockLedger) Restock(ctx context.Context, productID string, qty int) error {
	defer st.s.wlock(ctx)()
	p, ok := st.s.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, orders.ErrNotFound)
	}
	p.Stock += qty
	p.UpdatedAt = st.s.now()
	st.s.products[productID] = p
	return nil
}

type orderLedger struct{ s *Store }

func (o *orderLedger) Create(ctx context.Context, userID string, total decimal.Decimal) (string, error) {
	defer o.s.wlock(ctx)()
	o.s.seq++
	id := uuid.NewString()
	o.s.orders[id] = orderRow{
		Order: orders.Order{
			ID:        id,
			UserID:    userID,
			Total:     total,
			Status:    orders.StatusPending,
			CreatedAt: o.s.now(),
		},
		seq: o.s.seq,
	}
	return id, nil
}

func (o *orderLedger) AddLine(ctx context.Context, orderID, productID string, qty int, unitPrice decimal.Decimal) error {
	defer o.s.wlock(ctx)()
	if _, ok := o.s.orders[orderID]; !ok {
		return fmt.Errorf("order %s: %w", orderID, orders.ErrNotFound)
	}
	if _, ok := o.s.products[productID]; !ok {
		return fmt.Errorf("product %s: %w", productID, orders.ErrNotFound)
	}
	o.s.lineSeq++
	o.s.lines[orderID] = append(o.s.lines[orderID], lineRow{
		id:        o.s.lineSeq,
		productID: productID,
		qty:       qty,
		unitPrice: unitPrice,
	})
	return nil
}

func (o *orderLedger) ListByUser(ctx context.Context, userID string) ([]orders.OrderSummary, error) {
	defer o.s.rlock(ctx)()
	rows := make([]orderRow, 0)
	for _, r := range o.s.orders {
		if r.UserID == userID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]orders.OrderSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, orders.OrderSummary{Order: r.Order, LineCount: len(o.s.lines[r.ID])})
	}
	return out, nil
}

func (o *orderLedger) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	defer o.s.rlock(ctx)()
	r, ok := o.s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, orders.ErrNotFound)
	}
	ord := r.Order
	return &ord, nil
}

func (o *orderLedger) Lines(ctx context.Context, orderID string) ([]orders.OrderLine, error) {
	defer o.s.rlock(ctx)()
	out := make([]orders.OrderLine, 0, len(o.s.lines[orderID]))
	for _, l := range o.s.lines[orderID] {
		p := o.s.products[l.productID]
		out = append(out, orders.OrderLine{
			ID:          l.id,
			OrderID:     orderID,
			ProductID:   l.productID,
			Name:        p.Name,
			Description: p.Description,
			Quantity:    l.qty,
			UnitPrice:   l.unitPrice,
			Subtotal:    orders.Subtotal(l.unitPrice, l.qty),
		})
	}
	return out, nil
}
