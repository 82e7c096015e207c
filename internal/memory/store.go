// Package memory is a process-local implementation of the catalog and order
// ledgers, used when no database is configured and by tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/shopspring/decimal"
)

type cartRow struct {
	qty int
}

type orderRow struct {
	orders.Order
	seq int64
}

type lineRow struct {
	id        int64
	productID string
	qty       int
	unitPrice decimal.Decimal
}

// Store keeps every ledger behind one RWMutex. WithinTx holds the write lock
// for the whole unit of work; ledger calls made with a tx-marked context skip
// locking.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq      int64
	lineSeq  int64
	products map[string]catalog.Product
	carts    map[string]map[string]cartRow // user -> product -> row
	orders   map[string]orderRow
	lines    map[string][]lineRow // order -> lines

	ledgers orders.Ledgers
}

var _ orders.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{
		now:      func() time.Time { return time.Now().UTC() },
		products: make(map[string]catalog.Product),
		carts:    make(map[string]map[string]cartRow),
		orders:   make(map[string]orderRow),
		lines:    make(map[string][]lineRow),
	}
	s.ledgers = orders.Ledgers{
		Cart:   &cartLedger{s},
		Stock:  &stockLedger{s},
		Orders: &orderLedger{s},
	}
	return s
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (s *Store) rlock(ctx context.Context) func() {
	if isTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock(ctx context.Context) func() {
	if isTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Ledgers() orders.Ledgers { return s.ledgers }

// Products exposes the catalog view of the same data.
func (s *Store) Products() *Products { return &Products{s} }

// WithinTx serializes units of work and restores the pre-call state when fn
// fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, l orders.Ledgers) error) error {
	if isTx(ctx) {
		return fn(ctx, s.ledgers)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, true), s.ledgers); err != nil {
		return err
	}
	committed = true
	return nil
}

type snapshot struct {
	seq, lineSeq int64
	products     map[string]catalog.Product
	carts        map[string]map[string]cartRow
	orders       map[string]orderRow
	lines        map[string][]lineRow
}

func (s *Store) snapshot() snapshot {
	carts := make(map[string]map[string]cartRow, len(s.carts))
	for u, rows := range s.carts {
		carts[u] = maps.Clone(rows)
	}
	lines := make(map[string][]lineRow, len(s.lines))
	for id, ls := range s.lines {
		lines[id] = append([]lineRow(nil), ls...)
	}
	return snapshot{
		seq:      s.seq,
		lineSeq:  s.lineSeq,
		products: maps.Clone(s.products),
		carts:    carts,
		orders:   maps.Clone(s.orders),
		lines:    lines,
	}
}

func (s *Store) restore(snap snapshot) {
	s.seq, s.lineSeq = snap.seq, snap.lineSeq
	s.products = snap.products
	s.carts = snap.carts
	s.orders = snap.orders
	s.lines = snap.lines
}
