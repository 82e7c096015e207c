package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/shopspring/decimal"
)

// ProductReader is the slice of the catalog the cart needs at add time.
type ProductReader interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// Viewer is the authenticated caller of a read path.
type Viewer struct {
	UserID string
	Admin  bool
}

type placementState string

const (
	stateStarted   placementState = "started"
	stateValidated placementState = "validated"
	stateCommitted placementState = "committed"
	stateAborted   placementState = "aborted"
)

// Service is the order placement coordinator plus the cart and order read paths.
type Service struct {
	store    Store
	products ProductReader
	log      *slog.Logger
}

func NewService(store Store, products ProductReader, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, products: products, log: log.With("component", "orders")}
}

// PlaceOrder turns the user's cart into a pending order inside one transaction:
// order header, one line per cart entry, stock reservations and the cart clear
// all commit together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*Placement, error) {
	state := stateStarted
	var placed *Placement

	err := s.store.WithinTx(ctx, func(ctx context.Context, l Ledgers) error {
		lines, err := l.Cart.Lines(ctx, userID)
		if err != nil {
			return fmt.Errorf("read cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		// Price snapshot: total and unit prices come from this single read.
		total := decimal.Zero
		for _, ln := range lines {
			if ln.Quantity < 1 {
				return fmt.Errorf("cart line %s: %w", ln.ProductID, ErrInvalidQuantity)
			}
			ok, err := l.Stock.CheckAvailable(ctx, ln.ProductID, ln.Quantity)
			if err != nil {
				return fmt.Errorf("check stock %s: %w", ln.ProductID, err)
			}
			if !ok {
				return &InsufficientStockError{ProductID: ln.ProductID, Name: ln.Name}
			}
			total = total.Add(Subtotal(ln.Price, ln.Quantity))
		}
		state = stateValidated

		orderID, err := l.Orders.Create(ctx, userID, total)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		out := make([]OrderLine, 0, len(lines))
		for _, ln := range lines {
			if err := l.Orders.AddLine(ctx, orderID, ln.ProductID, ln.Quantity, ln.Price); err != nil {
				return fmt.Errorf("add line %s: %w", ln.ProductID, err)
			}
			ok, err := l.Stock.Reserve(ctx, ln.ProductID, ln.Quantity)
			if err != nil {
				return fmt.Errorf("reserve %s: %w", ln.ProductID, err)
			}
			if !ok {
				// stock moved between validation and reservation
				return &InsufficientStockError{ProductID: ln.ProductID, Name: ln.Name}
			}
			out = append(out, OrderLine{
				OrderID:     orderID,
				ProductID:   ln.ProductID,
				Name:        ln.Name,
				Description: ln.Description,
				Quantity:    ln.Quantity,
				UnitPrice:   ln.Price,
				Subtotal:    Subtotal(ln.Price, ln.Quantity),
			})
		}

		if err := l.Cart.Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		placed = &Placement{OrderID: orderID, UserID: userID, Total: total, Lines: out}
		return nil
	})
	if err != nil {
		from := state
		state = stateAborted
		return nil, s.abort(ctx, "place order", err, "user_id", userID, "from_state", string(from), "state", string(state))
	}
	state = stateCommitted

	s.log.InfoContext(ctx, "order placed",
		"state", string(state),
		"order_id", placed.OrderID,
		"user_id", userID,
		"total", placed.Total.StringFixed(2),
		"lines", len(placed.Lines),
	)
	return placed, nil
}

// abort logs the failure and returns it as a caller-facing kind; storage
// details are logged only.
func (s *Service) abort(ctx context.Context, op string, err error, attrs ...any) error {
	if IsDomain(err) {
		s.log.WarnContext(ctx, op+" rejected", append(attrs, "reason", err.Error())...)
		return err
	}
	s.log.ErrorContext(ctx, op+" failed", append(attrs, "err", err)...)
	return fmt.Errorf("%s: %w", op, ErrStorage)
}

func (s *Service) MyOrders(ctx context.Context, userID string) ([]OrderSummary, error) {
	list, err := s.store.Ledgers().Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.abort(ctx, "list orders", err, "user_id", userID)
	}
	return list, nil
}

// OrderDetails returns the header and lines of an order the viewer owns.
// Admins may read any order.
func (s *Service) OrderDetails(ctx context.Context, v Viewer, orderID string) (*OrderDetails, error) {
	l := s.store.Ledgers()
	o, err := l.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, s.abort(ctx, "order details", err, "order_id", orderID)
	}
	if o.UserID != v.UserID && !v.Admin {
		return nil, s.abort(ctx, "order details", ErrForbidden, "order_id", orderID, "user_id", v.UserID)
	}
	lines, err := l.Orders.Lines(ctx, orderID)
	if err != nil {
		return nil, s.abort(ctx, "order details", err, "order_id", orderID)
	}
	return &OrderDetails{Order: *o, Lines: lines}, nil
}

func (s *Service) Cart(ctx context.Context, userID string) (*Cart, error) {
	l := s.store.Ledgers()
	items, err := l.Cart.Lines(ctx, userID)
	if err != nil {
		return nil, s.abort(ctx, "get cart", err, "user_id", userID)
	}
	total, err := l.Cart.Total(ctx, userID)
	if err != nil {
		return nil, s.abort(ctx, "get cart", err, "user_id", userID)
	}
	return &Cart{Items: items, Total: total, Count: len(items)}, nil
}

// AddToCart checks that the product exists and that the resulting cart
// quantity is currently in stock; the binding check happens again at placement.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	inCart, err := s.cartQuantity(ctx, userID, productID)
	if err != nil {
		return s.abort(ctx, "add to cart", err, "user_id", userID, "product_id", productID)
	}
	if err := s.checkProduct(ctx, productID, inCart+qty); err != nil {
		return s.abort(ctx, "add to cart", err, "user_id", userID, "product_id", productID)
	}
	if err := s.store.Ledgers().Cart.Add(ctx, userID, productID, qty); err != nil {
		return s.abort(ctx, "add to cart", err, "user_id", userID, "product_id", productID)
	}
	return nil
}

func (s *Service) UpdateCartItem(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if err := s.checkProduct(ctx, productID, qty); err != nil {
		return s.abort(ctx, "update cart", err, "user_id", userID, "product_id", productID)
	}
	if err := s.store.Ledgers().Cart.SetQuantity(ctx, userID, productID, qty); err != nil {
		return s.abort(ctx, "update cart", err, "user_id", userID, "product_id", productID)
	}
	return nil
}

func (s *Service) RemoveCartItem(ctx context.Context, userID, productID string) error {
	if err := s.store.Ledgers().Cart.Remove(ctx, userID, productID); err != nil {
		return s.abort(ctx, "remove cart item", err, "user_id", userID, "product_id", productID)
	}
	return nil
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.Ledgers().Cart.Clear(ctx, userID); err != nil {
		return s.abort(ctx, "clear cart", err, "user_id", userID)
	}
	return nil
}

// Restock is the administrative stock increment.
func (s *Service) Restock(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if err := s.store.Ledgers().Stock.Restock(ctx, productID, qty); err != nil {
		return s.abort(ctx, "restock", err, "product_id", productID, "qty", qty)
	}
	s.log.InfoContext(ctx, "restocked", "product_id", productID, "qty", qty)
	return nil
}

func (s *Service) checkProduct(ctx context.Context, productID string, qty int) error {
	p, err := s.products.Get(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if p.Stock < qty {
		return &InsufficientStockError{ProductID: p.ID, Name: p.Name}
	}
	return nil
}

func (s *Service) cartQuantity(ctx context.Context, userID, productID string) (int, error) {
	lines, err := s.store.Ledgers().Cart.Lines(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		if l.ProductID == productID {
			return l.Quantity, nil
		}
	}
	return 0, nil
}
