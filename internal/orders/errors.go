package orders

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrStorage           = errors.New("storage failure")
)

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Name      string
}

func (e *InsufficientStockError) Error() string {
	if e.Name != "" {
		return "insufficient stock for " + e.Name
	}
	return "insufficient stock for " + e.ProductID
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// IsDomain reports whether err is one of the caller-facing kinds above
// (everything else is surfaced as ErrStorage).
func IsDomain(err error) bool {
	for _, k := range []error{ErrEmptyCart, ErrInsufficientStock, ErrNotFound, ErrForbidden, ErrInvalidQuantity, ErrStorage} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
