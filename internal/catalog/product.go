package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidInput = errors.New("invalid product input")
	ErrInUse        = errors.New("product is referenced by carts or orders")
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Patch lists only the fields a caller supplied. Stock is deliberately absent:
// it moves through the stock ledger (restock / reservation) only.
type Patch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil
}

// Apply writes the supplied fields onto pr.
func (p Patch) Apply(pr *Product) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
}

type Filter struct {
	NameContains  string
	AvailableOnly bool
}

func (f Filter) Match(p Product) bool {
	if f.AvailableOnly && p.Stock <= 0 {
		return false
	}
	if f.NameContains == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains))
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, patch Patch) (*Product, error)
	Delete(ctx context.Context, id string) error
}
