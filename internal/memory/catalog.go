package memory

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

// Products implements catalog.Repository on top of Store.
type Products struct{ s *Store }

var _ catalog.Repository = (*Products)(nil)

func (p *Products) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	defer p.s.rlock(ctx)()
	out := make([]catalog.Product, 0)
	for _, pr := range p.s.products {
		if f.Match(pr) {
			out = append(out, pr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (p *Products) Get(ctx context.Context, id string) (*catalog.Product, error) {
	defer p.s.rlock(ctx)()
	pr, ok := p.s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &pr, nil
}

func (p *Products) Create(ctx context.Context, pr *catalog.Product) error {
	defer p.s.wlock(ctx)()
	now := p.s.now()
	pr.CreatedAt, pr.UpdatedAt = now, now
	p.s.products[pr.ID] = *pr
	return nil
}

func (p *Products) Update(ctx context.Context, id string, patch catalog.Patch) (*catalog.Product, error) {
	defer p.s.wlock(ctx)()
	pr, ok := p.s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	patch.Apply(&pr)
	pr.UpdatedAt = p.s.now()
	p.s.products[id] = pr
	return &pr, nil
}

// Delete refuses products still referenced by a cart or an order line.
func (p *Products) Delete(ctx context.Context, id string) error {
	defer p.s.wlock(ctx)()
	if _, ok := p.s.products[id]; !ok {
		return catalog.ErrNotFound
	}
	for _, rows := range p.s.carts {
		if _, ok := rows[id]; ok {
			return catalog.ErrInUse
		}
	}
	for _, ls := range p.s.lines {
		for _, l := range ls {
			if l.productID == id {
				return catalog.ErrInUse
			}
		}
	}
	delete(p.s.products, id)
	return nil
}
