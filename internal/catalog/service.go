package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Service wraps the repository with input validation.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		return nil, ErrInvalidInput
	}
	p.ID = uuid.NewString()
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	if id == "" || patch.Empty() {
		return nil, ErrInvalidInput
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		patch.Name = &name
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, ErrInvalidInput
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
