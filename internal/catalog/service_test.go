package catalog_test

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *catalog.Service {
	return catalog.NewService(memory.NewStore().Products())
}

func TestCreate_ValidatesAndAssignsID(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	_, err = svc.Create(ctx, catalog.Product{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	_, err = svc.Create(ctx, catalog.Product{Name: "x", Price: decimal.NewFromInt(1), Stock: -1})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	p, err := svc.Create(ctx, catalog.Product{Name: "  Desk  ", Price: decimal.RequireFromString("120.50"), Stock: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Desk", p.Name)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestUpdate_AppliesOnlyPatchedFields(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, catalog.Product{Name: "Chair", Description: "oak", Price: decimal.NewFromInt(40), Stock: 3})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, catalog.Patch{})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	blank := "   "
	_, err = svc.Update(ctx, p.ID, catalog.Patch{Name: &blank})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	neg := decimal.NewFromInt(-5)
	_, err = svc.Update(ctx, p.ID, catalog.Patch{Price: &neg})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	name := " Armchair "
	got, err := svc.Update(ctx, p.ID, catalog.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Armchair", got.Name)
	assert.Equal(t, "oak", got.Description)
	assert.True(t, decimal.NewFromInt(40).Equal(got.Price))
	assert.Equal(t, 3, got.Stock)

	_, err = svc.Update(ctx, "missing", catalog.Patch{Name: &name})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetAndDelete_EmptyID(t *testing.T) {
	svc := newService()
	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), ""), catalog.ErrNotFound)
}

func TestFilterMatch(t *testing.T) {
	p := catalog.Product{Name: "USB Cable", Stock: 0}
	assert.True(t, catalog.Filter{}.Match(p))
	assert.True(t, catalog.Filter{NameContains: "cable"}.Match(p))
	assert.False(t, catalog.Filter{AvailableOnly: true}.Match(p))
	assert.False(t, catalog.Filter{NameContains: "hdmi"}.Match(p))
}
