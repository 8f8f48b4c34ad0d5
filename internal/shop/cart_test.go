package shop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempora_back_end/internal/shop"
)

func TestCartAddCreatesLineWithSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 3)
	cart := shop.NewCart()

	item, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 250.0, item.UnitPrice)
	assert.Equal(t, 3, item.StockLimit)
	assert.Equal(t, 250.0, cart.Total())
}

func TestCartAddIncrementsExistingLine(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 3)
	cart := shop.NewCart()

	_, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)
	item, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, 500.0, cart.Total())
}

func TestCartAddStopsAtStockLimit(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 2)
	cart := shop.NewCart()

	for i := 0; i < 2; i++ {
		_, err := f.carts.Add(context.Background(), cart, p.ID)
		require.NoError(t, err)
	}

	_, err := f.carts.Add(context.Background(), cart, p.ID)
	assert.ErrorIs(t, err, shop.ErrStockLimitReached)

	// Le panier reste inchangé.
	assert.Equal(t, 2, cart.Items()[0].Quantity)
}

func TestCartAddRefreshesStockLimit(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 1)
	cart := shop.NewCart()

	_, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)

	// Réapprovisionnement : le nouvel instantané autorise l'unité suivante.
	p.Stock = 5
	require.NoError(t, f.mem.UpdateProduct(context.Background(), p))

	item, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 5, item.StockLimit)
}

func TestCartAddUnknownOrInactiveProduct(t *testing.T) {
	f := newOrderFixture(t)
	cart := shop.NewCart()

	_, err := f.carts.Add(context.Background(), cart, "inconnu")
	assert.ErrorIs(t, err, shop.ErrProductUnavailable)

	p := f.seedProduct(t, "Retiré", 100, 5)
	p.IsActive = false
	require.NoError(t, f.mem.UpdateProduct(context.Background(), p))

	_, err = f.carts.Add(context.Background(), cart, p.ID)
	assert.ErrorIs(t, err, shop.ErrProductUnavailable)
	assert.True(t, cart.IsEmpty())
}

func TestCartRemoveIsSilentWhenAbsent(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 3)
	cart := shop.NewCart()

	_, err := f.carts.Add(context.Background(), cart, p.ID)
	require.NoError(t, err)

	f.carts.Remove(cart, "inconnu")
	assert.Equal(t, 1, cart.Len())

	f.carts.Remove(cart, p.ID)
	assert.True(t, cart.IsEmpty())
}
