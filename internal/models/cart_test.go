// internal/models/cart_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartItemLineTotal(t *testing.T) {
	item := CartItem{EffectivePrice: 25, Quantity: 2}
	assert.InDelta(t, 50.0, item.LineTotal(), 0.0001)

	// Engraved pieces carry a flat per-piece surcharge.
	item.EngravingText = "forever"
	item.Quantity = 3
	assert.InDelta(t, 25*3+EngravingSurchargePerPiece*3, item.LineTotal(), 0.0001)
}

func TestCartSubtotalExcludesCustomItems(t *testing.T) {
	items := []CartItem{
		{Category: CategoryRing, EffectivePrice: 40, Quantity: 1},
		{Category: CategoryCustom, EffectivePrice: 0, Quantity: 2, EngravingText: "ad astra"},
		{Category: CategoryNecklace, EffectivePrice: 60, Quantity: 2},
	}

	assert.InDelta(t, 160.0, CartSubtotal(items), 0.0001)
	assert.Equal(t, 5, CartTotalItems(items), "custom pieces still count toward the badge")
}

func TestSplitCustomItems(t *testing.T) {
	items := []CartItem{
		{Name: "stacking ring", Category: CategoryRing},
		{Name: "engraved pendant", Category: CategoryCustom},
		{Name: "hoop earrings", Category: CategoryEarring},
	}

	regular, custom := SplitCustomItems(items)
	assert.Len(t, regular, 2)
	assert.Len(t, custom, 1)
	assert.Equal(t, "engraved pendant", custom[0].Name)
	assert.True(t, custom[0].IsCustom())
	assert.False(t, regular[0].IsCustom())
}

func TestCheckoutTotalsFromSaleSnapshot(t *testing.T) {
	product := &Product{Price: 120}
	unit := &ProductUnit{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypePercentage, SaleValue: 20},
	}
	quote := ResolvePrice(product, unit)

	item := CartItem{EffectivePrice: quote.EffectivePrice, Quantity: 2, Category: CategoryRing}
	subtotal := CartSubtotal([]CartItem{item})
	assert.InDelta(t, 160.0, subtotal, 0.0001)

	order := Order{Subtotal: subtotal, Tax: 12.80}
	order.RecomputeTotal()
	assert.InDelta(t, 172.80, order.Total, 0.0001)
}

func TestSplitCustomItemsEmptyCart(t *testing.T) {
	regular, custom := SplitCustomItems(nil)
	assert.Empty(t, regular)
	assert.Empty(t, custom)
	assert.Equal(t, 0.0, CartSubtotal(nil))
}
