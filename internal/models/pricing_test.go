// internal/models/pricing_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePriceNoSale(t *testing.T) {
	product := &Product{Price: 100}

	quote := ResolvePrice(product, nil)
	assert.Equal(t, 100.0, quote.EffectivePrice)
	assert.Equal(t, 100.0, quote.BasePrice)
	assert.False(t, quote.IsOnSale)
	assert.Equal(t, SaleSourceNone, quote.SaleSource)
	assert.False(t, quote.HasRange)
}

func TestResolvePricePercentageSale(t *testing.T) {
	product := &Product{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypePercentage, SaleValue: 20},
	}

	quote := ResolvePrice(product, nil)
	assert.InDelta(t, 80.0, quote.EffectivePrice, 0.0001)
	assert.Equal(t, 100.0, quote.BasePrice)
	assert.True(t, quote.IsOnSale)
	assert.Equal(t, SaleSourceProduct, quote.SaleSource)
}

func TestResolvePriceAmountSaleFlooredAtZero(t *testing.T) {
	product := &Product{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypeAmount, SaleValue: 15},
	}

	quote := ResolvePrice(product, nil)
	assert.InDelta(t, 85.0, quote.EffectivePrice, 0.0001)

	// A discount bigger than the price never goes negative.
	product.Sale.SaleValue = 150
	quote = ResolvePrice(product, nil)
	assert.Equal(t, 0.0, quote.EffectivePrice)
}

func TestResolvePriceSaleFlagOffIsIgnored(t *testing.T) {
	product := &Product{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: false, SaleType: SaleTypePercentage, SaleValue: 50},
	}

	quote := ResolvePrice(product, nil)
	assert.Equal(t, 100.0, quote.EffectivePrice)
	assert.False(t, quote.IsOnSale)
}

func TestResolvePriceUnitSaleBeatsProductSale(t *testing.T) {
	product := &Product{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypePercentage, SaleValue: 50},
	}
	unit := &ProductUnit{
		Price: 60,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypeAmount, SaleValue: 10},
	}

	quote := ResolvePrice(product, unit)
	assert.InDelta(t, 50.0, quote.EffectivePrice, 0.0001)
	assert.Equal(t, 60.0, quote.BasePrice)
	assert.Equal(t, SaleSourceUnit, quote.SaleSource)
}

func TestResolvePriceProductSaleAppliesToUnitWithoutOwnSale(t *testing.T) {
	product := &Product{
		Price: 100,
		Sale:  SaleConfig{IsOnSale: true, SaleType: SaleTypePercentage, SaleValue: 25},
	}
	unit := &ProductUnit{Price: 80}

	quote := ResolvePrice(product, unit)
	assert.InDelta(t, 60.0, quote.EffectivePrice, 0.0001)
	assert.Equal(t, SaleSourceProduct, quote.SaleSource)
}

func TestResolvePriceRangeOverUnits(t *testing.T) {
	product := &Product{
		Price: 100,
		Units: []ProductUnit{
			{Price: 40},
			{Price: 90, Sale: SaleConfig{IsOnSale: true, SaleType: SaleTypePercentage, SaleValue: 50}},
			{Price: 70},
		},
	}

	quote := ResolvePrice(product, nil)
	assert.True(t, quote.HasRange)
	assert.InDelta(t, 40.0, quote.MinPrice, 0.0001)
	assert.InDelta(t, 70.0, quote.MaxPrice, 0.0001)
	assert.InDelta(t, 40.0, quote.EffectivePrice, 0.0001)
	assert.True(t, quote.IsOnSale, "range reflects that at least one unit is on sale")
}

func TestResolvePriceRangeSingleUnit(t *testing.T) {
	product := &Product{
		Units: []ProductUnit{{Price: 55}},
	}

	quote := ResolvePrice(product, nil)
	assert.True(t, quote.HasRange)
	assert.Equal(t, 55.0, quote.MinPrice)
	assert.Equal(t, 55.0, quote.MaxPrice)
	assert.False(t, quote.IsOnSale)
}

func TestProductTotalStock(t *testing.T) {
	product := &Product{Stock: 7}
	assert.Equal(t, 7, product.TotalStock())

	product.Units = []ProductUnit{{Stock: 3}, {Stock: 5}}
	assert.Equal(t, 8, product.TotalStock(), "flat stock is ignored once units exist")
}
