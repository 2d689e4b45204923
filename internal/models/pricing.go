// internal/models/pricing.go
package models

// SaleSource identifies which sale configuration produced an effective price.
type SaleSource string

const (
	SaleSourceUnit    SaleSource = "unit"
	SaleSourceProduct SaleSource = "product"
	SaleSourceNone    SaleSource = "none"
)

// PriceQuote is the resolved display price for a product (or one of its
// units). When the product has units and none is selected, HasRange is set
// and MinPrice/MaxPrice carry the sale-aware range instead of a point price.
type PriceQuote struct {
	EffectivePrice float64    `json:"effective_price"`
	BasePrice      float64    `json:"base_price"`
	IsOnSale       bool       `json:"is_on_sale"`
	SaleSource     SaleSource `json:"sale_source"`
	HasRange       bool       `json:"has_range,omitempty"`
	MinPrice       float64    `json:"min_price,omitempty"`
	MaxPrice       float64    `json:"max_price,omitempty"`
}

// applyDiscount applies a sale config to a base price. Amount discounts are
// floored at zero.
func applyDiscount(price float64, sale SaleConfig) float64 {
	if !sale.IsOnSale {
		return price
	}
	switch sale.SaleType {
	case SaleTypePercentage:
		return price * (1 - sale.SaleValue/100)
	case SaleTypeAmount:
		discounted := price - sale.SaleValue
		if discounted < 0 {
			return 0
		}
		return discounted
	}
	return price
}

// ResolvePrice computes the effective displayed price for a product with an
// optionally selected unit. At most one discount applies; a unit-level sale
// takes precedence over the product-level sale.
func ResolvePrice(p *Product, unit *ProductUnit) PriceQuote {
	if unit != nil {
		return resolveUnitPrice(p, unit)
	}

	if p.HasUnits() {
		return resolveRange(p)
	}

	quote := PriceQuote{BasePrice: p.Price, EffectivePrice: p.Price, SaleSource: SaleSourceNone}
	if p.Sale.IsOnSale {
		quote.EffectivePrice = applyDiscount(p.Price, p.Sale)
		quote.IsOnSale = true
		quote.SaleSource = SaleSourceProduct
	}
	return quote
}

func resolveUnitPrice(p *Product, unit *ProductUnit) PriceQuote {
	quote := PriceQuote{BasePrice: unit.Price, EffectivePrice: unit.Price, SaleSource: SaleSourceNone}

	switch {
	case unit.Sale.IsOnSale:
		quote.EffectivePrice = applyDiscount(unit.Price, unit.Sale)
		quote.IsOnSale = true
		quote.SaleSource = SaleSourceUnit
	case p.Sale.IsOnSale:
		quote.EffectivePrice = applyDiscount(unit.Price, p.Sale)
		quote.IsOnSale = true
		quote.SaleSource = SaleSourceProduct
	}
	return quote
}

func resolveRange(p *Product) PriceQuote {
	quote := PriceQuote{HasRange: true, SaleSource: SaleSourceNone}

	for i := range p.Units {
		unitQuote := resolveUnitPrice(p, &p.Units[i])
		if i == 0 {
			quote.MinPrice = unitQuote.EffectivePrice
			quote.MaxPrice = unitQuote.EffectivePrice
		}
		if unitQuote.EffectivePrice < quote.MinPrice {
			quote.MinPrice = unitQuote.EffectivePrice
		}
		if unitQuote.EffectivePrice > quote.MaxPrice {
			quote.MaxPrice = unitQuote.EffectivePrice
		}
		if unitQuote.IsOnSale {
			quote.IsOnSale = true
		}
	}

	quote.EffectivePrice = quote.MinPrice
	return quote
}
