// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SaleConfig is a discount descriptor attachable at product or unit
// granularity. SaleValue is a percentage for SaleTypePercentage and a
// dollar amount for SaleTypeAmount.
type SaleConfig struct {
	IsOnSale  bool     `json:"is_on_sale" gorm:"default:false"`
	SaleType  SaleType `json:"sale_type,omitempty" gorm:"type:varchar(20)"`
	SaleValue float64  `json:"sale_value,omitempty" gorm:"type:decimal(10,2);default:0"`
}

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    ProductCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Images      pq.StringArray  `json:"images" gorm:"type:text[]"`

	// Legacy flat pricing; authoritative only when the product has no units.
	Price float64 `json:"price" gorm:"type:decimal(10,2);default:0"`
	Stock int     `json:"stock" gorm:"default:0"`

	Sale SaleConfig `json:"sale_config" gorm:"embedded;embeddedPrefix:sale_"`

	Units []ProductUnit `json:"units,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductUnit is a priced, stocked variant of a product (a specific
// size/color combination) with its own sale configuration.
type ProductUnit struct {
	BaseModel
	ProductID uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	Label     string         `json:"label" gorm:"size:100"`
	Size      string         `json:"size" gorm:"size:50"`
	Color     string         `json:"color" gorm:"size:50"`
	Price     float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock     int            `json:"stock" gorm:"default:0"`
	Images    pq.StringArray `json:"images" gorm:"type:text[]"`
	Sale      SaleConfig     `json:"sale_config" gorm:"embedded;embeddedPrefix:sale_"`
}

// HasUnits reports whether price and stock must be derived per-unit.
func (p *Product) HasUnits() bool {
	return len(p.Units) > 0
}

// UnitByID returns the unit with the given id, or nil.
func (p *Product) UnitByID(unitID uuid.UUID) *ProductUnit {
	for i := range p.Units {
		if p.Units[i].ID == unitID {
			return &p.Units[i]
		}
	}
	return nil
}

// TotalStock sums unit stock when units exist, otherwise the flat stock.
func (p *Product) TotalStock() int {
	if !p.HasUnits() {
		return p.Stock
	}
	total := 0
	for i := range p.Units {
		total += p.Units[i].Stock
	}
	return total
}
