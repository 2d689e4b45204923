// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EngravingSurchargePerPiece is the flat fee added for each engraved piece
// in a custom order.
const EngravingSurchargePerPiece = 15.0

// CartItem captures the effective price at add-to-cart time so later sale
// edits do not reprice a customer's cart.
type CartItem struct {
	BaseModel
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	UnitID    *uuid.UUID `json:"unit_id,omitempty" gorm:"type:uuid"`
	Quantity  int        `json:"quantity" gorm:"not null;default:1"`

	// Snapshot of the product at add time.
	Name           string          `json:"name" gorm:"size:255;not null"`
	Category       ProductCategory `json:"category" gorm:"type:varchar(20);not null"`
	Price          float64         `json:"price" gorm:"type:decimal(10,2)"`
	SalePrice      float64         `json:"sale_price" gorm:"type:decimal(10,2)"`
	EffectivePrice float64         `json:"effective_price" gorm:"type:decimal(10,2);not null"`
	Images         pq.StringArray  `json:"images" gorm:"type:text[]"`
	Size           string          `json:"size" gorm:"size:50"`
	Color          string          `json:"color" gorm:"size:50"`
	EngravingText  string          `json:"engraving_text" gorm:"size:255"`
}

// IsCustom reports whether the item is a custom piece, which is excluded
// from checkout subtotal math and priced by an admin after review.
func (ci *CartItem) IsCustom() bool {
	return ci.Category == CategoryCustom
}

// LineTotal is the captured effective price times quantity, plus the
// engraving surcharge for engraved pieces.
func (ci *CartItem) LineTotal() float64 {
	total := ci.EffectivePrice * float64(ci.Quantity)
	if ci.EngravingText != "" {
		total += EngravingSurchargePerPiece * float64(ci.Quantity)
	}
	return total
}

// CartSubtotal sums line totals over regular items. Custom items are
// partitioned out; they go through the manual-review order path.
func CartSubtotal(items []CartItem) float64 {
	var subtotal float64
	for i := range items {
		if items[i].IsCustom() {
			continue
		}
		subtotal += items[i].LineTotal()
	}
	return subtotal
}

// CartTotalItems counts pieces across all items, custom included.
func CartTotalItems(items []CartItem) int {
	total := 0
	for i := range items {
		total += items[i].Quantity
	}
	return total
}

// SplitCustomItems partitions a cart into regular and custom items.
func SplitCustomItems(items []CartItem) (regular, custom []CartItem) {
	for i := range items {
		if items[i].IsCustom() {
			custom = append(custom, items[i])
		} else {
			regular = append(regular, items[i])
		}
	}
	return regular, custom
}
