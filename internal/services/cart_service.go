// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

type CartService struct {
	db *gorm.DB
}

type AddToCartRequest struct {
	ProductID     uuid.UUID  `json:"product_id" validate:"required"`
	UnitID        *uuid.UUID `json:"unit_id,omitempty"`
	Quantity      int        `json:"quantity" validate:"required,gte=1"`
	EngravingText string     `json:"engraving_text" validate:"omitempty,max=255"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// CartView is the persisted cart with its derived totals. Subtotal covers
// regular items only; custom pieces are listed but priced by an admin later.
type CartView struct {
	Items      []models.CartItem `json:"items"`
	Subtotal   float64           `json:"subtotal"`
	TotalItems int               `json:"total_items"`
	HasCustom  bool              `json:"has_custom_items"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// AddItem snapshots the product's effective price into the cart row. Sale
// edits after this point do not reprice the line.
func (s *CartService) AddItem(userID uuid.UUID, req *AddToCartRequest) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.Preload("Units").First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	var unit *models.ProductUnit
	if req.UnitID != nil {
		unit = product.UnitByID(*req.UnitID)
		if unit == nil {
			return nil, errors.New("product unit not found")
		}
	} else if product.HasUnits() {
		return nil, errors.New("a unit must be selected for this product")
	}

	if product.Category != models.CategoryCustom {
		available := product.Stock
		if unit != nil {
			available = unit.Stock
		}
		if available < req.Quantity {
			return nil, errors.New("insufficient stock")
		}
	}

	if req.EngravingText != "" && product.Category != models.CategoryCustom {
		return nil, errors.New("engraving is only available on custom pieces")
	}

	// Merge with an existing line for the same product/unit/engraving.
	var existing models.CartItem
	query := s.db.Where("user_id = ? AND product_id = ? AND engraving_text = ?", userID, req.ProductID, req.EngravingText)
	if req.UnitID != nil {
		query = query.Where("unit_id = ?", *req.UnitID)
	} else {
		query = query.Where("unit_id IS NULL")
	}
	if err := query.First(&existing).Error; err == nil {
		existing.Quantity += req.Quantity
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		return &existing, nil
	}

	quote := models.ResolvePrice(&product, unit)

	item := &models.CartItem{
		UserID:         userID,
		ProductID:      product.ID,
		UnitID:         req.UnitID,
		Quantity:       req.Quantity,
		Name:           product.Name,
		Category:       product.Category,
		Price:          quote.BasePrice,
		EffectivePrice: quote.EffectivePrice,
		Images:         product.Images,
		EngravingText:  req.EngravingText,
	}
	if quote.IsOnSale {
		item.SalePrice = quote.EffectivePrice
	}
	if unit != nil {
		item.Size = unit.Size
		item.Color = unit.Color
		if len(unit.Images) > 0 {
			item.Images = unit.Images
		}
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}
	return item, nil
}

func (s *CartService) GetCart(userID uuid.UUID) (*CartView, error) {
	var items []models.CartItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	_, custom := models.SplitCustomItems(items)

	return &CartView{
		Items:      items,
		Subtotal:   models.CartSubtotal(items),
		TotalItems: models.CartTotalItems(items),
		HasCustom:  len(custom) > 0,
	}, nil
}

func (s *CartService) UpdateItemQuantity(userID, itemID uuid.UUID, req *UpdateCartItemRequest) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var item models.CartItem
	if err := s.db.First(&item, "id = ? AND user_id = ?", itemID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("cart item not found")
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	item.Quantity = req.Quantity
	if err := s.db.Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return &item, nil
}

func (s *CartService) RemoveItem(userID, itemID uuid.UUID) error {
	result := s.db.Delete(&models.CartItem{}, "id = ? AND user_id = ?", itemID, userID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("cart item not found")
	}
	return nil
}

func (s *CartService) ClearCart(userID uuid.UUID) error {
	if err := s.db.Delete(&models.CartItem{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
