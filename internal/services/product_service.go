// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type SaleConfigRequest struct {
	IsOnSale  bool            `json:"is_on_sale"`
	SaleType  models.SaleType `json:"sale_type" validate:"omitempty,oneof=percentage amount"`
	SaleValue float64         `json:"sale_value" validate:"omitempty,gte=0"`
}

type ProductUnitRequest struct {
	Label     string             `json:"label" validate:"omitempty,max=100"`
	Size      string             `json:"size" validate:"omitempty,max=50"`
	Color     string             `json:"color" validate:"omitempty,max=50"`
	Price     float64            `json:"price" validate:"required,gt=0"`
	Stock     int                `json:"stock" validate:"gte=0"`
	Images    []string           `json:"images"`
	Sale      *SaleConfigRequest `json:"sale_config,omitempty"`
}

type CreateProductRequest struct {
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description"`
	Category    models.ProductCategory `json:"category" validate:"required"`
	Images      []string               `json:"images"`
	Price       float64                `json:"price" validate:"gte=0"`
	Stock       int                    `json:"stock" validate:"gte=0"`
	Sale        *SaleConfigRequest     `json:"sale_config,omitempty"`
	Units       []ProductUnitRequest   `json:"units,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string                 `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string                 `json:"description,omitempty"`
	Category    *models.ProductCategory `json:"category,omitempty"`
	Images      []string                `json:"images,omitempty"`
	Price       *float64                `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int                    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Sale        *SaleConfigRequest      `json:"sale_config,omitempty"`
}

// ProductView is a product plus its resolved display price.
type ProductView struct {
	models.Product
	PriceQuote models.PriceQuote `json:"price_quote"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !req.Category.Valid() {
		return nil, errors.New("invalid product category")
	}

	if err := validateSaleConfig(req.Sale); err != nil {
		return nil, err
	}
	for i := range req.Units {
		if err := validateSaleConfig(req.Units[i].Sale); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Images:      pq.StringArray(req.Images),
		Price:       req.Price,
		Stock:       req.Stock,
		Sale:        toSaleConfig(req.Sale),
	}

	for i := range req.Units {
		product.Units = append(product.Units, models.ProductUnit{
			Label:  req.Units[i].Label,
			Size:   req.Units[i].Size,
			Color:  req.Units[i].Color,
			Price:  req.Units[i].Price,
			Stock:  req.Units[i].Stock,
			Images: pq.StringArray(req.Units[i].Images),
			Sale:   toSaleConfig(req.Units[i].Sale),
		})
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetProduct(productID uuid.UUID) (*ProductView, error) {
	var product models.Product
	if err := s.db.Preload("Units").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return &ProductView{
		Product:    product,
		PriceQuote: models.ResolvePrice(&product, nil),
	}, nil
}

// ListProducts returns a paginated, optionally filtered catalog page with
// resolved display prices.
func (s *ProductService) ListProducts(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{}).Preload("Units")

	if params.Category != "" {
		if !models.ProductCategory(params.Category).Valid() {
			return nil, errors.New("invalid product category")
		}
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"created_at", "name", "price"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, ProductView{
			Product:    products[i],
			PriceQuote: models.ResolvePrice(&products[i], nil),
		})
	}

	result := utils.CreatePaginationResult(views, total, params)
	return &result, nil
}

func (s *ProductService) UpdateProduct(productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.Preload("Units").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, errors.New("invalid product category")
		}
		product.Category = *req.Category
	}
	if req.Images != nil {
		product.Images = pq.StringArray(req.Images)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Sale != nil {
		if err := validateSaleConfig(req.Sale); err != nil {
			return nil, err
		}
		product.Sale = toSaleConfig(req.Sale)
	}

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func (s *ProductService) DeleteProduct(productID uuid.UUID) error {
	result := s.db.Delete(&models.Product{}, "id = ?", productID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	// Soft-delete the units alongside the parent.
	if err := s.db.Delete(&models.ProductUnit{}, "product_id = ?", productID).Error; err != nil {
		return fmt.Errorf("failed to delete product units: %w", err)
	}
	return nil
}

func (s *ProductService) AddUnit(productID uuid.UUID, req *ProductUnitRequest) (*models.ProductUnit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateSaleConfig(req.Sale); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	unit := &models.ProductUnit{
		ProductID: product.ID,
		Label:     req.Label,
		Size:      req.Size,
		Color:     req.Color,
		Price:     req.Price,
		Stock:     req.Stock,
		Images:    pq.StringArray(req.Images),
		Sale:      toSaleConfig(req.Sale),
	}

	if err := s.db.Create(unit).Error; err != nil {
		return nil, fmt.Errorf("failed to create product unit: %w", err)
	}
	return unit, nil
}

func (s *ProductService) UpdateUnit(productID, unitID uuid.UUID, req *ProductUnitRequest) (*models.ProductUnit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateSaleConfig(req.Sale); err != nil {
		return nil, err
	}

	var unit models.ProductUnit
	if err := s.db.First(&unit, "id = ? AND product_id = ?", unitID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product unit not found")
		}
		return nil, fmt.Errorf("failed to find product unit: %w", err)
	}

	unit.Label = req.Label
	unit.Size = req.Size
	unit.Color = req.Color
	unit.Price = req.Price
	unit.Stock = req.Stock
	if req.Images != nil {
		unit.Images = pq.StringArray(req.Images)
	}
	if req.Sale != nil {
		unit.Sale = toSaleConfig(req.Sale)
	}

	if err := s.db.Save(&unit).Error; err != nil {
		return nil, fmt.Errorf("failed to update product unit: %w", err)
	}
	return &unit, nil
}

func (s *ProductService) DeleteUnit(productID, unitID uuid.UUID) error {
	result := s.db.Delete(&models.ProductUnit{}, "id = ? AND product_id = ?", unitID, productID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product unit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("product unit not found")
	}
	return nil
}

// DecrementStock atomically reserves stock for a purchase. The guarded UPDATE
// only succeeds when enough stock remains, so concurrent checkouts cannot
// oversell.
func (s *ProductService) DecrementStock(tx *gorm.DB, productID uuid.UUID, unitID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	var result *gorm.DB
	if unitID != nil {
		result = tx.Model(&models.ProductUnit{}).
			Where("id = ? AND product_id = ? AND stock >= ?", *unitID, productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	} else {
		result = tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	}

	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("insufficient stock")
	}
	return nil
}

// RestoreStock returns reserved stock, used when an order is rejected or
// cancelled before shipment.
func (s *ProductService) RestoreStock(tx *gorm.DB, productID uuid.UUID, unitID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	var result *gorm.DB
	if unitID != nil {
		result = tx.Model(&models.ProductUnit{}).
			Where("id = ? AND product_id = ?", *unitID, productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	} else {
		result = tx.Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	}

	if result.Error != nil {
		return fmt.Errorf("failed to restore stock: %w", result.Error)
	}
	return nil
}

func validateSaleConfig(req *SaleConfigRequest) error {
	if req == nil || !req.IsOnSale {
		return nil
	}
	switch req.SaleType {
	case models.SaleTypePercentage:
		if req.SaleValue <= 0 || req.SaleValue > 100 {
			return errors.New("percentage sale value must be between 0 and 100")
		}
	case models.SaleTypeAmount:
		if req.SaleValue <= 0 {
			return errors.New("amount sale value must be positive")
		}
	default:
		return errors.New("invalid sale type")
	}
	return nil
}

func toSaleConfig(req *SaleConfigRequest) models.SaleConfig {
	if req == nil {
		return models.SaleConfig{}
	}
	return models.SaleConfig{
		IsOnSale:  req.IsOnSale,
		SaleType:  req.SaleType,
		SaleValue: req.SaleValue,
	}
}
