// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/metrics"
	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

// ErrOrderConflict signals a lost version race; the caller should reload and
// retry.
var ErrOrderConflict = errors.New("order was modified concurrently")

type OrderService struct {
	db            *gorm.DB
	cfg           *config.Config
	products      *ProductService
	shipping      *ShippingService
	payments      *PaymentService
	notifications *NotificationService
}

type AddressRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Street1 string `json:"street1" validate:"required,max=255"`
	Street2 string `json:"street2" validate:"omitempty,max=255"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,us_state"`
	Zip     string `json:"zip" validate:"required,us_zip"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	UnitID    *uuid.UUID `json:"unit_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressRequest    `json:"billing_address,omitempty"`
	ClearCart       bool               `json:"clear_cart,omitempty"`
}

type CreateCustomOrderRequest struct {
	CustomerEmail   string         `json:"customer_email" validate:"required,email"`
	Description     string         `json:"description" validate:"required,max=2000"`
	Quantity        int            `json:"quantity" validate:"required,gte=1"`
	EngravingText   string         `json:"engraving_text" validate:"omitempty,max=255"`
	ShippingAddress AddressRequest `json:"shipping_address" validate:"required"`
}

type SetTaxRequest struct {
	Tax float64 `json:"tax" validate:"gte=0"`
}

type SetParcelRequest struct {
	Weight       float64             `json:"weight" validate:"required,gt=0"`
	WeightUnit   models.WeightUnit   `json:"weight_unit" validate:"required,oneof=lb kg"`
	Length       float64             `json:"length" validate:"required,gt=0"`
	Width        float64             `json:"width" validate:"required,gt=0"`
	Height       float64             `json:"height" validate:"required,gt=0"`
	DistanceUnit models.DistanceUnit `json:"distance_unit" validate:"required,oneof=in cm"`
}

type PurchaseLabelRequest struct {
	RateID  string  `json:"rate_id" validate:"required"`
	Carrier string  `json:"carrier" validate:"required"`
	Service string  `json:"service"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
}

type ItemPriceAdjustment struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Price  float64   `json:"price" validate:"gte=0"`
}

type AdjustPricingRequest struct {
	Items []ItemPriceAdjustment `json:"items" validate:"required,min=1,dive"`
}

func NewOrderService(
	db *gorm.DB,
	cfg *config.Config,
	products *ProductService,
	shipping *ShippingService,
	payments *PaymentService,
	notifications *NotificationService,
) *OrderService {
	return &OrderService{
		db:            db,
		cfg:           cfg,
		products:      products,
		shipping:      shipping,
		payments:      payments,
		notifications: notifications,
	}
}

// CreateOrder places a direct order. Stock is reserved inside the
// transaction with a guarded decrement, so two buyers cannot claim the last
// piece.
func (s *OrderService) CreateOrder(customerID *uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderNumber, err := utils.GenerateOrderNumber()
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}

		var items []models.OrderItem
		var subtotal float64
		for _, line := range req.Items {
			var product models.Product
			if err := tx.Preload("Units").First(&product, "id = ?", line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New("product not found")
				}
				return fmt.Errorf("failed to find product: %w", err)
			}

			if product.Category == models.CategoryCustom {
				return errors.New("custom pieces must go through the custom order flow")
			}

			var unit *models.ProductUnit
			if line.UnitID != nil {
				unit = product.UnitByID(*line.UnitID)
				if unit == nil {
					return errors.New("product unit not found")
				}
			} else if product.HasUnits() {
				return errors.New("a unit must be selected for this product")
			}

			if err := s.products.DecrementStock(tx, product.ID, line.UnitID, line.Quantity); err != nil {
				return fmt.Errorf("%s: %w", product.Name, err)
			}

			quote := models.ResolvePrice(&product, unit)
			productID := product.ID
			item := models.OrderItem{
				ProductID: &productID,
				UnitID:    line.UnitID,
				Name:      product.Name,
				Price:     quote.EffectivePrice,
				Quantity:  line.Quantity,
			}
			if unit != nil {
				item.Size = unit.Size
				item.Color = unit.Color
			}
			items = append(items, item)
			subtotal += quote.EffectivePrice * float64(line.Quantity)
		}

		order = &models.Order{
			OrderNumber:     orderNumber,
			CustomerID:      customerID,
			CustomerEmail:   req.CustomerEmail,
			Items:           items,
			Subtotal:        subtotal,
			Status:          models.OrderStatusPendingApproval,
			PaymentStatus:   models.PaymentStatusPending,
			ShippingAddress: toAddress(req.ShippingAddress),
			Version:         1,
		}
		if req.BillingAddress != nil {
			order.BillingAddress = toAddress(*req.BillingAddress)
		} else {
			order.BillingAddress = order.ShippingAddress
		}
		order.RecomputeTotal()

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if req.ClearCart && customerID != nil {
			if err := tx.Delete(&models.CartItem{}, "user_id = ?", *customerID).Error; err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedCounter.WithLabelValues("direct").Inc()
	go s.notifications.SendOrderEvent(order, EmailEventOrderReceived)
	return order, nil
}

// CreateCustomOrder opens a manual-review order at $0. The admin prices it
// before any payment link can be issued.
func (s *OrderService) CreateCustomOrder(customerID *uuid.UUID, req *CreateCustomOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	orderNumber, err := utils.GenerateOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order := &models.Order{
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		CustomerEmail: req.CustomerEmail,
		Items: []models.OrderItem{{
			Name:          req.Description,
			Price:         0,
			Quantity:      req.Quantity,
			EngravingText: req.EngravingText,
			IsCustom:      true,
		}},
		Subtotal:        0,
		Status:          models.OrderStatusPendingApproval,
		PaymentStatus:   models.PaymentStatusPending,
		IsCustomOrder:   true,
		ShippingAddress: toAddress(req.ShippingAddress),
		Version:         1,
	}
	order.BillingAddress = order.ShippingAddress

	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create custom order: %w", err)
	}

	metrics.OrdersCreatedCounter.WithLabelValues("custom").Inc()
	go s.notifications.SendOrderEvent(order, EmailEventOrderReceived)
	return order, nil
}

func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("EmailHistory").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// TrackOrder is the public lookup: order number plus the email it was placed
// with.
func (s *OrderService) TrackOrder(orderNumber, email string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").
		First(&order, "order_number = ? AND customer_email = ?", orderNumber, email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) ListCustomerOrders(customerID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Order{}).Where("customer_id = ?", customerID)
	return s.listOrders(query, params)
}

// ListOrders is the admin queue, optionally filtered by status.
func (s *OrderService) ListOrders(status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return s.listOrders(query, params)
}

func (s *OrderService) listOrders(query *gorm.DB, params utils.PaginationParams) (*utils.PaginationResult, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	query = query.Preload("Items")
	query = utils.ApplySort(query, params, []string{"created_at", "total", "status"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := utils.CreatePaginationResult(orders, total, params)
	return &result, nil
}

// Accept approves a pending order.
func (s *OrderService) Accept(orderID, adminID uuid.UUID, notes string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, models.ActionAccept, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.Status = next
	order.Approval = models.AdminApproval{
		IsApproved: true,
		AdminNotes: notes,
		ApprovedBy: &adminID,
		ApprovedAt: &now,
	}

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}

	go s.notifications.SendOrderEvent(order, EmailEventOrderAccepted)
	return order, nil
}

// Reject declines a pending order and releases its reserved stock.
func (s *OrderService) Reject(orderID, adminID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, models.ActionReject, models.TransitionInput{Reason: reason, Now: time.Now()})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.Status = next
	order.Approval = models.AdminApproval{
		IsApproved:      false,
		RejectionReason: reason,
		ApprovedBy:      &adminID,
		ApprovedAt:      &now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.restoreStock(tx, order); err != nil {
			return err
		}
		return s.saveVersioned(tx, order)
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.SendOrderEvent(order, EmailEventOrderRejected, reason)
	return order, nil
}

// SetTax sets the order's tax amount. Locked once a payment link exists.
func (s *OrderService) SetTax(orderID uuid.UUID, req *SetTaxRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, models.ActionSetTax, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.Tax = req.Tax
	order.IsTaxSet = true
	order.RecomputeTotal()

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}

	go s.notifications.SendOrderEvent(order, EmailEventTaxAdjusted)
	return order, nil
}

// AdjustPricing reprices order items, used for custom pieces quoted after
// review. Like tax, pricing is frozen once a payment link exists.
func (s *OrderService) AdjustPricing(orderID uuid.UUID, req *AdjustPricingRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPendingApproval && order.Status != models.OrderStatusAccepted {
		return nil, fmt.Errorf("%w: cannot reprice an order that is %s", models.ErrTransitionNotAllowed, order.Status)
	}
	if order.PaymentToken != "" {
		return nil, models.ErrTaxLockedByToken
	}

	prices := make(map[uuid.UUID]float64, len(req.Items))
	for _, adj := range req.Items {
		prices[adj.ItemID] = adj.Price
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		for i := range order.Items {
			item := &order.Items[i]
			if price, ok := prices[item.ID]; ok {
				item.Price = price
				if err := tx.Model(&models.OrderItem{}).
					Where("id = ? AND order_id = ?", item.ID, order.ID).
					UpdateColumn("price", price).Error; err != nil {
					return fmt.Errorf("failed to update item price: %w", err)
				}
				delete(prices, item.ID)
			}
			lineTotal := item.Price * float64(item.Quantity)
			if item.EngravingText != "" {
				lineTotal += models.EngravingSurchargePerPiece * float64(item.Quantity)
			}
			subtotal += lineTotal
		}
		if len(prices) > 0 {
			return errors.New("order item not found")
		}

		order.Subtotal = subtotal
		order.IsPriceAdjusted = true
		order.RecomputeTotal()
		return s.saveVersioned(tx, order)
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.SendOrderEvent(order, EmailEventTaxAdjusted)
	return order, nil
}

// SetParcel records package weight and dimensions ahead of rate shopping.
func (s *OrderService) SetParcel(orderID uuid.UUID, req *SetParcelRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.Shipment.LabelURL != "" {
		return nil, errors.New("parcel cannot change after the label was purchased")
	}

	order.Parcel = models.ShippingParcel{
		Weight:       req.Weight,
		WeightUnit:   req.WeightUnit,
		Length:       req.Length,
		Width:        req.Width,
		Height:       req.Height,
		DistanceUnit: req.DistanceUnit,
	}

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetShippingRates shops carrier rates for the order's parcel.
func (s *OrderService) GetShippingRates(orderID uuid.UUID) ([]RateQuote, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return s.shipping.GetRates(order)
}

// PurchaseLabel buys the admin-selected rate and stores the label artifacts.
// The rate's cost becomes the order's shipping cost.
func (s *OrderService) PurchaseLabel(orderID uuid.UUID, req *PurchaseLabelRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	// Validate the transition before charging the carrier.
	if err := s.applyRateSelection(order, req); err != nil {
		return nil, err
	}

	label, err := s.shipping.PurchaseLabel(req.RateID, req.Amount)
	if err != nil {
		return nil, err
	}

	applyPurchasedLabel(order, label, req.Amount)

	// The carrier already charged for this label. A lost version race must
	// not discard it, so re-read and re-apply instead of surfacing the
	// conflict.
	err = s.saveVersioned(s.db, order)
	for attempt := 0; errors.Is(err, ErrOrderConflict) && attempt < 3; attempt++ {
		order, err = s.GetOrder(orderID)
		if err != nil {
			break
		}
		if err = s.applyRateSelection(order, req); err != nil {
			break
		}
		applyPurchasedLabel(order, label, req.Amount)
		err = s.saveVersioned(s.db, order)
	}
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order":          order.OrderNumber,
			"transaction_id": label.TransactionID,
			"label_url":      label.LabelURL,
		}).Error("purchased label was not persisted, manual reconciliation needed")
		return nil, err
	}
	return order, nil
}

// applyRateSelection stamps the chosen rate on the order and checks that a
// label purchase is allowed from its current state.
func (s *OrderService) applyRateSelection(order *models.Order, req *PurchaseLabelRequest) error {
	order.Shipment.RateID = req.RateID
	order.Shipment.Carrier = req.Carrier
	order.Shipment.Service = req.Service
	order.Shipment.Amount = req.Amount

	next, err := s.nextStatus(order, models.ActionPurchaseLabel, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return err
	}
	order.Status = next
	return nil
}

// applyPurchasedLabel records the label artifacts and rolls its cost into the
// order total.
func applyPurchasedLabel(order *models.Order, label *PurchasedLabel, amount float64) {
	order.Shipment.TransactionID = label.TransactionID
	order.Shipment.TrackingNumber = label.TrackingNumber
	order.Shipment.TrackingURL = label.TrackingURL
	order.Shipment.LabelURL = label.LabelURL
	order.ShippingCost = amount
	order.RecomputeTotal()
}

// GeneratePaymentLink mints the bearer token, moves the order to
// pending_payment and emails the customer the link.
func (s *OrderService) GeneratePaymentLink(orderID uuid.UUID) (*models.Order, error) {
	return s.issuePaymentLink(orderID, models.ActionGenerateLink)
}

// RegeneratePaymentLink replaces an existing token with a fresh one. The
// version guard makes the swap atomic; a concurrent regeneration loses.
func (s *OrderService) RegeneratePaymentLink(orderID uuid.UUID) (*models.Order, error) {
	return s.issuePaymentLink(orderID, models.ActionRegenerateLink)
}

func (s *OrderService) issuePaymentLink(orderID uuid.UUID, action models.OrderAction) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	next, err := s.nextStatus(order, action, models.TransitionInput{Now: now})
	if err != nil {
		return nil, err
	}

	token, err := utils.GeneratePaymentToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment token: %w", err)
	}
	expiry := now.Add(time.Duration(s.cfg.Payment.PaymentLinkTTLHours) * time.Hour)

	order.Status = next
	order.PaymentToken = token
	order.PaymentTokenExpiry = &expiry

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}

	go s.notifications.SendOrderEvent(order, EmailEventPaymentLink, s.payments.PaymentLinkURL(token), expiry)
	return order, nil
}

// RequestAdjustment pulls a pending_payment order back for tax or pricing
// changes, voiding the outstanding payment link.
func (s *OrderService) RequestAdjustment(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, models.ActionRequestAdjustment, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.PaymentToken = ""
	order.PaymentTokenExpiry = nil

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// VerifyPaymentToken resolves an order for the payment page. Expired or
// mismatched tokens fail closed.
func (s *OrderService) VerifyPaymentToken(orderID uuid.UUID, token string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.TokenMatches(token, time.Now()) {
		return nil, models.ErrPaymentTokenInvalid
	}
	return order, nil
}

// CreateCheckoutSession opens the Stripe session for a tokenized order.
func (s *OrderService) CreateCheckoutSession(orderID uuid.UUID, token string) (*CheckoutSessionResponse, error) {
	order, err := s.VerifyPaymentToken(orderID, token)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPendingPayment {
		return nil, fmt.Errorf("%w: order is %s", models.ErrTransitionNotAllowed, order.Status)
	}
	return s.payments.CreateCheckoutSession(order, token)
}

// CompletePayment verifies the Stripe session and advances the order to
// processing. The version guard makes double submission a no-op.
func (s *OrderService) CompletePayment(orderID uuid.UUID, token, sessionID string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	verification, err := s.payments.VerifySession(sessionID)
	if err != nil {
		return nil, err
	}
	if !verification.Paid {
		return nil, models.ErrPaymentNotCaptured
	}

	now := time.Now()
	next, err := s.nextStatus(order, models.ActionPay, models.TransitionInput{Token: token, Now: now})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.PaymentStatus = models.PaymentStatusCaptured
	order.PaymentReference = verification.PaymentReference
	// Burn the token.
	order.PaymentTokenExpiry = &now

	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}

	metrics.PaymentsCapturedCounter.Inc()
	go s.notifications.SendOrderEvent(order, EmailEventPaymentReceived)
	return order, nil
}

func (s *OrderService) MarkShipped(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.transition(orderID, models.ActionMarkShipped)
	if err != nil {
		return nil, err
	}
	go s.notifications.SendOrderEvent(order, EmailEventOrderShipped)
	return order, nil
}

func (s *OrderService) MarkDelivered(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.transition(orderID, models.ActionMarkDelivered)
	if err != nil {
		return nil, err
	}
	go s.notifications.SendOrderEvent(order, EmailEventOrderDelivered)
	return order, nil
}

// Remove takes an unpaid order off the queue and releases its stock.
func (s *OrderService) Remove(orderID uuid.UUID) (*models.Order, error) {
	return s.closeOrder(orderID, models.ActionRemove)
}

// Cancel voids an unpaid order and releases its stock. Handlers enforce that
// customers only cancel their own orders.
func (s *OrderService) Cancel(orderID uuid.UUID) (*models.Order, error) {
	return s.closeOrder(orderID, models.ActionCancel)
}

func (s *OrderService) closeOrder(orderID uuid.UUID, action models.OrderAction) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, action, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.PaymentToken = ""
	order.PaymentTokenExpiry = nil

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.restoreStock(tx, order); err != nil {
			return err
		}
		return s.saveVersioned(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) transition(orderID uuid.UUID, action models.OrderAction) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextStatus(order, action, models.TransitionInput{Now: time.Now()})
	if err != nil {
		return nil, err
	}

	order.Status = next
	if err := s.saveVersioned(s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// nextStatus consults the transition table and counts the outcome.
func (s *OrderService) nextStatus(order *models.Order, action models.OrderAction, in models.TransitionInput) (models.OrderStatus, error) {
	next, err := models.NextStatus(order, action, in)
	outcome := "allowed"
	if err != nil {
		outcome = "denied"
	}
	metrics.OrderTransitionsCounter.WithLabelValues(string(action), outcome).Inc()
	return next, err
}

// saveVersioned writes the order only if its version is unchanged since
// load, bumping it on success.
func (s *OrderService) saveVersioned(tx *gorm.DB, order *models.Order) error {
	expected := order.Version
	order.Version = expected + 1

	result := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expected).
		Select("*").
		Omit("id", "created_at", "order_number").
		Updates(order)
	if result.Error != nil {
		order.Version = expected
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		order.Version = expected
		return ErrOrderConflict
	}
	return nil
}

// restoreStock returns reserved catalog stock for every non-custom line.
func (s *OrderService) restoreStock(tx *gorm.DB, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		if item.IsCustom || item.ProductID == nil {
			continue
		}
		if err := s.products.RestoreStock(tx, *item.ProductID, item.UnitID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func toAddress(req AddressRequest) models.Address {
	return models.Address{
		Name:    req.Name,
		Street1: req.Street1,
		Street2: req.Street2,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: "US",
		Phone:   req.Phone,
	}
}
