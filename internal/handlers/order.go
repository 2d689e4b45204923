// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/services"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /orders
// Guest checkout is allowed; the customer id is attached when a valid token
// accompanies the request.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(optionalUserID(c), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// POST /orders/custom
func (h *OrderHandler) CreateCustomOrder(c *gin.Context) {
	var req services.CreateCustomOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.CreateCustomOrder(optionalUserID(c), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// GET /orders/track?number=&email=
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	number := c.Query("number")
	email := c.Query("email")
	if number == "" || email == "" {
		utils.BadRequestResponse(c, "number and email are required", nil)
		return
	}

	order, err := h.orderService.TrackOrder(number, email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /orders/:id/verify?token=
// Resolves the order behind a payment link. The bearer token is the only
// credential.
func (h *OrderHandler) VerifyPaymentToken(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.VerifyPaymentToken(orderID, c.Query("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

type checkoutSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /orders/:id/checkout-session
func (h *OrderHandler) CreateCheckoutSession(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	session, err := h.orderService.CreateCheckoutSession(orderID, req.Token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, session)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	Token     string `json:"token" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

// POST /payments/verify-success
// Called by the success page after Stripe redirects back.
func (h *OrderHandler) VerifyPaymentSuccess(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order_id", nil)
		return
	}

	order, err := h.orderService.CompletePayment(orderID, req.Token, req.SessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /orders/:id/cancel
// Customers may only cancel their own orders.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	userType, _ := utils.GetUserTypeFromContext(c)
	isAdmin := userType == string(models.UserTypeAdmin)
	if !isAdmin && (order.CustomerID == nil || *order.CustomerID != userID) {
		utils.ForbiddenResponse(c, "")
		return
	}

	cancelled, err := h.orderService.Cancel(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, cancelled)
}
