// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/auroraatelier/aurora-backend/internal/services"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
	orderService *services.OrderService
}

func NewAdminHandler(adminService *services.AdminService, orderService *services.OrderService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		orderService: orderService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/orders?status=
func (h *AdminHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.orderService.ListOrders(c.Query("status"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

type acceptOrderRequest struct {
	Notes string `json:"notes"`
}

// POST /admin/orders/:id/accept
func (h *AdminHandler) AcceptOrder(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req acceptOrderRequest
	_ = c.ShouldBindJSON(&req) // notes are optional

	order, err := h.orderService.Accept(orderID, adminID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

type rejectOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// POST /admin/orders/:id/reject
func (h *AdminHandler) RejectOrder(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req rejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "A rejection reason is required", err.Error())
		return
	}

	order, err := h.orderService.Reject(orderID, adminID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PUT /admin/orders/:id/tax
func (h *AdminHandler) SetTax(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SetTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.SetTax(orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PUT /admin/orders/:id/pricing
func (h *AdminHandler) AdjustPricing(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AdjustPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.AdjustPricing(orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PUT /admin/orders/:id/parcel
func (h *AdminHandler) SetParcel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SetParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.SetParcel(orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/shipping/rates
func (h *AdminHandler) GetShippingRates(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rates, err := h.orderService.GetShippingRates(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"rates": rates})
}

// POST /admin/orders/:id/shipping/label
func (h *AdminHandler) PurchaseLabel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.PurchaseLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, err := h.orderService.PurchaseLabel(orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/payment-link
func (h *AdminHandler) GeneratePaymentLink(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GeneratePaymentLink(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/payment-link/regenerate
func (h *AdminHandler) RegeneratePaymentLink(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.RegeneratePaymentLink(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/request-adjustment
func (h *AdminHandler) RequestAdjustment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.RequestAdjustment(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/mark-shipped
func (h *AdminHandler) MarkShipped(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.MarkShipped(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /admin/orders/:id/mark-delivered
func (h *AdminHandler) MarkDelivered(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.MarkDelivered(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// DELETE /admin/orders/:id
func (h *AdminHandler) RemoveOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Remove(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}
