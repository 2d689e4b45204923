// internal/handlers/shipping.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/services"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

type ShippingHandler struct {
	shippingService *services.ShippingService
}

func NewShippingHandler(shippingService *services.ShippingService) *ShippingHandler {
	return &ShippingHandler{
		shippingService: shippingService,
	}
}

// POST /shipping/validate-address
func (h *ShippingHandler) ValidateAddress(c *gin.Context) {
	var req services.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	addr := models.Address{
		Name:    req.Name,
		Street1: req.Street1,
		Street2: req.Street2,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: "US",
		Phone:   req.Phone,
	}

	if err := h.shippingService.ValidateAddress(addr); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"valid": true})
}

type calculateRatesRequest struct {
	Address services.AddressRequest   `json:"address"`
	Parcel  services.SetParcelRequest `json:"parcel"`
}

// POST /shipping/calculate
// Quotes rates for an arbitrary destination and package, used for shipping
// estimates before an order exists.
func (h *ShippingHandler) CalculateRates(c *gin.Context) {
	var req calculateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req.Address)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req.Parcel)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	destination := models.Address{
		Name:    req.Address.Name,
		Street1: req.Address.Street1,
		Street2: req.Address.Street2,
		City:    req.Address.City,
		State:   req.Address.State,
		Zip:     req.Address.Zip,
		Country: "US",
		Phone:   req.Address.Phone,
	}
	parcel := models.ShippingParcel{
		Weight:       req.Parcel.Weight,
		WeightUnit:   req.Parcel.WeightUnit,
		Length:       req.Parcel.Length,
		Width:        req.Parcel.Width,
		Height:       req.Parcel.Height,
		DistanceUnit: req.Parcel.DistanceUnit,
	}

	rates, err := h.shippingService.RatesFor(destination, parcel)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"rates": rates})
}
