// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/models"
)

func TestPaymentLinkURL(t *testing.T) {
	svc := NewPaymentService(&config.Config{
		Frontend: config.FrontendConfig{BaseURL: "https://auroraatelier.com"},
	})

	assert.Equal(t, "https://auroraatelier.com/pay/tok123", svc.PaymentLinkURL("tok123"))
}

func TestCreateCheckoutSessionRejectsNonPositiveTotal(t *testing.T) {
	svc := NewPaymentService(&config.Config{})

	_, err := svc.CreateCheckoutSession(&models.Order{Total: 0}, "tok123")
	assert.Error(t, err)
}

func TestVerifySessionRequiresID(t *testing.T) {
	svc := NewPaymentService(&config.Config{})

	_, err := svc.VerifySession("")
	assert.Error(t, err)
}

func TestOrderLineSummaryCountsPieces(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{Quantity: 2},
			{Quantity: 1},
		},
	}

	assert.Equal(t, "3 piece(s), including shipping and tax", orderLineSummary(order))
}
