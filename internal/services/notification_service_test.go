// internal/services/notification_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroraatelier/aurora-backend/internal/config"
	"github.com/auroraatelier/aurora-backend/internal/models"
)

func testNotificationService() *NotificationService {
	cfg := &config.Config{
		Email:    config.EmailConfig{FromName: "Aurora Atelier"},
		Frontend: config.FrontendConfig{BaseURL: "https://auroraatelier.com"},
	}
	return NewNotificationService(nil, cfg)
}

func testOrderForEmail() *models.Order {
	return &models.Order{
		OrderNumber:   "AUR-20260815-X7K2QZ",
		CustomerEmail: "jamie@example.com",
		Subtotal:      160,
		ShippingCost:  8.45,
		Tax:           13.2,
		Total:         181.65,
		ShippingAddress: models.Address{
			Name: "Jamie Rivera",
		},
		Items: []models.OrderItem{
			{Name: "Stacking Ring", Price: 80, Quantity: 2, Size: "7"},
		},
	}
}

func TestComposeOrderReceived(t *testing.T) {
	svc := testNotificationService()
	order := testOrderForEmail()

	email, err := svc.ComposeOrderReceived(order)
	require.NoError(t, err)

	assert.Equal(t, "jamie@example.com", email.To)
	assert.Contains(t, email.Subject, order.OrderNumber)
	assert.Contains(t, email.HTML, "Jamie Rivera")
	assert.Contains(t, email.HTML, order.OrderNumber)
	assert.Contains(t, email.HTML, "Stacking Ring")
	assert.Contains(t, email.HTML, "x2")
	assert.Contains(t, email.HTML, "Aurora Atelier")

	// The plain-text alternative carries the same essentials.
	assert.Contains(t, email.Text, order.OrderNumber)
	assert.Contains(t, email.Text, "Stacking Ring")
	assert.NotContains(t, email.Text, "<html>")
}

func TestComposeTaxAdjusted(t *testing.T) {
	svc := testNotificationService()
	order := testOrderForEmail()

	email, err := svc.ComposeTaxAdjusted(order)
	require.NoError(t, err)

	assert.Equal(t, "jamie@example.com", email.To)
	assert.Contains(t, email.Subject, "Updated total")
	assert.Contains(t, email.Subject, order.OrderNumber)
	assert.Contains(t, email.HTML, "160.00")
	assert.Contains(t, email.HTML, "13.20")
	assert.Contains(t, email.HTML, "181.65")
	assert.Contains(t, email.Text, "Total: $181.65")
}

func TestComposeOrderRejectedIncludesReason(t *testing.T) {
	svc := testNotificationService()

	email, err := svc.ComposeOrderRejected(testOrderForEmail(), "gemstone out of stock")
	require.NoError(t, err)

	assert.Contains(t, email.HTML, "gemstone out of stock")
	assert.Contains(t, email.HTML, "have not been charged")
}

func TestComposePaymentLink(t *testing.T) {
	svc := testNotificationService()
	expiresAt := time.Date(2026, 8, 16, 15, 0, 0, 0, time.UTC)

	email, err := svc.ComposePaymentLink(testOrderForEmail(), "https://auroraatelier.com/pay/tok123", expiresAt)
	require.NoError(t, err)

	assert.Contains(t, email.Subject, "Payment link")
	assert.Contains(t, email.HTML, "https://auroraatelier.com/pay/tok123")
	assert.Contains(t, email.HTML, "August 16, 2026")
	assert.Contains(t, email.HTML, "181.65")
	assert.Contains(t, email.HTML, "8.45")
	assert.Contains(t, email.HTML, "13.20")
	assert.Contains(t, email.Text, "https://auroraatelier.com/pay/tok123")
	assert.Contains(t, email.Text, "August 16, 2026")
}

func TestComposeOrderShippedIncludesTracking(t *testing.T) {
	svc := testNotificationService()
	order := testOrderForEmail()
	order.Shipment = models.ShippoShipment{
		Carrier:        "USPS",
		TrackingNumber: "9400100000000000000000",
		TrackingURL:    "https://tools.usps.com/track?n=9400100000000000000000",
	}

	email, err := svc.ComposeOrderShipped(order)
	require.NoError(t, err)

	assert.Contains(t, email.Subject, "has shipped")
	assert.Contains(t, email.HTML, "USPS")
	assert.Contains(t, email.HTML, "9400100000000000000000")
	assert.Contains(t, email.HTML, order.Shipment.TrackingURL)
	assert.Contains(t, email.Text, "9400100000000000000000")
}

func TestComposeForEventDispatch(t *testing.T) {
	svc := testNotificationService()
	order := testOrderForEmail()

	for _, event := range []string{
		EmailEventOrderReceived,
		EmailEventOrderAccepted,
		EmailEventTaxAdjusted,
		EmailEventPaymentReceived,
		EmailEventOrderShipped,
		EmailEventOrderDelivered,
	} {
		email, err := svc.composeForEvent(order, event)
		require.NoError(t, err, "event=%s", event)
		assert.Contains(t, email.HTML, order.OrderNumber, "event=%s", event)
		assert.Contains(t, email.Text, order.OrderNumber, "event=%s", event)
	}

	_, err := svc.composeForEvent(order, "unknown_event")
	assert.Error(t, err)

	// Payment link emails need a URL and an expiry.
	_, err = svc.composeForEvent(order, EmailEventPaymentLink)
	assert.Error(t, err)

	email, err := svc.composeForEvent(order, EmailEventPaymentLink, "https://auroraatelier.com/pay/tok123", time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "/pay/tok123")
}
