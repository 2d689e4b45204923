// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroraatelier/aurora-backend/internal/models"
)

func labelReadyOrder() *models.Order {
	return &models.Order{
		OrderNumber: "AUR-20260815-X7K2QZ",
		Status:      models.OrderStatusAccepted,
		Subtotal:    160,
		Parcel: models.ShippingParcel{
			Weight:       1,
			WeightUnit:   models.WeightUnitPound,
			Length:       8,
			Width:        6,
			Height:       4,
			DistanceUnit: models.DistanceUnitInch,
		},
	}
}

func TestApplyRateSelection(t *testing.T) {
	svc := &OrderService{}
	order := labelReadyOrder()
	req := &PurchaseLabelRequest{RateID: "rate_usps", Carrier: "USPS", Service: "Priority Mail", Amount: 8.45}

	require.NoError(t, svc.applyRateSelection(order, req))
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	assert.Equal(t, "rate_usps", order.Shipment.RateID)
	assert.Equal(t, "USPS", order.Shipment.Carrier)
	assert.Equal(t, "Priority Mail", order.Shipment.Service)
	assert.Equal(t, 8.45, order.Shipment.Amount)
}

func TestApplyRateSelectionRefusesBadState(t *testing.T) {
	svc := &OrderService{}
	order := labelReadyOrder()
	order.Status = models.OrderStatusShipped

	err := svc.applyRateSelection(order, &PurchaseLabelRequest{RateID: "rate_usps", Carrier: "USPS", Amount: 8.45})
	assert.ErrorIs(t, err, models.ErrTransitionNotAllowed)
}

// A purchased label can be re-applied to a freshly loaded copy of the order,
// so a lost version race never discards the paid-for label.
func TestApplyPurchasedLabelIsRepeatable(t *testing.T) {
	svc := &OrderService{}
	req := &PurchaseLabelRequest{RateID: "rate_usps", Carrier: "USPS", Service: "Priority Mail", Amount: 8.45}
	label := &PurchasedLabel{
		TransactionID:  "txn_1",
		RateID:         "rate_usps",
		TrackingNumber: "9400100000000000000000",
		TrackingURL:    "https://tools.usps.com/track",
		LabelURL:       "https://labels.example/txn_1.pdf",
		Amount:         8.45,
	}

	first := labelReadyOrder()
	require.NoError(t, svc.applyRateSelection(first, req))
	applyPurchasedLabel(first, label, req.Amount)

	// A concurrent edit landed between purchase and save; the reloaded copy
	// carries it, and re-applying produces the same label state on top.
	reloaded := labelReadyOrder()
	reloaded.Tax = 13.2
	reloaded.IsTaxSet = true
	reloaded.Version = first.Version + 1
	require.NoError(t, svc.applyRateSelection(reloaded, req))
	applyPurchasedLabel(reloaded, label, req.Amount)

	assert.Equal(t, "txn_1", reloaded.Shipment.TransactionID)
	assert.Equal(t, "https://labels.example/txn_1.pdf", reloaded.Shipment.LabelURL)
	assert.Equal(t, "9400100000000000000000", reloaded.Shipment.TrackingNumber)
	assert.Equal(t, 8.45, reloaded.ShippingCost)
	assert.InDelta(t, 160+8.45+13.2, reloaded.Total, 0.0001)
	assert.Equal(t, first.Shipment.LabelURL, reloaded.Shipment.LabelURL)
}
