// internal/models/lifecycle_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time {
	return &t
}

func baseOrder(status OrderStatus) *Order {
	return &Order{Status: status}
}

func TestNextStatusHappyPath(t *testing.T) {
	now := time.Now()

	// pending_approval -> accepted
	next, err := NextStatus(baseOrder(OrderStatusPendingApproval), ActionAccept, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, next)

	// accepted -> pending_payment once label and tax are in place
	order := baseOrder(OrderStatusAccepted)
	order.Shipment.LabelURL = "https://labels.example/1.pdf"
	order.IsTaxSet = true
	next, err = NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, next)

	// pending_payment -> processing with a live matching token
	order = baseOrder(OrderStatusPendingPayment)
	order.PaymentToken = "tok123"
	order.PaymentTokenExpiry = ptrTime(now.Add(time.Hour))
	next, err = NextStatus(order, ActionPay, TransitionInput{Token: "tok123", Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusProcessing, next)

	// processing -> shipped -> delivered
	order = baseOrder(OrderStatusProcessing)
	order.PaymentStatus = PaymentStatusCaptured
	order.Shipment.LabelURL = "https://labels.example/1.pdf"
	next, err = NextStatus(order, ActionMarkShipped, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, next)

	next, err = NextStatus(baseOrder(OrderStatusShipped), ActionMarkDelivered, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusDelivered, next)
}

func TestNextStatusRejectsActionsOutsideTheTable(t *testing.T) {
	now := time.Now()

	cases := []struct {
		status OrderStatus
		action OrderAction
	}{
		{OrderStatusShipped, ActionAccept},
		{OrderStatusDelivered, ActionMarkShipped},
		{OrderStatusPendingApproval, ActionPay},
		{OrderStatusPendingApproval, ActionGenerateLink},
		{OrderStatusAccepted, ActionPay},
		{OrderStatusProcessing, ActionCancel},
		{OrderStatusRejected, ActionAccept},
		{OrderStatusCancelled, ActionAccept},
		{OrderStatusRemoved, ActionAccept},
		{OrderStatusPendingPayment, ActionSetTax},
	}

	for _, tc := range cases {
		_, err := NextStatus(baseOrder(tc.status), tc.action, TransitionInput{Now: now})
		assert.ErrorIs(t, err, ErrTransitionNotAllowed, "status=%s action=%s", tc.status, tc.action)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	order := baseOrder(OrderStatusPendingApproval)

	_, err := NextStatus(order, ActionReject, TransitionInput{})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	next, err := NextStatus(order, ActionReject, TransitionInput{Reason: "out of stock gemstones"})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusRejected, next)
}

func TestSetTaxLockedByLiveToken(t *testing.T) {
	order := baseOrder(OrderStatusAccepted)
	order.PaymentToken = "tok123"

	_, err := NextStatus(order, ActionSetTax, TransitionInput{Now: time.Now()})
	assert.ErrorIs(t, err, ErrTaxLockedByToken)

	order.PaymentToken = ""
	next, err := NextStatus(order, ActionSetTax, TransitionInput{Now: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, next)
}

func TestPurchaseLabelRequiresParcelAndRate(t *testing.T) {
	order := baseOrder(OrderStatusAccepted)

	_, err := NextStatus(order, ActionPurchaseLabel, TransitionInput{})
	assert.ErrorIs(t, err, ErrParcelAndRateRequired)

	order.Parcel = ShippingParcel{Weight: 1, Length: 4, Width: 3, Height: 2, WeightUnit: WeightUnitPound, DistanceUnit: DistanceUnitInch}
	_, err = NextStatus(order, ActionPurchaseLabel, TransitionInput{})
	assert.ErrorIs(t, err, ErrParcelAndRateRequired)

	order.Shipment.RateID = "rate_1"
	next, err := NextStatus(order, ActionPurchaseLabel, TransitionInput{})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, next)
}

func TestGenerateLinkGuards(t *testing.T) {
	now := time.Now()
	order := baseOrder(OrderStatusAccepted)

	_, err := NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.ErrorIs(t, err, ErrLabelRequired)

	order.Shipment.LabelURL = "https://labels.example/1.pdf"
	_, err = NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.ErrorIs(t, err, ErrTaxNotSet)

	order.IsTaxSet = true
	order.PaymentToken = "tok123"
	order.PaymentTokenExpiry = ptrTime(now.Add(time.Hour))
	_, err = NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.ErrorIs(t, err, ErrTokenAlreadyIssued)

	// An expired token does not block a fresh link.
	order.PaymentTokenExpiry = ptrTime(now.Add(-time.Hour))
	next, err := NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, next)
}

func TestRegenerateLinkRequiresExistingToken(t *testing.T) {
	order := baseOrder(OrderStatusPendingPayment)

	_, err := NextStatus(order, ActionRegenerateLink, TransitionInput{})
	assert.ErrorIs(t, err, ErrNoTokenToRegenerate)

	order.PaymentToken = "tok123"
	next, err := NextStatus(order, ActionRegenerateLink, TransitionInput{})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, next)
}

func TestPayGuards(t *testing.T) {
	now := time.Now()
	order := baseOrder(OrderStatusPendingPayment)
	order.PaymentToken = "tok123"
	order.PaymentTokenExpiry = ptrTime(now.Add(time.Hour))

	_, err := NextStatus(order, ActionPay, TransitionInput{Token: "wrong", Now: now})
	assert.ErrorIs(t, err, ErrPaymentTokenInvalid)

	_, err = NextStatus(order, ActionPay, TransitionInput{Token: "", Now: now})
	assert.ErrorIs(t, err, ErrPaymentTokenInvalid)

	// Expired token never matches.
	order.PaymentTokenExpiry = ptrTime(now.Add(-time.Minute))
	_, err = NextStatus(order, ActionPay, TransitionInput{Token: "tok123", Now: now})
	assert.ErrorIs(t, err, ErrPaymentTokenInvalid)
}

func TestMarkShippedGuards(t *testing.T) {
	order := baseOrder(OrderStatusProcessing)
	order.Shipment.LabelURL = "https://labels.example/1.pdf"

	_, err := NextStatus(order, ActionMarkShipped, TransitionInput{})
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)

	order.PaymentStatus = PaymentStatusCaptured
	order.Shipment.LabelURL = ""
	_, err = NextStatus(order, ActionMarkShipped, TransitionInput{})
	assert.ErrorIs(t, err, ErrLabelRequired)
}

func TestRequestAdjustmentOnlyFromPendingPayment(t *testing.T) {
	next, err := NextStatus(baseOrder(OrderStatusPendingPayment), ActionRequestAdjustment, TransitionInput{})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPaymentAdjustment, next)

	for _, status := range []OrderStatus{OrderStatusPendingApproval, OrderStatusAccepted, OrderStatusProcessing, OrderStatusShipped} {
		_, err := NextStatus(baseOrder(status), ActionRequestAdjustment, TransitionInput{})
		assert.ErrorIs(t, err, ErrTransitionNotAllowed, "status=%s", status)
	}
}

func TestAdjustmentFlowReturnsToPendingPayment(t *testing.T) {
	now := time.Now()

	// Requesting an adjustment voids the outstanding link, so the order
	// arrives here with no token, a purchased label and tax already set.
	order := baseOrder(OrderStatusPendingPaymentAdjustment)
	order.Shipment.LabelURL = "https://labels.example/1.pdf"
	order.IsTaxSet = true

	// Tax edits are allowed again once the token is cleared.
	next, err := NextStatus(order, ActionSetTax, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPaymentAdjustment, next)

	// A fresh link is issued without a prior token; regenerate is only for
	// orders that still hold one.
	_, err = NextStatus(order, ActionRegenerateLink, TransitionInput{Now: now})
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	next, err = NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, next)
}

func TestAdjustedOrderIsNotStuckWithoutToken(t *testing.T) {
	now := time.Now()

	// Full round trip: a tokenized pending_payment order is pulled back for
	// adjustment, loses its token, gets new tax, and still reaches
	// pending_payment again.
	order := baseOrder(OrderStatusPendingPayment)
	order.Shipment.LabelURL = "https://labels.example/1.pdf"
	order.IsTaxSet = true
	order.PaymentToken = "tok123"
	order.PaymentTokenExpiry = ptrTime(now.Add(time.Hour))

	next, err := NextStatus(order, ActionRequestAdjustment, TransitionInput{Now: now})
	assert.NoError(t, err)
	order.Status = next
	order.PaymentToken = ""
	order.PaymentTokenExpiry = nil

	next, err = NextStatus(order, ActionSetTax, TransitionInput{Now: now})
	assert.NoError(t, err)
	order.Status = next

	next, err = NextStatus(order, ActionGenerateLink, TransitionInput{Now: now})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusPendingPayment, next)
}

func TestTokenMatches(t *testing.T) {
	now := time.Now()
	order := &Order{}

	assert.False(t, order.TokenMatches("tok123", now))

	order.PaymentToken = "tok123"
	assert.False(t, order.TokenMatches("tok123", now), "no expiry means no live token")

	order.PaymentTokenExpiry = ptrTime(now.Add(time.Hour))
	assert.True(t, order.TokenMatches("tok123", now))
	assert.False(t, order.TokenMatches("other", now))
	assert.False(t, order.TokenMatches("", now))

	assert.True(t, order.HasLiveToken(now))
	assert.False(t, order.HasLiveToken(now.Add(2*time.Hour)))
}

func TestRecomputeTotal(t *testing.T) {
	order := &Order{Subtotal: 120, ShippingCost: 8.45, Tax: 10.2}
	order.RecomputeTotal()
	assert.InDelta(t, 138.65, order.Total, 0.0001)
}

func TestShippingParcelIsSet(t *testing.T) {
	assert.False(t, ShippingParcel{}.IsSet())
	assert.False(t, ShippingParcel{Weight: 1, Length: 2, Width: 3}.IsSet())
	assert.True(t, ShippingParcel{Weight: 1, Length: 2, Width: 3, Height: 4}.IsSet())
}
